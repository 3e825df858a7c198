package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"rdtagger/pkg/auth"
	"rdtagger/pkg/config"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/ratelimit"
	"rdtagger/pkg/raindrop"
	"rdtagger/pkg/retry"
	"rdtagger/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	profile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rdtagger",
	Short: "Tag Raindrop.io bookmarks with AI-suggested categories",
	Long: `rdtagger walks your Raindrop.io collections, asks an AI chat service for
3-5 tags per bookmark and merges them into the bookmark's existing tags.

Bookmarks that already carry 3 or more tags are left alone. Requests are
paced to stay inside Raindrop's rate limit and throttled calls are retried.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.rdtagger.yaml or ~/.config/rdtagger/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", auth.DefaultProfile, "stored credential profile")

	rootCmd.SetVersionTemplate(`rdtagger {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig resolves configuration from all sources and starts the global logger
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// fillStoredCredentials fills whatever the flags, environment and config file
// left empty from the credential store
func fillStoredCredentials(cfg *config.Config) {
	if cfg.Raindrop.Token != "" && cfg.AI.APIKey != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Debug("Credential store unavailable")
		return
	}
	creds, err := manager.Retrieve(profile)
	if err != nil {
		logger.WithField("profile", profile).Debug("No stored credentials")
		return
	}

	if cfg.Raindrop.Token == "" {
		cfg.Raindrop.Token = creds.RaindropToken
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = creds.AIKey
	}
}

// newRaindropClient wires the governor and throttle retry policy from config
func newRaindropClient(cfg *config.Config, log logger.Logger) *raindrop.Client {
	governor := ratelimit.NewGovernor(ratelimit.Config{
		Window:                cfg.RateLimit.Window,
		MaxRequests:           cfg.RateLimit.MaxRequests,
		LowRemainingThreshold: cfg.RateLimit.LowRemainingThreshold,
		LowRemainingPause:     cfg.RateLimit.LowRemainingPause,
		DefaultLimit:          cfg.RateLimit.DefaultLimit,
	}, ratelimit.WithLogger(log))

	retryCfg := retry.ThrottleConfig(cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, log)
	if eb, ok := retryCfg.Backoff.(*retry.ExponentialBackoff); ok && cfg.Retry.Multiplier > 0 {
		eb.Multiplier = cfg.Retry.Multiplier
	}

	return raindrop.NewClient(cfg.Raindrop.Token,
		raindrop.WithBaseURL(cfg.Raindrop.BaseURL),
		raindrop.WithTimeout(cfg.Raindrop.Timeout),
		raindrop.WithLimiter(governor),
		raindrop.WithRetry(retryCfg),
		raindrop.WithLogger(log),
	)
}
