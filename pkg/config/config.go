package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the tagger
type Config struct {
	// Raindrop API settings
	Raindrop RaindropConfig `yaml:"raindrop" json:"raindrop"`

	// AI tagging service settings
	AI AIConfig `yaml:"ai" json:"ai"`

	// Rate governor configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for throttled requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Run behaviour
	Processing ProcessingConfig `yaml:"processing" json:"processing"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RaindropConfig holds bookmark-manager API configuration
type RaindropConfig struct {
	Token    string        `yaml:"token" json:"token"`
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	PageSize int           `yaml:"page_size" json:"page_size"`
	MaxPages int           `yaml:"max_pages" json:"max_pages"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// AIConfig holds AI completion service configuration
type AIConfig struct {
	APIKey            string        `yaml:"api_key" json:"api_key"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Model             string        `yaml:"model" json:"model"`
	Temperature       float64       `yaml:"temperature" json:"temperature"`
	MaxTokens         int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	// Pause is the fixed delay after each successful AI call
	Pause time.Duration `yaml:"pause" json:"pause"`
}

// RateLimitConfig holds rate governor configuration
type RateLimitConfig struct {
	Window                time.Duration `yaml:"window" json:"window"`
	MaxRequests           int           `yaml:"max_requests" json:"max_requests"`
	LowRemainingThreshold int           `yaml:"low_remaining_threshold" json:"low_remaining_threshold"`
	LowRemainingPause     time.Duration `yaml:"low_remaining_pause" json:"low_remaining_pause"`
	DefaultLimit          int           `yaml:"default_limit" json:"default_limit"`
}

// RetryConfig holds retry configuration for throttled requests
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay" json:"base_delay"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier"`
}

// ProcessingConfig holds per-run behaviour
type ProcessingConfig struct {
	DryRun          bool          `yaml:"dry_run" json:"dry_run"`
	CollectionID    int64         `yaml:"collection_id" json:"collection_id"`
	IncludeNested   bool          `yaml:"include_nested" json:"include_nested"`
	SkipThreshold   int           `yaml:"skip_threshold" json:"skip_threshold"`
	CollectionPause time.Duration `yaml:"collection_pause" json:"collection_pause"`
	PlaceholderTags []string      `yaml:"placeholder_tags" json:"placeholder_tags"`
	AssumeYes       bool          `yaml:"assume_yes" json:"assume_yes"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Raindrop: RaindropConfig{
			BaseURL:  "https://api.raindrop.io/rest/v1",
			PageSize: 50,
			MaxPages: 100,
			Timeout:  30 * time.Second,
		},
		AI: AIConfig{
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   100,
			Timeout:     30 * time.Second,
			Pause:       500 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Window:                60 * time.Second,
			MaxRequests:           100,
			LowRemainingThreshold: 10,
			LowRemainingPause:     2 * time.Second,
			DefaultLimit:          120,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  10 * time.Second,
			Multiplier: 2.0,
		},
		Processing: ProcessingConfig{
			SkipThreshold:   3,
			CollectionPause: 1 * time.Second,
			PlaceholderTags: []string{"tag1", "tag2", "tag3"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if token := os.Getenv("RDTAGGER_RAINDROP_TOKEN"); token != "" {
		c.Raindrop.Token = token
	}
	if baseURL := os.Getenv("RDTAGGER_RAINDROP_BASE_URL"); baseURL != "" {
		c.Raindrop.BaseURL = baseURL
	}
	if key := os.Getenv("RDTAGGER_AI_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if baseURL := os.Getenv("RDTAGGER_AI_BASE_URL"); baseURL != "" {
		c.AI.BaseURL = baseURL
	}
	if model := os.Getenv("RDTAGGER_AI_MODEL"); model != "" {
		c.AI.Model = model
	}
	if rpm := os.Getenv("RDTAGGER_AI_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("RDTAGGER_AI_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.AI.RequestsPerMinute = val
		}
	}
	if dryRun := os.Getenv("RDTAGGER_DRY_RUN"); dryRun != "" {
		c.Processing.DryRun = strings.ToLower(dryRun) == "true"
	}
	if id := os.Getenv("RDTAGGER_COLLECTION_ID"); id != "" {
		val, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RDTAGGER_COLLECTION_ID: %w", err))
		} else {
			c.Processing.CollectionID = val
		}
	}
	if logLevel := os.Getenv("RDTAGGER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".rdtagger.yaml",
		".rdtagger.yml",
		filepath.Join(home, ".config", "rdtagger", "config.yaml"),
		filepath.Join(home, ".config", "rdtagger", "config.yml"),
		filepath.Join(home, ".rdtagger.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the structural settings. Credentials are checked
// separately by ValidateCredentials because not every command needs both.
func (c *Config) Validate() error {
	var errs []error

	if c.Raindrop.BaseURL == "" {
		errs = append(errs, errors.New("raindrop base URL is required"))
	}
	if c.Raindrop.PageSize <= 0 || c.Raindrop.PageSize > 50 {
		errs = append(errs, errors.New("raindrop page size must be between 1 and 50"))
	}
	if c.Raindrop.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Raindrop.Timeout <= 0 {
		errs = append(errs, errors.New("raindrop timeout must be positive"))
	}

	if c.AI.BaseURL == "" {
		errs = append(errs, errors.New("AI base URL is required"))
	}
	if c.AI.Model == "" {
		errs = append(errs, errors.New("AI model is required"))
	}
	if c.AI.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("AI requests per minute cannot be negative"))
	}
	if c.AI.Pause < 0 {
		errs = append(errs, errors.New("AI pause cannot be negative"))
	}

	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("max requests per window must be positive"))
	}

	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry base delay cannot be negative"))
	}

	if c.Processing.SkipThreshold <= 0 {
		errs = append(errs, errors.New("skip threshold must be positive"))
	}
	if c.Processing.CollectionID < 0 {
		errs = append(errs, errors.New("collection id cannot be negative"))
	}
	if c.Processing.IncludeNested && c.Processing.CollectionID == 0 {
		errs = append(errs, errors.New("include nested requires a collection id"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials checks the secrets a tagging run needs. The AI key
// is not needed for a dry run.
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Raindrop.Token == "" {
		errs = append(errs, errors.New("raindrop token is required"))
	}
	if c.AI.APIKey == "" && !c.Processing.DryRun {
		errs = append(errs, errors.New("AI API key is required"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["raindrop-token"].(string); ok && token != "" {
		c.Raindrop.Token = token
	}
	if key, ok := flags["ai-key"].(string); ok && key != "" {
		c.AI.APIKey = key
	}
	if dryRun, ok := flags["dry-run"].(bool); ok {
		c.Processing.DryRun = dryRun
	}
	if id, ok := flags["collection"].(int64); ok && id != 0 {
		c.Processing.CollectionID = id
	}
	if nested, ok := flags["nested"].(bool); ok {
		c.Processing.IncludeNested = nested
	}
	if yes, ok := flags["yes"].(bool); ok {
		c.Processing.AssumeYes = yes
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".rdtagger.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
