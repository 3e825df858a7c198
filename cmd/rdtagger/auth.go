package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rdtagger/pkg/auth"
	"rdtagger/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage the Raindrop token and AI key stored for a profile.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials securely",
	Long: `Prompt for the Raindrop token and the AI key and store them for the
selected profile (--profile, default "default"). Input is hidden.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored credentials (masked)",
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain where to get the tokens",
	Args:  cobra.NoArgs,
	Run:   runGuide,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(guideCmd)
}

func runGuide(cmd *cobra.Command, args []string) {
	auth.ShowTokenGuide(os.Stdout)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(profile); existing != nil {
		ok, err := ui.Confirm(reader, os.Stdout, fmt.Sprintf("Profile %q already has credentials. Replace them?", profile))
		if err != nil || !ok {
			return err
		}
	}

	fmt.Println("Enter your credentials (input is hidden). Run 'rdtagger auth guide' for help.")
	fmt.Println()

	fmt.Print("Raindrop token: ")
	token, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return errors.New("raindrop token is required")
	}

	fmt.Print("AI key (Enter to skip): ")
	key, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read AI key: %w", err)
	}

	store, err := manager.Store(&auth.Credentials{
		Profile:       profile,
		RaindropToken: token,
		AIKey:         key,
	})
	if err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials for %q saved to %s", profile, store))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(profile); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Credentials for %q removed", profile))
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.Retrieve(profile)
	if err != nil {
		return err
	}

	sanitized := auth.SanitizeCredentials(creds)
	ui.PrintInfo("Profile", sanitized.Profile)
	ui.PrintInfo("Raindrop token", sanitized.RaindropToken)
	if sanitized.AIKey != "" {
		ui.PrintInfo("AI key", sanitized.AIKey)
	} else {
		ui.PrintInfo("AI key", "(not set)")
	}
	ui.PrintInfo("Last modified", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	ui.PrintInfo("Stores", strings.Join(manager.StoreNames(), " → "))
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
