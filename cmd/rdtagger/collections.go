package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"rdtagger/pkg/logger"
	"rdtagger/pkg/ui"
)

// collectionsCmd represents the collections command
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Show the collection tree",
	Long: `Fetch root and nested collections and print them as a tree, in the
order 'rdtagger tag' would visit them. Only the Raindrop token is needed.`,
	Args: cobra.NoArgs,
	RunE: runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
	collectionsCmd.Flags().StringVar(&raindropToken, "raindrop-token", "", "Raindrop.io API token")
}

func runCollections(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"raindrop-token": raindropToken})
	if err != nil {
		return err
	}
	fillStoredCredentials(cfg)
	if cfg.Raindrop.Token == "" {
		return errors.New("raindrop token is required")
	}

	client := newRaindropClient(cfg, logger.GetLogger())
	tree, err := fetchTree(context.Background(), client)
	if err != nil {
		return err
	}

	ui.RenderCollections(os.Stdout, tree)
	return nil
}
