package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rdtagger/pkg/collections"
	"rdtagger/pkg/config"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/processor"
	"rdtagger/pkg/raindrop"
	"rdtagger/pkg/tagger"
	"rdtagger/pkg/ui"
)

var (
	raindropToken string
	aiKey         string
	dryRun        bool
	collectionID  int64
	nested        bool
	assumeYes     bool
)

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag bookmarks in your Raindrop.io collections",
	Long: `Tag every bookmark in your collections, or in one collection.

Without --collection the whole collection tree is fetched and every collection
is visited parent first. With --collection only that collection is visited;
add --nested to have Raindrop include bookmarks of its sub-collections.

Credentials come from flags, RDTAGGER_* environment variables, the config
file, or the credential store ('rdtagger auth login'), in that order.`,
	Example: `  # See what would happen without writing anything
  rdtagger tag --dry-run

  # Tag one collection and everything below it
  rdtagger tag --collection 12345 --nested

  # Non-interactive live run
  rdtagger tag --raindrop-token $TOKEN --ai-key $KEY --yes`,
	Args: cobra.NoArgs,
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().StringVar(&raindropToken, "raindrop-token", "", "Raindrop.io API token")
	tagCmd.Flags().StringVar(&aiKey, "ai-key", "", "AI service API key")
	tagCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate: placeholder tags, no writes, no confirmation")
	tagCmd.Flags().Int64Var(&collectionID, "collection", 0, "only process this collection id")
	tagCmd.Flags().BoolVar(&nested, "nested", false, "with --collection, include items of nested collections")
	tagCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt for live runs")
}

func runTag(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"raindrop-token": raindropToken,
		"ai-key":         aiKey,
		"collection":     collectionID,
	}
	for name, value := range map[string]bool{"dry-run": dryRun, "nested": nested, "yes": assumeYes} {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	fillStoredCredentials(cfg)
	if err := cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("%w\n\nRun 'rdtagger auth guide' to see where to get them", err)
	}

	log := logger.GetLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintBanner("AI bookmark tagger")
	if cfg.Processing.DryRun {
		ui.PrintWarning("Dry run: no changes will be written")
	}

	client := newRaindropClient(cfg, log)

	ids, err := workList(ctx, client, cfg)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ui.PrintWarning("No collections found")
		return nil
	}
	ui.PrintInfo("Collections to process", fmt.Sprintf("%d", len(ids)))

	if !cfg.Processing.DryRun && !cfg.Processing.AssumeYes {
		ok, err := confirmLiveRun(len(ids))
		if err != nil {
			return err
		}
		if !ok {
			ui.PrintWarning("Cancelled")
			return nil
		}
	}

	var t tagger.Tagger
	if !cfg.Processing.DryRun {
		t = tagger.NewChatClient(cfg.AI,
			tagger.WithLogger(log),
			tagger.WithRateLimit(cfg.AI.RequestsPerMinute),
		)
	}

	p := processor.New(client, t, processor.OptionsFromConfig(cfg),
		processor.WithLogger(log),
		processor.WithReporter(ui.NewProgressDisplay(os.Stdout, cfg.Processing.DryRun)),
	)

	stats, runErr := p.Run(ctx, ids)
	fmt.Println()
	ui.RenderSummary(os.Stdout, stats)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			ui.PrintWarning("Interrupted; bookmarks already written keep their tags")
		}
		return runErr
	}
	return nil
}

// workList returns the collection ids to visit: the one requested, or the
// whole tree in pre-order
func workList(ctx context.Context, client *raindrop.Client, cfg *config.Config) ([]int64, error) {
	if cfg.Processing.CollectionID != 0 {
		return []int64{cfg.Processing.CollectionID}, nil
	}

	tree, err := fetchTree(ctx, client)
	if err != nil {
		return nil, err
	}
	return collections.Flatten(tree), nil
}

func fetchTree(ctx context.Context, client *raindrop.Client) ([]*collections.Node, error) {
	roots, err := client.ListRootCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collections: %w", err)
	}
	children, err := client.ListNestedCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nested collections: %w", err)
	}
	return collections.BuildTree(roots, children), nil
}

func confirmLiveRun(n int) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("live run needs confirmation; pass --yes when stdin is not a terminal")
	}
	question := fmt.Sprintf("This will update tags on bookmarks in %d %s. Continue?",
		n, plural(n, "collection", "collections"))
	return ui.Confirm(os.Stdin, os.Stdout, question)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
