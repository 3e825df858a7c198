package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rdtagger/pkg/bookmarkfile"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/processor"
	"rdtagger/pkg/tagger"
	"rdtagger/pkg/ui"
)

var fileOutput string

// fileCmd represents the file command
var fileCmd = &cobra.Command{
	Use:   "file <bookmarks.html>",
	Short: "Tag a browser bookmarks export",
	Long: `Tag the bookmarks in a Netscape bookmark file (the HTML export of every
major browser) and write a copy with TAGS attributes, ready to import.

The same policy applies as for Raindrop: bookmarks with 3 or more tags are
skipped and new tags are merged into existing ones.`,
	Example: `  rdtagger file bookmarks.html
  rdtagger file bookmarks.html --output tagged.html --ai-key $KEY`,
	Args: cobra.ExactArgs(1),
	RunE: runFile,
}

func init() {
	rootCmd.AddCommand(fileCmd)

	fileCmd.Flags().StringVarP(&fileOutput, "output", "o", "", "output file (default <name>_tagged.html)")
	fileCmd.Flags().StringVar(&aiKey, "ai-key", "", "AI service API key")
	fileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "use placeholder tags instead of calling the AI service")
}

func runFile(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{"ai-key": aiKey}
	if cmd.Flags().Changed("dry-run") {
		flags["dry-run"] = dryRun
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	fillStoredCredentials(cfg)
	if cfg.AI.APIKey == "" && !cfg.Processing.DryRun {
		return errors.New("AI API key is required")
	}

	input := args[0]
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open bookmarks: %w", err)
	}
	bookmarks, err := bookmarkfile.Parse(in)
	in.Close()
	if err != nil {
		return err
	}
	if len(bookmarks) == 0 {
		return errors.New("no bookmarks found in the file")
	}

	ui.PrintBanner("bookmark file tagger")
	ui.PrintInfo("Bookmarks", fmt.Sprintf("%d in %s", len(bookmarks), input))

	log := logger.GetLogger()
	var t tagger.Tagger = tagger.Placeholder{Tags: cfg.Processing.PlaceholderTags}
	if !cfg.Processing.DryRun {
		t = tagger.NewChatClient(cfg.AI, tagger.WithLogger(log), tagger.WithRateLimit(cfg.AI.RequestsPerMinute))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, runErr := bookmarkfile.Tag(ctx, bookmarks, t, bookmarkfile.TagOptions{
		SkipThreshold: cfg.Processing.SkipThreshold,
		Pause:         cfg.AI.Pause,
		OnItem:        printFileItem,
	})

	output := fileOutput
	if output == "" {
		output = bookmarkfile.OutputPath(input)
	}
	if err := bookmarkfile.Save(output, bookmarks); err != nil {
		return err
	}

	fmt.Println()
	ui.RenderSummary(os.Stdout, stats)
	ui.PrintSuccess("Saved " + output + "; import it into your browser")
	return runErr
}

func printFileItem(index, total int, b bookmarkfile.Bookmark, outcome processor.Outcome, err error) {
	prefix := fmt.Sprintf("[%d/%d]", index+1, total)
	switch outcome {
	case processor.OutcomeSkipped:
		fmt.Printf("%s %s %s\n", ui.Dim(prefix), b.Title, ui.Dim("(skipped)"))
	case processor.OutcomeFailed:
		fmt.Printf("%s %s %s\n", ui.Dim(prefix), b.Title, ui.Red(err.Error()))
	default:
		fmt.Printf("%s %s %s\n", ui.Dim(prefix), b.Title, ui.Yellow(fmt.Sprint(b.Tags)))
	}
}
