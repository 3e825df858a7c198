package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"rdtagger/pkg/processor"
	"rdtagger/pkg/raindrop"
)

// ProgressDisplay prints one line per item and a header per collection.
// It implements processor.Reporter.
type ProgressDisplay struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	dryRun    bool
	startTime time.Time

	collectionIndex int
	collectionTotal int
	itemsDone       int
	errors          int
}

var _ processor.Reporter = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display writing to out
func NewProgressDisplay(out io.Writer, dryRun bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		now:       time.Now,
		dryRun:    dryRun,
		startTime: time.Now(),
	}
}

// CollectionStarted prints the collection header with a rough ETA
func (p *ProgressDisplay) CollectionStarted(index, total int, collectionID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index == 0 {
		p.startTime = p.now()
	}
	p.collectionIndex = index
	p.collectionTotal = total

	line := fmt.Sprintf("\n%s collection %d (%d/%d)",
		Cyan("→"), collectionID, index+1, total)
	if eta, ok := p.eta(); ok {
		line += Dim(" • eta " + formatDuration(eta))
	}
	fmt.Fprintln(p.out, line)
}

// ItemDone prints the item's outcome
func (p *ProgressDisplay) ItemDone(item raindrop.Item, outcome processor.Outcome, tags []string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.itemsDone++
	title := truncate(item.Title, 60)

	switch outcome {
	case processor.OutcomeSkipped:
		fmt.Fprintf(p.out, "  %s %s %s\n", Dim("⊘"), title,
			Dim(fmt.Sprintf("(already has %d tags)", len(item.Tags))))
	case processor.OutcomeTagged:
		fmt.Fprintf(p.out, "  %s %s %s\n", Green("✓"), title, Yellow(strings.Join(tags, ", ")))
	case processor.OutcomeSimulated:
		fmt.Fprintf(p.out, "  %s %s %s\n", Cyan("~"), title, Dim("would write: "+strings.Join(tags, ", ")))
	case processor.OutcomeFailed:
		p.errors++
		fmt.Fprintf(p.out, "  %s %s %s\n", Red("✗"), title, Dim(fmt.Sprintf("%v", err)))
	}
}

// Finished prints the closing line
func (p *ProgressDisplay) Finished(stats *processor.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	verb := "Tagged"
	if p.dryRun {
		verb = "Simulated"
	}
	fmt.Fprintf(p.out, "\n%s %s %d of %d items in %s\n",
		Green("✓"), verb, stats.Success, stats.Total, formatDuration(stats.Duration))
	if p.errors > 0 {
		fmt.Fprintf(p.out, "  %s %d items failed\n", Dim("•"), p.errors)
	}
}

// eta extrapolates from the collections finished so far: the average item
// count per collection times the collections left, at the observed per-item
// rate. It reports false until one collection with items has finished.
func (p *ProgressDisplay) eta() (time.Duration, bool) {
	finished := p.collectionIndex
	if finished == 0 || p.itemsDone == 0 {
		return 0, false
	}

	elapsed := p.now().Sub(p.startTime)
	perItem := elapsed / time.Duration(p.itemsDone)
	avgItems := float64(p.itemsDone) / float64(finished)
	remaining := float64(p.collectionTotal - finished)

	return time.Duration(avgItems * remaining * float64(perItem)), true
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
