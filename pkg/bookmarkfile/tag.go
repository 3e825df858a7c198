package bookmarkfile

import (
	"context"
	"time"

	"rdtagger/pkg/processor"
	"rdtagger/pkg/retry"
	"rdtagger/pkg/tagger"
)

// TagOptions controls tagging of a bookmarks file
type TagOptions struct {
	SkipThreshold int
	// Pause follows each successful tagger call
	Pause time.Duration
	Sleep retry.SleepFunc
	// OnItem is called after each bookmark is handled. index is zero-based.
	OnItem func(index, total int, b Bookmark, outcome processor.Outcome, err error)
}

// Tag proposes tags for each bookmark in place, applying the same skip and
// merge policy as a Raindrop run. Failures leave the bookmark's tags as
// they were. Only cancellation stops the loop early.
func Tag(ctx context.Context, bookmarks []Bookmark, t tagger.Tagger, opts TagOptions) (*processor.Stats, error) {
	if opts.SkipThreshold <= 0 {
		opts.SkipThreshold = 3
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}

	stats := &processor.Stats{StartedAt: time.Now()}
	defer func() { stats.Duration = time.Since(stats.StartedAt) }()

	for i := range bookmarks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		b := &bookmarks[i]
		outcome, err := tagOne(ctx, b, t, opts)
		stats.Record(outcome)
		if opts.OnItem != nil {
			opts.OnItem(i, len(bookmarks), *b, outcome, err)
		}

		if outcome == processor.OutcomeTagged && i < len(bookmarks)-1 {
			_ = opts.Sleep(ctx, opts.Pause)
		}
	}
	return stats, nil
}

func tagOne(ctx context.Context, b *Bookmark, t tagger.Tagger, opts TagOptions) (processor.Outcome, error) {
	if processor.ShouldSkip(b.Tags, opts.SkipThreshold) {
		return processor.OutcomeSkipped, nil
	}

	proposed, err := t.SuggestTags(ctx, tagger.Request{Title: b.Title, URL: b.URL, ExistingTags: b.Tags})
	if err != nil {
		return processor.OutcomeFailed, err
	}
	b.Tags = processor.MergeTags(b.Tags, proposed)
	return processor.OutcomeTagged, nil
}
