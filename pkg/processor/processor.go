package processor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rdtagger/pkg/config"
	"rdtagger/pkg/logger"
	"rdtagger/pkg/raindrop"
	"rdtagger/pkg/retry"
	"rdtagger/pkg/tagger"
)

// Options controls a run
type Options struct {
	// DryRun bypasses the tagger and never writes
	DryRun bool
	// IncludeNested asks the service for items of descendant collections too
	IncludeNested bool
	// SkipThreshold is the tag count at which an item is left alone
	SkipThreshold int
	PerPage       int
	MaxPages      int
	// AIPause follows each successful tagger call
	AIPause time.Duration
	// CollectionPause separates consecutive collections
	CollectionPause time.Duration
	// PlaceholderTags are proposed for every item in a dry run
	PlaceholderTags []string
}

// DefaultOptions returns the standard run settings
func DefaultOptions() Options {
	return Options{
		SkipThreshold:   3,
		PerPage:         raindrop.DefaultPerPage,
		MaxPages:        raindrop.MaxPages,
		AIPause:         500 * time.Millisecond,
		CollectionPause: time.Second,
		PlaceholderTags: tagger.DefaultPlaceholderTags,
	}
}

// OptionsFromConfig maps configuration onto run options
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.DryRun = cfg.Processing.DryRun
	opts.IncludeNested = cfg.Processing.IncludeNested
	if cfg.Processing.SkipThreshold > 0 {
		opts.SkipThreshold = cfg.Processing.SkipThreshold
	}
	if cfg.Raindrop.PageSize > 0 {
		opts.PerPage = cfg.Raindrop.PageSize
	}
	if cfg.Raindrop.MaxPages > 0 {
		opts.MaxPages = cfg.Raindrop.MaxPages
	}
	opts.AIPause = cfg.AI.Pause
	opts.CollectionPause = cfg.Processing.CollectionPause
	if len(cfg.Processing.PlaceholderTags) > 0 {
		opts.PlaceholderTags = cfg.Processing.PlaceholderTags
	}
	return opts
}

// Processor walks collections page by page and tags each eligible item.
// A Processor holds no run state and may be reused.
type Processor struct {
	client   BookmarkClient
	tagger   tagger.Tagger
	opts     Options
	sleep    retry.SleepFunc
	logger   logger.Logger
	reporter Reporter
}

// Option configures a Processor
type Option func(*Processor)

// WithSleep replaces the function used for fixed pauses
func WithSleep(fn retry.SleepFunc) Option {
	return func(p *Processor) { p.sleep = fn }
}

// WithLogger sets the processor's logger
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithReporter sets the progress reporter
func WithReporter(r Reporter) Option {
	return func(p *Processor) { p.reporter = r }
}

// New creates a processor. In a dry run t may be nil; placeholder tags are
// used instead.
func New(client BookmarkClient, t tagger.Tagger, opts Options, options ...Option) *Processor {
	if opts.SkipThreshold <= 0 {
		opts.SkipThreshold = 3
	}
	if opts.DryRun || t == nil {
		t = tagger.Placeholder{Tags: opts.PlaceholderTags}
	}

	p := &Processor{
		client:   client,
		tagger:   t,
		opts:     opts,
		sleep:    retry.Wait,
		reporter: NopReporter{},
	}
	for _, o := range options {
		o(p)
	}
	if p.logger == nil {
		p.logger = logger.GetLogger()
	}
	return p
}

// Run processes the collections in the order given. Item and page failures
// are counted and logged, never returned; the only error is cancellation,
// which comes back together with the counts so far.
func (p *Processor) Run(ctx context.Context, collectionIDs []int64) (*Stats, error) {
	stats := &Stats{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := p.logger.WithField("run_id", stats.RunID)

	logger.LogComponentStart(log, "processor", map[string]interface{}{
		"collections": len(collectionIDs),
		"dry_run":     p.opts.DryRun,
		"nested":      p.opts.IncludeNested,
	})

	finish := func(err error) (*Stats, error) {
		stats.Duration = time.Since(stats.StartedAt)
		logger.LogRunSummary(log, stats.Total, stats.Skipped, stats.Success, stats.Errors, stats.Duration)
		p.reporter.Finished(stats)
		return stats, err
	}

	for i, id := range collectionIDs {
		if i > 0 {
			if err := p.sleep(ctx, p.opts.CollectionPause); err != nil {
				return finish(err)
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		p.reporter.CollectionStarted(i, len(collectionIDs), id)
		if err := p.processCollection(ctx, log, id, stats); err != nil {
			return finish(err)
		}
		stats.Collections++
	}

	return finish(nil)
}

// processCollection pages through one collection. It returns an error only
// when ctx is done.
func (p *Processor) processCollection(ctx context.Context, log logger.Logger, collectionID int64, stats *Stats) error {
	log = log.WithField("collection_id", collectionID)
	pager := raindrop.NewItemPager(p.client, collectionID, raindrop.PagerOptions{
		PerPage:  p.opts.PerPage,
		MaxPages: p.opts.MaxPages,
		Nested:   p.opts.IncludeNested,
	})

	for {
		items, ok, err := pager.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.FetchErrors++
			log.WithError(err).WithField("page", pager.Pages()).Error("Failed to fetch items, moving to next collection")
			return nil
		}
		if !ok {
			break
		}
		stats.Pages++

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}

			outcome, tags, err := p.ProcessItem(ctx, item)
			stats.Record(outcome)
			logger.LogItemOutcome(log, item.ID, item.Title, outcome.String(), tags, err)
			p.reporter.ItemDone(item, outcome, tags, err)
		}
	}

	if pager.Capped() {
		stats.CappedCollections++
		log.WithField("max_pages", p.opts.MaxPages).Warn("Page cap reached, remaining items not processed")
	}
	return nil
}

// ProcessItem applies the skip, tag and write policy to a single item and
// returns the tags written (or that would be written in a dry run).
func (p *Processor) ProcessItem(ctx context.Context, item raindrop.Item) (Outcome, []string, error) {
	if ShouldSkip(item.Tags, p.opts.SkipThreshold) {
		return OutcomeSkipped, nil, nil
	}

	proposed, err := p.tagger.SuggestTags(ctx, tagger.Request{
		Title:        item.Title,
		URL:          item.Link,
		ExistingTags: item.Tags,
	})
	if err != nil {
		return OutcomeFailed, nil, err
	}

	merged := MergeTags(item.Tags, proposed)
	if p.opts.DryRun {
		return OutcomeSimulated, merged, nil
	}

	writeErr := p.client.UpdateItemTags(ctx, item.ID, merged)

	// paces the AI service whether or not the write went through; a
	// cancelled pause is picked up by the caller before the next item
	_ = p.sleep(ctx, p.opts.AIPause)

	if writeErr != nil {
		return OutcomeFailed, nil, writeErr
	}
	return OutcomeTagged, merged, nil
}
