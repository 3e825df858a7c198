package processor

import (
	"context"

	"rdtagger/pkg/raindrop"
)

// BookmarkClient defines the Raindrop operations the processor needs
type BookmarkClient interface {
	ListItems(ctx context.Context, collectionID int64, page, perPage int, nested bool) ([]raindrop.Item, error)
	UpdateItemTags(ctx context.Context, itemID int64, tags []string) error
}

// Reporter receives progress as a run advances
type Reporter interface {
	// CollectionStarted is called before the first page of each collection.
	// index is zero-based.
	CollectionStarted(index, total int, collectionID int64)
	// ItemDone is called once per item with the tags that were (or would
	// have been) written. tags is nil for skipped and failed items.
	ItemDone(item raindrop.Item, outcome Outcome, tags []string, err error)
	// Finished is called with the final statistics
	Finished(stats *Stats)
}

// NopReporter ignores all progress
type NopReporter struct{}

func (NopReporter) CollectionStarted(int, int, int64) {}
func (NopReporter) ItemDone(raindrop.Item, Outcome, []string, error) {}
func (NopReporter) Finished(*Stats) {}
