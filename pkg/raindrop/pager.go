package raindrop

import "context"

// ItemLister fetches one page of a collection
type ItemLister interface {
	ListItems(ctx context.Context, collectionID int64, page, perPage int, nested bool) ([]Item, error)
}

// PagerOptions controls how a collection is paged
type PagerOptions struct {
	PerPage  int
	MaxPages int
	Nested   bool
}

// ItemPager walks a collection page by page starting at page 0. It stops
// at the first empty page or after MaxPages requests, whichever is first.
type ItemPager struct {
	lister       ItemLister
	collectionID int64
	opts         PagerOptions
	page         int
	done         bool
	capped       bool
}

// NewItemPager creates a pager over one collection
func NewItemPager(lister ItemLister, collectionID int64, opts PagerOptions) *ItemPager {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = MaxPages
	}
	return &ItemPager{lister: lister, collectionID: collectionID, opts: opts}
}

// Next returns the next non-empty page. ok is false once the collection is
// exhausted or the page cap is reached; a fetch error also ends paging.
func (p *ItemPager) Next(ctx context.Context) (items []Item, ok bool, err error) {
	if p.done {
		return nil, false, nil
	}
	if p.page >= p.opts.MaxPages {
		p.done = true
		p.capped = true
		return nil, false, nil
	}

	items, err = p.lister.ListItems(ctx, p.collectionID, p.page, p.opts.PerPage, p.opts.Nested)
	if err != nil {
		p.done = true
		return nil, false, err
	}
	p.page++

	if len(items) == 0 {
		p.done = true
		return nil, false, nil
	}
	return items, true, nil
}

// Pages returns how many page requests have succeeded so far
func (p *ItemPager) Pages() int { return p.page }

// Capped reports whether paging stopped at the page cap rather than an empty page
func (p *ItemPager) Capped() bool { return p.capped }
