package processor

import "time"

// Outcome is the terminal state of one item
type Outcome int

const (
	// OutcomeSkipped means the item already had enough tags
	OutcomeSkipped Outcome = iota
	// OutcomeTagged means new tags were merged and written
	OutcomeTagged
	// OutcomeSimulated means a dry run produced placeholder tags without writing
	OutcomeSimulated
	// OutcomeFailed means the AI call or the write failed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeTagged:
		return "tagged"
	case OutcomeSimulated:
		return "simulated"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats accumulates counts for one run
type Stats struct {
	RunID string

	Total   int
	Skipped int
	// Success counts tagged items, and simulated items in a dry run
	Success int
	Errors  int

	Collections int
	Pages       int
	// FetchErrors counts collections abandoned because a page could not be read
	FetchErrors int
	// CappedCollections counts collections that hit the page cap
	CappedCollections int

	StartedAt time.Time
	Duration  time.Duration
}

// Record counts one item outcome
func (s *Stats) Record(o Outcome) {
	s.Total++
	switch o {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeTagged, OutcomeSimulated:
		s.Success++
	case OutcomeFailed:
		s.Errors++
	}
}

// Add folds other's counters into s
func (s *Stats) Add(other *Stats) {
	if other == nil {
		return
	}
	s.Total += other.Total
	s.Skipped += other.Skipped
	s.Success += other.Success
	s.Errors += other.Errors
	s.Collections += other.Collections
	s.Pages += other.Pages
	s.FetchErrors += other.FetchErrors
	s.CappedCollections += other.CappedCollections
	s.Duration += other.Duration
}
