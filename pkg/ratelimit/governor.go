package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"rdtagger/pkg/logger"
)

// Limiter is what an API client needs from a rate governor
type Limiter interface {
	// WaitIfNeeded blocks until the next request may be issued, then records it
	WaitIfNeeded(ctx context.Context) error
	// UpdateFromResponse absorbs quota headers from any response
	UpdateFromResponse(header http.Header)
}

// Clock abstracts time so governor and retry waits can be tested without sleeping
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config holds governor thresholds
type Config struct {
	// Window is the trailing span over which requests are counted
	Window time.Duration
	// MaxRequests is how many requests the window may hold before a wait
	MaxRequests int
	// LowRemainingThreshold triggers LowRemainingPause when 0 < remaining < threshold
	LowRemainingThreshold int
	LowRemainingPause     time.Duration
	// DefaultLimit seeds limit and remaining until the service reports real values
	DefaultLimit int
}

// DefaultConfig returns the thresholds used against the Raindrop API
func DefaultConfig() Config {
	return Config{
		Window:                60 * time.Second,
		MaxRequests:           100,
		LowRemainingThreshold: 10,
		LowRemainingPause:     2 * time.Second,
		DefaultLimit:          120,
	}
}

// Snapshot is a read-only view of the governor state
type Snapshot struct {
	Limit     int
	Remaining int
	Reset     time.Time
	InWindow  int
}

// Governor is a sliding-window limiter that also honours the quota the
// remote service reports in its response headers.
//
// Calls are serialized: a caller that has to wait holds the governor until
// its request has been recorded, so the window can never overfill.
type Governor struct {
	mu       sync.Mutex
	cfg      Config
	clock    Clock
	logger   logger.Logger
	limit    int
	remain   int
	reset    time.Time
	requests []time.Time
}

// Option configures a Governor
type Option func(*Governor)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(g *Governor) { g.clock = c }
}

// WithLogger sets the governor's logger
func WithLogger(l logger.Logger) Option {
	return func(g *Governor) { g.logger = l }
}

// NewGovernor creates a governor. Zero-valued config fields take defaults.
func NewGovernor(cfg Config, opts ...Option) *Governor {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.LowRemainingThreshold <= 0 {
		cfg.LowRemainingThreshold = def.LowRemainingThreshold
	}
	if cfg.LowRemainingPause <= 0 {
		cfg.LowRemainingPause = def.LowRemainingPause
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}

	g := &Governor{
		cfg:      cfg,
		clock:    RealClock(),
		limit:    cfg.DefaultLimit,
		remain:   cfg.DefaultLimit,
		requests: make([]time.Time, 0, cfg.MaxRequests),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.GetLogger()
	}
	return g
}

// WaitIfNeeded sleeps when the window is full (until its oldest entry
// would have aged out, plus one second, after which the window is
// cleared) or when the reported remaining quota is nearly spent. The
// request is always recorded.
func (g *Governor) WaitIfNeeded(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	g.prune(now)

	if len(g.requests) >= g.cfg.MaxRequests {
		oldest := g.requests[0]
		wait := g.cfg.Window - now.Sub(oldest) + time.Second
		logger.LogRateLimit(g.logger, "window_full", wait)
		if err := g.clock.Sleep(ctx, wait); err != nil {
			return err
		}
		g.requests = g.requests[:0]
	} else if g.remain > 0 && g.remain < g.cfg.LowRemainingThreshold {
		logger.LogRateLimit(g.logger, "low_remaining", g.cfg.LowRemainingPause)
		if err := g.clock.Sleep(ctx, g.cfg.LowRemainingPause); err != nil {
			return err
		}
	}

	g.requests = append(g.requests, g.clock.Now())
	return nil
}

// UpdateFromResponse reads limit, remaining and reset headers when present.
// Missing or malformed values leave the last known state untouched.
func (g *Governor) UpdateFromResponse(header http.Header) {
	if header == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if v, ok := headerInt(header, "X-RateLimit-Limit", "RateLimit-Limit"); ok {
		g.limit = int(v)
	}
	if v, ok := headerInt(header, "X-RateLimit-Remaining", "RateLimit-Remaining"); ok {
		g.remain = int(v)
	}
	if v, ok := headerInt(header, "X-RateLimit-Reset", "RateLimit-Reset"); ok {
		g.reset = time.Unix(v, 0)
	}
}

// State returns a snapshot of the governor's current view
func (g *Governor) State() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Snapshot{
		Limit:     g.limit,
		Remaining: g.remain,
		Reset:     g.reset,
		InWindow:  len(g.requests),
	}
}

// prune drops timestamps that have left the trailing window
func (g *Governor) prune(now time.Time) {
	i := 0
	for i < len(g.requests) && now.Sub(g.requests[i]) >= g.cfg.Window {
		i++
	}
	if i > 0 {
		copy(g.requests, g.requests[i:])
		g.requests = g.requests[:len(g.requests)-i]
	}
}

// headerInt returns the first parseable integer among the given header names
func headerInt(header http.Header, names ...string) (int64, bool) {
	for _, name := range names {
		raw := strings.TrimSpace(header.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
