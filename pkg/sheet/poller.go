package sheet

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// EventPillDetected is the trigger event type pushed to subscribers.
const EventPillDetected = "pillDetected"

// eventTimeLayout matches the ISO 8601 form the mobile client parses
// (internet date-time with fractional seconds).
const eventTimeLayout = "2006-01-02T15:04:05.000Z"

// Event is one trigger firing, broadcast verbatim to every subscriber.
type Event struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Entry     Record `json:"entry"`
}

// LatestFetcher is the slice of Fetcher the poller depends on.
type LatestFetcher interface {
	FetchLatest(ctx context.Context, sheetID, gid string) (Record, bool)
}

// EventSink receives trigger events. Satisfied by hub.Hub.
type EventSink interface {
	BroadcastJSON(event string, v any) error
}

// Poller owns the polling state: the last known good record, when it
// was fetched, and when the trigger last fired. Each tick fetches the
// latest record, replaces the cache, and evaluates the trigger
// predicate. Ticks never overlap; a slow fetch delays the next tick.
type Poller struct {
	fetcher  LatestFetcher
	sink     EventSink
	sheetID  string
	gid      string
	interval time.Duration
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	entry     Record
	fetchedAt time.Time
	lastFired time.Time
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollLogger sets the structured logger.
func WithPollLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a poller for the given sheet.
func NewPoller(fetcher LatestFetcher, sink EventSink, sheetID, gid string, interval, cooldown time.Duration, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		sink:     sink,
		sheetID:  sheetID,
		gid:      gid,
		interval: interval,
		cooldown: cooldown,
		logger:   slog.Default().With("component", "sheet.poller"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ticks until the context is cancelled. Call in a goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("sheet polling started",
		"sheet_id", p.sheetID,
		"gid", p.gid,
		"interval", p.interval,
		"cooldown", p.cooldown,
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("sheet polling stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick performs one poll: fetch, cache, evaluate trigger. A failed
// fetch leaves the previous record in place; stale-but-available data
// beats no data.
func (p *Poller) Tick(ctx context.Context) {
	rec, ok := p.fetcher.FetchLatest(ctx, p.sheetID, p.gid)
	if !ok {
		return
	}

	now := p.now()

	p.mu.Lock()
	p.entry = rec
	p.fetchedAt = now
	fire := hasZeroValue(rec) && now.Sub(p.lastFired) >= p.cooldown
	if fire {
		p.lastFired = now
	}
	p.mu.Unlock()

	if !fire {
		return
	}

	ev := Event{
		Type:      EventPillDetected,
		Timestamp: now.UTC().Format(eventTimeLayout),
		Entry:     rec,
	}
	if err := p.sink.BroadcastJSON(ev.Type, ev); err != nil {
		p.logger.Warn("trigger broadcast failed", "error", err)
		return
	}
	p.logger.Info("pill detected", "entry", rec)
}

// Snapshot returns the cached record and fetch time. The bool reports
// whether any record has been cached yet.
func (p *Poller) Snapshot() (Record, time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.entry, p.fetchedAt, p.entry != nil
}

// SheetID returns the configured sheet identifier.
func (p *Poller) SheetID() string { return p.sheetID }

// GID returns the configured tab identifier.
func (p *Poller) GID() string { return p.gid }

// hasZeroValue reports whether any field equals the literal "0" after
// trimming. This is the external pill-detector convention: a count
// column decremented to zero marks a dispensed pill.
func hasZeroValue(rec Record) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) == "0" {
			return true
		}
	}
	return false
}
