// Package poller turns the ledger's paged event query into a live stream of
// decoded game events.
//
// Each tick fetches the latest ledger sequence and skips the tick when
// nothing advanced. The first fetch covers a small bootstrap window of
// recent ledgers; afterwards fetches resume strictly after the stored
// pagination cursor, so consumed ranges are never re-requested. Events are
// decoded and published downstream in remote arrival order before the
// cursor advances past them.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/farklezone/farkle-client/internal/domain"
	"github.com/farklezone/farkle-client/internal/event"
	"github.com/farklezone/farkle-client/internal/ledger"
	"github.com/farklezone/farkle-client/internal/logger"
	"github.com/farklezone/farkle-client/internal/metrics"
	"github.com/farklezone/farkle-client/internal/scheduler"
)

// Poller polls the ledger for contract events and publishes decoded events
// to the bus. A poller watches one match's players and is not restartable:
// once stopped, create a new one.
type Poller struct {
	client   ledger.QueryClient
	filter   ledger.EventFilter
	bus      event.Bus
	sched    *scheduler.Scheduler
	interval time.Duration

	mu      sync.Mutex
	lastSeq uint32
	cursor  string
	seen    *lru.Cache[string, struct{}]
	handle  *scheduler.Handle
	started bool
	stopped bool
}

// New creates a poller watching the given players on the given contract.
func New(client ledger.QueryClient, filter ledger.EventFilter, bus event.Bus, sched *scheduler.Scheduler, interval time.Duration) (*Poller, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	seen, err := lru.New[string, struct{}](SeenCacheSize)
	if err != nil {
		return nil, err
	}
	return &Poller{
		client:   client,
		filter:   filter,
		bus:      bus,
		sched:    sched,
		interval: interval,
		seen:     seen,
	}, nil
}

// Start begins ticking. The produced stream is infinite and non-restartable:
// starting twice, or after Stop, is an error.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return errors.New(ErrMsgNotRestartable)
	}
	p.started = true
	p.handle = p.sched.Schedule(ctx, p.interval, func(ctx context.Context) {
		p.Tick(ctx)
	})
	return nil
}

// Stop ceases future ticks. A tick already in progress completes; no
// partial-tick cancellation is needed since ticks are short polls.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.handle != nil {
		p.handle.Stop()
	}
}

// Tick performs one poll. Transient failures are swallowed and retried on
// the next tick; decode failures are logged and the event skipped. Exported
// so tests can drive the poller without timers.
func (p *Poller) Tick(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := logger.FromContext(ctx)

	seq, err := p.client.GetLatestLedgerSequence(ctx)
	if err != nil {
		metrics.PollFailures.Inc()
		log.Debug(LogMsgLatestLedgerFailed, "error", err)
		return
	}

	if p.lastSeq != 0 && seq <= p.lastSeq {
		metrics.PollSkips.Inc()
		return
	}
	prevSeq := p.lastSeq
	p.lastSeq = seq

	var page ledger.EventPage
	if p.cursor == "" {
		start := uint32(1)
		if seq > BootstrapLedgerWindow {
			start = seq - BootstrapLedgerWindow
		}
		page, err = p.client.GetEvents(ctx, p.filter, "", start, FetchLimit)
	} else {
		page, err = p.client.GetEvents(ctx, p.filter, p.cursor, 0, FetchLimit)
	}
	if err != nil {
		// Roll the sequence watermark back so the next tick retries
		// instead of skipping on an unchanged ledger.
		p.lastSeq = prevSeq
		metrics.PollFailures.Inc()
		log.Warn(LogMsgFetchFailed, "error", fmt.Errorf("%w: %v", domain.ErrNetworkTransient, err))
		return
	}

	metrics.PollsTotal.Inc()

	for _, raw := range page.Events {
		if _, dup := p.seen.Get(raw.ID); dup {
			metrics.DuplicateEvents.Inc()
			continue
		}

		ev, err := event.Decode(raw)
		if err != nil {
			// Fatal for this event only, never for the stream.
			metrics.DecodeFailures.Inc()
			log.Warn(LogMsgDecodeFailed, "event_id", raw.ID, "ledger", raw.LedgerSeq, "error", err)
			p.seen.Add(raw.ID, struct{}{})
			continue
		}

		metrics.EventsDecoded.WithLabelValues(string(ev.Kind())).Inc()
		if err := p.bus.Publish(ctx, ev); err != nil {
			log.Error(LogMsgPublishFailed, "event_id", raw.ID, "kind", ev.Kind(), "error", err)
		}
		p.seen.Add(raw.ID, struct{}{})
	}

	// Advance the cursor only after every event in the page was emitted.
	if page.Cursor != "" {
		p.cursor = page.Cursor
	}
}
