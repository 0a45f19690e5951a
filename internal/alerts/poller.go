package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/logger"
	"github.com/halvden/surveillance-ai/dashboard-client/internal/metrics"
	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

// DefaultPollInterval matches the reference dashboard's 1 second feed poll.
const DefaultPollInterval = time.Second

// NewAlertsFunc is notified with the newly observed alerts after each
// successful poll. Alerts have no server id, so "new" means the items
// beyond the previous snapshot's length.
type NewAlertsFunc func([]types.Alert)

// Poller fetches the alert list at a fixed interval and reconciles it into
// the store. Fetches are strictly single-flight: the fetch runs on the
// poll loop itself, and a tick that fires while a fetch is in flight is
// skipped, never queued.
type Poller struct {
	client   *resty.Client
	interval time.Duration
	store    *Store
	onNew    NewAlertsFunc
	mtr      *metrics.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	prevLen int
}

// NewPoller creates a poller bound to the store. interval <= 0 selects the
// default. onNew may be nil.
func NewPoller(client *resty.Client, interval time.Duration, store *Store, onNew NewAlertsFunc, mtr *metrics.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		store:    store,
		onNew:    onNew,
		mtr:      mtr,
	}
}

// Start launches the poll loop. Calling Start on a running poller is a
// no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	p.done = done

	logger.Info("AlertPoller", "polling every %v", p.interval)
	go p.run(ctx, done)
}

// Stop halts the loop and waits for it to exit. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
			// Drop the tick that may have fired during a slow fetch so a
			// backend stall never queues up extra requests.
			select {
			case <-ticker.C:
				if p.mtr != nil {
					p.mtr.PollsSkipped.Add(1)
				}
			default:
			}
		}
	}
}

// poll issues one fetch and reconciles the result. Any failure keeps the
// currently displayed list; the next tick simply tries again.
func (p *Poller) poll(ctx context.Context) {
	var snapshot []types.Alert
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&snapshot).
		Get("/api/alerts")

	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("AlertPoller", "fetch failed: %v", err)
		}
		if p.mtr != nil {
			p.mtr.PollFailures.Add(1)
		}
		return
	}
	if resp.IsError() {
		logger.Warn("AlertPoller", "fetch failed: %s", resp.Status())
		if p.mtr != nil {
			p.mtr.PollFailures.Add(1)
		}
		return
	}

	var fresh []types.Alert
	if len(snapshot) > p.prevLen {
		fresh = snapshot[p.prevLen:]
	}
	p.prevLen = len(snapshot)

	p.store.SetAlerts(snapshot)

	if p.mtr != nil {
		p.mtr.PollSuccesses.Add(1)
		p.mtr.AlertsSeen.Add(uint64(len(fresh)))
	}
	if len(fresh) > 0 {
		logger.Info("AlertPoller", "%d new alert(s)", len(fresh))
		if p.onNew != nil {
			p.onNew(fresh)
		}
	}
}
