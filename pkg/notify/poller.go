package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rubiojr/estatedesk/pkg/backend"
	"github.com/rubiojr/estatedesk/pkg/log"
)

// Publisher receives unread counter changes. *realtime.Hub satisfies it.
type Publisher interface {
	PublishUnread(unread, total int)
}

// StatsSource is what the poller reads.
type StatsSource interface {
	NotificationStats(ctx context.Context) (backend.NotificationStats, error)
}

// Poller refreshes the notification counters on an interval and publishes
// them whenever they change.
type Poller struct {
	source    StatsSource
	publisher Publisher
	interval  time.Duration
	logger    *log.Logger

	mu      sync.Mutex
	last    backend.NotificationStats
	hasLast bool
}

func NewPoller(source StatsSource, publisher Publisher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		source:    source,
		publisher: publisher,
		interval:  interval,
		logger:    log.ForService("notify-poller"),
	}
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Infof("polling notification stats every %s", p.interval)
	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Debugf("poller stopped")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll fetches the counters once and reports whether they were published.
func (p *Poller) Poll(ctx context.Context) bool {
	stats, err := p.source.NotificationStats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warnf("polling notification stats: %v", err)
		}
		return false
	}

	p.mu.Lock()
	changed := !p.hasLast || stats != p.last
	p.last = stats
	p.hasLast = true
	p.mu.Unlock()

	if !changed {
		return false
	}
	p.logger.Debugf("unread notifications: %d of %d", stats.Unread, stats.Total)
	p.publisher.PublishUnread(stats.Unread, stats.Total)
	return true
}

// Last returns the most recently polled counters.
func (p *Poller) Last() (backend.NotificationStats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasLast
}
