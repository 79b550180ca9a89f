package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/priyanshu1258/Hackathon/services/api/db"
	"github.com/priyanshu1258/Hackathon/services/api/metrics"
)

const (
	minResubscribeDelay = 500 * time.Millisecond
	maxResubscribeDelay = 30 * time.Second
	publishTimeout      = 5 * time.Second
)

// Feed is the store's change subscription.
type Feed interface {
	Listen(ctx context.Context, fn func(db.Change)) error
}

// Sink receives every update the notifier forwards. Publish must not block
// for long; it runs on the feed's delivery path.
type Sink interface {
	Name() string
	Publish(ctx context.Context, u Update) error
}

// Notifier holds the single process-wide change subscription and fans each
// change out to its sinks.
type Notifier struct {
	feed  Feed
	sinks []Sink
	log   *slog.Logger
}

// NewNotifier returns a notifier forwarding feed changes to sinks. A nil
// logger uses slog.Default().
func NewNotifier(feed Feed, logger *slog.Logger, sinks ...Sink) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{feed: feed, sinks: sinks, log: logger}
}

// Run subscribes to the feed and blocks until ctx is done. A failed
// subscription is retried with exponential backoff.
func (n *Notifier) Run(ctx context.Context) {
	delay := minResubscribeDelay
	for {
		started := time.Now()
		n.log.Info("subscribing to change feed")
		err := n.feed.Listen(ctx, func(c db.Change) { n.dispatch(ctx, c) })
		if ctx.Err() != nil {
			n.log.Info("change feed closed")
			return
		}

		if time.Since(started) > maxResubscribeDelay {
			delay = minResubscribeDelay
		}
		n.log.Warn("change feed failed, resubscribing", "err", err, "in", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		delay *= 2
		if delay > maxResubscribeDelay {
			delay = maxResubscribeDelay
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, c db.Change) {
	u := Update{Category: c.Category, Data: c.Entry}
	for _, s := range n.sinks {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := s.Publish(pubCtx, u)
		cancel()
		metrics.UpdatePublished(s.Name(), err)
		if err != nil {
			n.log.Error("publish update failed", "sink", s.Name(), "category", c.Category, "building", c.Building, "err", err)
		}
	}
}
