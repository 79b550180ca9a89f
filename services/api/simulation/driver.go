// Package simulation runs the periodic sweep that generates one reading per
// (category, building) pair and writes it to the store.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/priyanshu1258/Hackathon/services/api/metrics"
	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

const (
	defaultInterval    = 10 * time.Second
	defaultCallTimeout = 5 * time.Second
)

// ErrAlreadyRunning is returned by Start on a driver that has not been stopped.
var ErrAlreadyRunning = errors.New("simulation already running")

// Gateway is the write side of the reading store.
type Gateway interface {
	Append(ctx context.Context, c reading.Category, b reading.Building, r reading.Reading) (string, error)
	SetLatest(ctx context.Context, c reading.Category, b reading.Building, snap reading.Snapshot) error
}

// Trimmer is implemented by stores that support log retention.
type Trimmer interface {
	Trim(ctx context.Context, c reading.Category, b reading.Building, keep int) (int64, error)
}

// Config tunes a Driver. Zero values select the defaults.
type Config struct {
	Interval time.Duration
	// CallTimeout bounds every single store call.
	CallTimeout time.Duration
	// RetainPerPair caps each pair's log after every append; 0 keeps everything.
	RetainPerPair int
	Clock         func() time.Time
}

// TickResult summarises one sweep.
type TickResult struct {
	TS       int64
	Written  int
	Failed   int
	Readings []reading.Reading
}

// Driver owns the generation timer. Create it with New, then Start and Stop it.
type Driver struct {
	store Gateway
	gen   *reading.Generator
	cfg   Config
	log   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a driver writing to store. A nil logger uses slog.Default().
func New(store Gateway, gen *reading.Generator, cfg Config, logger *slog.Logger) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{store: store, gen: gen, cfg: cfg, log: logger}
}

// Tick runs one sweep over every pair. All readings of a sweep share one
// timestamp. A pair whose writes fail is logged and skipped.
func (d *Driver) Tick(ctx context.Context) TickResult {
	start := time.Now()
	ts := d.cfg.Clock().UnixMilli()
	res := TickResult{
		TS:       ts,
		Readings: make([]reading.Reading, 0, len(reading.Categories)*len(reading.Buildings)),
	}

	for _, c := range reading.Categories {
		for _, b := range reading.Buildings {
			if ctx.Err() != nil {
				d.log.Warn("tick interrupted", "ts", ts, "written", res.Written)
				return res
			}

			r := d.gen.Generate(c, b, ts)
			res.Readings = append(res.Readings, r)
			if err := d.persist(ctx, c, b, r); err != nil {
				res.Failed++
				d.log.Error("persist reading failed", "category", c, "building", b, "err", err)
				continue
			}
			res.Written++
			metrics.ReadingWritten(string(c))
		}
	}

	dur := time.Since(start)
	metrics.ObserveTick(dur)
	d.log.Info("tick complete", "ts", ts, "written", res.Written, "failed", res.Failed, "took", dur.Truncate(time.Millisecond).String())
	return res
}

func (d *Driver) persist(ctx context.Context, c reading.Category, b reading.Building, r reading.Reading) error {
	callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	id, err := d.store.Append(callCtx, c, b, r)
	cancel()
	if err != nil {
		metrics.PersistenceFailed("append")
		return fmt.Errorf("append: %w", err)
	}

	callCtx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
	err = d.store.SetLatest(callCtx, c, b, r.Snapshot())
	cancel()
	if err != nil {
		metrics.PersistenceFailed("set_latest")
		return fmt.Errorf("set latest after %s: %w", id, err)
	}

	if d.cfg.RetainPerPair > 0 {
		if t, ok := d.store.(Trimmer); ok {
			callCtx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
			removed, err := t.Trim(callCtx, c, b, d.cfg.RetainPerPair)
			cancel()
			if err != nil {
				// The reading itself is stored; retention catches up next tick.
				metrics.PersistenceFailed("trim")
				d.log.Warn("trim failed", "category", c, "building", b, "err", err)
			} else if removed > 0 {
				d.log.Debug("trimmed log", "category", c, "building", b, "removed", removed)
			}
		}
	}
	return nil
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is done.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.loop(ctx, d.done)
	return nil
}

func (d *Driver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(d.cfg.Interval)
	defer t.Stop()
	d.log.Info("simulation started", "interval", d.cfg.Interval.String())

	d.Tick(ctx)
	for {
		select {
		case <-t.C:
			d.Tick(ctx)
		case <-ctx.Done():
			d.log.Info("simulation stopped")
			return
		}
	}
}

// Stop cancels the loop and waits for the running sweep to return.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}
