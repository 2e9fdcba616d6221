// Package refresh drives the poll cycle: fetch the realtime feed,
// normalize it, reconcile a new board, and publish it, backing off on
// failures while keeping the last good data on display.
package refresh

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tywenk/mta-times/board"
	"github.com/tywenk/mta-times/clock"
	"github.com/tywenk/mta-times/gtfs"
	"github.com/tywenk/mta-times/gtfsrt"
	"github.com/tywenk/mta-times/metrics"
)

// State is the scheduler's lifecycle phase.
type State int32

const (
	StateInitializing State = iota
	StatePolling
	StateBackoff
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StatePolling:
		return "POLLING"
	case StateBackoff:
		return "BACKOFF"
	case StateShutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// Event describes one state transition, delivered to the optional
// observer callback.
type Event struct {
	State State
	// Cause is the poll error behind a transition into backoff, nil
	// otherwise.
	Cause error
	// Failures is the consecutive failure count at the time of the event.
	Failures int
	// Delay is how long the scheduler will wait before the next poll.
	Delay time.Duration
}

// FetchFunc retrieves raw realtime feed bytes.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Options configure the scheduler.
type Options struct {
	// PollInterval is the wait between successful polls and the base of
	// the failure backoff.
	PollInterval time.Duration
	// FetchTimeout bounds each individual fetch.
	FetchTimeout time.Duration
	// MaxBackoff caps the failure backoff.
	MaxBackoff time.Duration
	// Board holds the reconciliation options applied every cycle; Now is
	// filled in from the clock per cycle.
	Board board.Options
}

// Scheduler owns the refresh loop. It is the board's single writer.
type Scheduler struct {
	idx     *gtfs.Index
	fetch   FetchFunc
	pub     *board.Publisher
	clk     clock.Clock
	opts    Options
	logger  *slog.Logger
	onEvent func(Event)
	met     *metrics.Metrics

	state    atomic.Int32
	failures int
	lastSnap *gtfsrt.Snapshot
}

// New creates a scheduler. logger must not be nil; onEvent and met may
// be.
func New(idx *gtfs.Index, fetch FetchFunc, pub *board.Publisher, clk clock.Clock, opts Options, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		idx:    idx,
		fetch:  fetch,
		pub:    pub,
		clk:    clk,
		opts:   opts,
		logger: logger,
	}
}

// OnEvent registers a state-transition observer. Call before Run.
func (s *Scheduler) OnEvent(fn func(Event)) { s.onEvent = fn }

// WithMetrics attaches instrumentation. Call before Run.
func (s *Scheduler) WithMetrics(m *metrics.Metrics) { s.met = m }

// State returns the current lifecycle phase. Safe to call from any
// goroutine.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Run polls until ctx is cancelled. The first poll happens immediately;
// afterwards the loop waits PollInterval between successes and an
// exponentially growing, capped delay after failures. Run always leaves
// the scheduler in StateShutdown.
func (s *Scheduler) Run(ctx context.Context) {
	s.setState(StateInitializing)
	s.emit(Event{State: StateInitializing})

	for {
		err := s.pollOnce(ctx)
		if ctx.Err() != nil {
			break
		}

		var delay time.Duration
		if err != nil {
			s.failures++
			delay = s.backoffDelay()
			s.setState(StateBackoff)
			s.emit(Event{State: StateBackoff, Cause: err, Failures: s.failures, Delay: delay})
			s.logger.Warn("poll failed",
				"error", err,
				"consecutive_failures", s.failures,
				"retry_in", delay)
		} else {
			s.failures = 0
			delay = s.opts.PollInterval
			s.setState(StatePolling)
			s.emit(Event{State: StatePolling, Delay: delay})
		}
		if s.met != nil {
			s.met.SetConsecutiveFailures(s.failures)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.shutdown()
			return
		case <-timer.C:
		}
	}
	s.shutdown()
}

func (s *Scheduler) shutdown() {
	s.setState(StateShutdown)
	s.emit(Event{State: StateShutdown, Failures: s.failures})
	s.logger.Info("refresh loop stopped")
}

// pollOnce runs one fetch-normalize-reconcile-publish cycle. On failure
// it republishes a board from the last good snapshot so staleness is
// reflected immediately rather than on the next success.
func (s *Scheduler) pollOnce(ctx context.Context) error {
	if s.met != nil {
		s.met.PollStarted()
	}

	fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	data, err := s.fetch(fctx)
	cancel()
	if err == nil {
		var feed *gtfsrt.Feed
		feed, err = gtfsrt.DecodeFeed(data)
		if err == nil {
			snap := gtfsrt.Normalize(feed, s.idx, s.clk.Now())
			s.lastSnap = snap
			if s.met != nil {
				s.met.AddNormalizeSkips(snap.SkippedTrips)
			}
			s.publish(snap)
			return nil
		}
	}

	if s.met != nil {
		s.met.PollFailed()
	}
	// Keep showing the last good snapshot; health degrades on its own as
	// the feed timestamp ages.
	s.publish(s.lastSnap)
	return err
}

func (s *Scheduler) publish(snap *gtfsrt.Snapshot) {
	opts := s.opts.Board
	opts.Now = s.clk.Now()

	start := time.Now()
	b := board.Reconcile(s.idx, snap, opts)
	s.pub.Publish(b)

	if s.met != nil {
		s.met.ObserveReconcile(time.Since(start))
		s.met.SetBoardEntries(len(b.Entries))
		if snap != nil {
			s.met.SetFeedAge(opts.Now.Sub(snap.Timestamp))
		}
	}
}

// backoffDelay doubles from PollInterval per consecutive failure, capped
// at MaxBackoff.
func (s *Scheduler) backoffDelay() time.Duration {
	d := s.opts.PollInterval
	for i := 1; i < s.failures; i++ {
		d *= 2
		if d >= s.opts.MaxBackoff {
			return s.opts.MaxBackoff
		}
	}
	if s.opts.MaxBackoff > 0 && d > s.opts.MaxBackoff {
		return s.opts.MaxBackoff
	}
	return d
}

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
	if s.met != nil {
		s.met.SetSchedulerState(int(st))
	}
}

func (s *Scheduler) emit(e Event) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}
