/*
scheduler.go - Automated end-of-day archive scheduler

PURPOSE:
  Periodically archives and clears the active logs under the current
  calendar day, so a long-running server does not depend on an operator
  calling POST /api/archives.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each tick archives under inventory.DateOf(now)
  - Failures are logged and retried on the next tick only

CONFIGURATION:
  - Interval: INVENTORY_ARCHIVE_INTERVAL (0 disables the scheduler)

USAGE:
  scheduler := NewArchiveScheduler(ledger, 24*time.Hour, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Archive endpoint (manual archive)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/logger"
)

// ArchiveScheduler archives the active logs on a fixed interval.
type ArchiveScheduler struct {
	Ledger   inventory.Ledger
	Interval time.Duration
	Logger   *logger.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewArchiveScheduler creates a new scheduler. It does nothing until Start.
func NewArchiveScheduler(ledger inventory.Ledger, interval time.Duration, log *logger.Logger) *ArchiveScheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &ArchiveScheduler{
		Ledger:   ledger,
		Interval: interval,
		Logger:   log,
		now:      time.Now,
	}
}

// Enabled reports whether Start will launch the loop.
func (s *ArchiveScheduler) Enabled() bool {
	return s.Interval > 0
}

// Start begins the scheduler.
func (s *ArchiveScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.Logger.WithField(context.Background(), "component", "archive_scheduler")
	if !s.Enabled() {
		s.Logger.Info(ctx, "scheduler disabled")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(ctx, s.ticker.C, s.stop)

	s.Logger.Info(s.Logger.WithField(ctx, "interval", s.Interval.String()), "scheduler started")
}

// Stop stops the scheduler and waits for an in-flight run.
func (s *ArchiveScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
	}
}

func (s *ArchiveScheduler) run(ctx context.Context, tick <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-tick:
			s.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}

// RunOnce archives the active logs under today's date.
func (s *ArchiveScheduler) RunOnce(ctx context.Context) (inventory.ArchiveCounts, error) {
	counts, err := s.Ledger.ArchiveAndClearDailyLogs(ctx, inventory.DateOf(s.now()))
	if err != nil {
		s.Logger.Error(ctx, "scheduled archive failed", err)
		return counts, err
	}

	s.Logger.Info(s.Logger.WithFields(ctx, map[string]any{
		"date":      inventory.FormatDate(counts.Date),
		"additions": counts.Additions,
		"sales":     counts.Sales,
	}), "scheduled archive complete")
	return counts, nil
}
