package nvd

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the collector periodically on a cron schedule.
type Scheduler struct {
	collector *Collector
	schedule  string
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewScheduler creates a scheduler for the given collector. The schedule is
// a standard five-field cron expression or a descriptor such as "@hourly".
func NewScheduler(collector *Collector, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		collector: collector,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start begins scheduled collection. Runs overlap-protected: a tick is
// skipped while the previous run is still in flight.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.collector.Collect(ctx); err != nil {
			s.logger.Error("scheduled NVD collection failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("NVD collection scheduled", "schedule", s.schedule)
	return nil
}

// Stop halts scheduled collection, waiting for a running collection to
// finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
