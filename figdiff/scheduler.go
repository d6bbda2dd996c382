package figdiff

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler repeats runs on a cron expression. A tick that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	runner *Runner
	spec   string
	logger *slog.Logger
	cron   *cron.Cron
}

// NewScheduler validates spec (standard five-field cron, or descriptors
// such as "@hourly").
func NewScheduler(runner *Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("figdiff: schedule %q: %w", spec, err)
	}
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Run blocks until ctx is done, running the runner on every tick, then
// waits for an in-flight run to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("figdiff: schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("figdiff: scheduler started", "schedule", s.spec)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("figdiff: scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("figdiff: scheduled run failed", "error", err)
		return
	}
	pass, fail := res.Counts()
	s.logger.Info("figdiff: scheduled run done", "run_id", res.RunID, "pass", pass, "fail", fail)
}
