package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const DefaultRecomputeSpec = "@every 15m"

type recomputeJob struct {
	engine  cycleRunner
	timeout time.Duration
}

func (j recomputeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.engine.Recompute(ctx); err != nil {
		log.Errorf("scheduled ranking cycle failed: %s", err)
	}
}

// Scheduler runs ranking cycles periodically. A scheduled cycle is skipped while
// the previous scheduled one is still running.
type Scheduler struct {
	runner *cron.Cron
}

// NewScheduler registers the recompute job on spec (seconds field optional,
// descriptors like @every are accepted). An empty spec gives a disabled scheduler.
func NewScheduler(engine cycleRunner, spec string, timeout time.Duration) (*Scheduler, error) {
	if spec == "" {
		return &Scheduler{}, nil
	}

	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
		)),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddJob(spec, recomputeJob{engine: engine, timeout: timeout}); err != nil {
		return nil, fmt.Errorf("register recompute job [%s]: %w", spec, err)
	}
	return &Scheduler{runner: c}, nil
}

func (s *Scheduler) Enabled() bool {
	return s.runner != nil
}

func (s *Scheduler) Start() {
	if !s.Enabled() {
		log.Info("ranking scheduler disabled")
		return
	}
	log.Info("ranking scheduler started")
	s.runner.Start()
}

// Stop stops scheduling and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	if !s.Enabled() {
		return
	}
	<-s.runner.Stop().Done()
	log.Info("ranking scheduler stopped")
}
