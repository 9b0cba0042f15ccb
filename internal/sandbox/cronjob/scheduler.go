package cronjob

import (
	"context"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/sandbox/domain"
)

// DefaultSpec runs the sweep every 15 minutes (seconds field included).
const DefaultSpec = "0 */15 * * * *"

type Sweeper interface {
	Sweep(ctx context.Context) (*domain.SweepResult, error)
}

// Scheduler runs the file-expiry sweep on a cron spec. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	sweeper Sweeper
	spec    string
	timeout time.Duration
	cron    *cron.Cron
	running sync.Mutex
}

func NewScheduler(sweeper Sweeper, spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		sweeper: sweeper,
		spec:    spec,
		timeout: 5 * time.Minute,
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}
	log.Info().Str("spec", s.spec).Msg("sandbox sweep scheduler started")
	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) RunOnce() {
	if !s.running.TryLock() {
		log.Warn().Msg("sandbox sweep still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	ctx = logging.WithRequestID(ctx, "sweep-"+time.Now().UTC().Format("20060102T150405"))

	if _, err := s.sweeper.Sweep(ctx); err != nil {
		logging.New(ctx).LogError("sandbox.sweep", err)
	}
}
