package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const (
	certificateStaleAfter = 10 * time.Minute
	eventCompletionGrace  = 24 * time.Hour
	jobTimeout            = 2 * time.Minute
)

// Job is one periodic task. Run reports how many rows it touched.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

type InvestmentJobs interface {
	MatureDue(ctx context.Context) (int64, error)
	RetryCertificates(ctx context.Context, staleAfter time.Duration) (int, error)
}

type EventJobs interface {
	CompleteStale(ctx context.Context, grace time.Duration) (int64, error)
}

// Jobs lists the maintenance tasks the API relies on.
func Jobs(investments InvestmentJobs, events EventJobs) []Job {
	return []Job{
		{Name: "investment_maturity", Run: investments.MatureDue},
		{Name: "certificate_retry", Run: func(ctx context.Context) (int64, error) {
			n, err := investments.RetryCertificates(ctx, certificateStaleAfter)
			return int64(n), err
		}},
		{Name: "event_completion", Run: func(ctx context.Context) (int64, error) {
			return events.CompleteStale(ctx, eventCompletionGrace)
		}},
	}
}

// Execute runs j once and logs the outcome.
func (j Job) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	start := time.Now()
	n, err := j.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("job", j.Name).Msg("scheduled job failed")
		return
	}
	ev := log.Debug()
	if n > 0 {
		ev = log.Info()
	}
	ev.Str("job", j.Name).Int64("affected", n).Dur("took", time.Since(start)).Msg("scheduled job done")
}

// Manager runs jobs on a fixed interval. A job never overlaps itself.
type Manager struct {
	scheduler gocron.Scheduler
}

func NewManager(interval time.Duration, jobs []Job) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		_, err := s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(j.Execute),
			gocron.WithName(j.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, err
		}
	}
	return &Manager{scheduler: s}, nil
}

func (m *Manager) Start() {
	m.scheduler.Start()
	log.Info().Int("jobs", len(m.scheduler.Jobs())).Msg("scheduler started")
}

// Stop waits for running jobs to return.
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown")
	}
}
