package ingest

import (
	"context"
	"time"

	"github.com/alitto/pond"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lifeband/edgeai/internal/vitals"
)

// Assessor runs all detectors over a sample. *detect.Engine satisfies it.
type Assessor interface {
	Assess(ctx context.Context, s vitals.Sample) vitals.Assessment
}

// MonitorConfig controls the evaluation schedule.
type MonitorConfig struct {
	Schedule   string        // cron spec, ex: @every 1s
	Workers    int           // concurrent assessments per tick
	StaleAfter time.Duration // samples older than this are skipped
}

// Monitor periodically assesses the latest sample of every device.
type Monitor struct {
	cfg    MonitorConfig
	engine Assessor
	latest *Latest
	report func(vitals.Assessment)
	log    zerolog.Logger
	now    func() time.Time
}

// NewMonitor creates a monitor. report is called once per assessed sample,
// possibly from several goroutines at once.
func NewMonitor(cfg MonitorConfig, engine Assessor, latest *Latest, report func(vitals.Assessment), log zerolog.Logger) *Monitor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Monitor{
		cfg:    cfg,
		engine: engine,
		latest: latest,
		report: report,
		log:    log,
		now:    time.Now,
	}
}

// Run schedules ticks and blocks until ctx is done. A tick that is still
// running when the next one fires causes that one to be skipped.
func (m *Monitor) Run(ctx context.Context) error {
	pool := pond.New(m.cfg.Workers, m.cfg.Workers*16)
	defer pool.StopAndWait()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(m.cfg.Schedule, func() { m.tick(ctx, pool) }); err != nil {
		return err
	}

	m.log.Info().Str("schedule", m.cfg.Schedule).Int("workers", m.cfg.Workers).Msg("monitor started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	m.log.Info().Msg("monitor stopped")
	return nil
}

// Tick assesses every fresh sample once, using a temporary worker pool.
// It returns the number of samples assessed.
func (m *Monitor) Tick(ctx context.Context) int {
	pool := pond.New(m.cfg.Workers, m.cfg.Workers*16)
	defer pool.StopAndWait()
	return m.tick(ctx, pool)
}

func (m *Monitor) tick(ctx context.Context, pool *pond.WorkerPool) int {
	samples := m.latest.Drain(m.now(), m.cfg.StaleAfter)
	if len(samples) == 0 {
		return 0
	}

	group := pool.Group()
	for _, s := range samples {
		s := s
		group.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			m.report(m.engine.Assess(ctx, s))
		})
	}
	group.Wait()

	m.log.Debug().Int("devices", len(samples)).Msg("tick complete")
	return len(samples)
}
