package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/taichungmao-blip/soybean-monitor/internal/monitor"
)

// Scheduler wires the daily monitoring run into cron (seconds syntax).
type Scheduler struct {
	Cron    *cron.Cron
	Monitor *monitor.Monitor
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, m *monitor.Monitor) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Monitor: m,
		Ctx:     ctx,
	}
}

// Register adds the daily task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) dailyTask() {
	log.Info().Msg("running scheduled daily task")
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Minute)
	defer cancel()

	if _, err := s.Monitor.RunOnce(ctx); err != nil {
		if errors.Is(err, monitor.ErrRunInFlight) {
			log.Warn().Msg("scheduled run skipped, another run in flight")
			return
		}
		log.Error().Err(err).Msg("scheduled run failed")
	}
}
