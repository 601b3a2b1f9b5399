package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"InvestArena/internal/store"
)

// Source provides the state the periodic jobs work on.
type Source interface {
	Snapshot() *store.Snapshot
	Resync(ctx context.Context) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron         *cron.Cron
	Source       Source
	SnapshotFile string
	Ctx          context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, src Source, snapshotFile string) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Source:       src,
		SnapshotFile: snapshotFile,
		Ctx:          ctx,
	}
}

// RegisterAll registers the snapshot task and, when resyncCron is set, the
// spreadsheet resync task.
func (s *Scheduler) RegisterAll(snapshotCron, resyncCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	if resyncCron != "" {
		if _, err := s.Cron.AddFunc(resyncCron, s.resyncTask); err != nil {
			return fmt.Errorf("register resync task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// SnapshotNow writes a snapshot immediately, e.g. on shutdown.
func (s *Scheduler) SnapshotNow() error {
	return store.WriteSnapshot(s.SnapshotFile, s.Source.Snapshot())
}

func (s *Scheduler) snapshotTask() {
	if err := s.SnapshotNow(); err != nil {
		log.Error().Err(err).Str("file", s.SnapshotFile).Msg("write snapshot")
		return
	}
	log.Debug().Str("file", s.SnapshotFile).Msg("snapshot written")
}

func (s *Scheduler) resyncTask() {
	if err := s.Source.Resync(s.Ctx); err != nil {
		log.Error().Err(err).Msg("mirror resync")
	}
}
