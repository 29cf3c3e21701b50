package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Intervals configures the periodic jobs.
type Intervals struct {
	Autosave       time.Duration
	SceneSample    time.Duration
	PreferencePoll time.Duration
}

// Scheduler drives the session service's periodic work: autosave, scene
// sampling and following external backend preference changes. Jobs never
// overlap with themselves.
type Scheduler struct {
	cron   *cron.Cron
	svc    *SessionService
	source SceneSource
	iv     Intervals
}

func NewScheduler(svc *SessionService, source SceneSource, iv Intervals) *Scheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{cron: c, svc: svc, source: source, iv: iv}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.source != nil && s.iv.SceneSample > 0 {
		if err := s.every(s.iv.SceneSample, "scene sample", func(ctx context.Context) error {
			return s.svc.SampleScene(ctx, s.source)
		}); err != nil {
			return err
		}
	}
	if s.iv.Autosave > 0 {
		if err := s.every(s.iv.Autosave, "autosave", s.svc.Autosave); err != nil {
			return err
		}
	}
	if s.iv.PreferencePoll > 0 {
		if err := s.every(s.iv.PreferencePoll, "preference poll", s.svc.PollPreferences); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("[scheduler] started (autosave every %s)", s.iv.Autosave)
	return nil
}

func (s *Scheduler) every(d time.Duration, name string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", d), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := job(ctx); err != nil {
			log.Printf("[scheduler] %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return nil
}

// Stop halts the runner, waits for running jobs, then applies any pending
// scene and flushes unsaved changes once more.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.source != nil {
		if err := s.svc.SampleScene(ctx, s.source); err != nil {
			log.Printf("[scheduler] final scene sample failed: %v", err)
		}
	}
	if err := s.svc.Autosave(ctx); err != nil && !errors.Is(err, ErrNoBackend) {
		return fmt.Errorf("final save: %w", err)
	}
	log.Println("[scheduler] stopped")
	return nil
}
