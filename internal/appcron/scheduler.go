// Package appcron spreads the auto-blog candidates over each editorial
// cycle and triggers their pipeline runs.
package appcron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorstation/editorial/internal/editorial"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/news"
	"github.com/creatorstation/editorial/internal/store"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const runTimeout = 4 * time.Minute

type CandidateSource interface {
	ListAutoBlogCandidates(ctx context.Context) ([]models.Candidate, error)
	GetSettings(ctx context.Context) (store.Settings, error)
}

type Runner interface {
	Run(ctx context.Context, req editorial.RunRequest) (*editorial.RunResult, error)
}

// Scheduled is one candidate run placed inside a cycle.
type Scheduled struct {
	CandidateID  string        `json:"candidate_id"`
	Delay        time.Duration `json:"-"`
	DelaySeconds int64         `json:"delay_seconds"`
}

// Cycle reports what one cycle scheduled.
type Cycle struct {
	Key       string      `json:"cycle"`
	Scheduled []Scheduled `json:"scheduled"`
	Skipped   []string    `json:"skipped,omitempty"`
}

type Scheduler struct {
	cron   *cron.Cron
	source CandidateSource
	runner Runner
	logger *logrus.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
}

func NewScheduler(spec string, loc *time.Location, source CandidateSource, runner Runner, logger *logrus.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		source: source,
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		timers: map[string]*time.Timer{},
	}
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.RunCycle(s.ctx, time.Now()); err != nil {
			s.logger.WithError(err).Error("editorial cycle failed")
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron, drops runs that have not fired yet and waits for
// in-flight runs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	<-s.cron.Stop().Done()

	s.mu.Lock()
	s.stopped = true
	for key, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, key)
	}
	s.mu.Unlock()
	defer s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunCycle lists the auto-blog candidates and schedules one run each at its
// jitter offset. A candidate already pending for the same cycle is skipped.
func (s *Scheduler) RunCycle(ctx context.Context, at time.Time) (*Cycle, error) {
	settings, err := s.source.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	candidates, err := s.source.ListAutoBlogCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	cycle := &Cycle{Key: CycleKey(at), Scheduled: []Scheduled{}}
	for _, c := range candidates {
		delay := Jitter(c.ID, cycle.Key, settings.JitterWindow)
		if !s.schedule(c.ID, cycle.Key, delay) {
			cycle.Skipped = append(cycle.Skipped, c.ID)
			continue
		}
		cycle.Scheduled = append(cycle.Scheduled, Scheduled{
			CandidateID:  c.ID,
			Delay:        delay,
			DelaySeconds: int64(delay / time.Second),
		})
	}
	s.logger.WithFields(logrus.Fields{
		"cycle":     cycle.Key,
		"scheduled": len(cycle.Scheduled),
		"skipped":   len(cycle.Skipped),
		"window":    settings.JitterWindow.String(),
	}).Info("editorial cycle scheduled")
	return cycle, nil
}

func (s *Scheduler) schedule(candidateID, cycleKey string, delay time.Duration) bool {
	key := candidateID + "|" + cycleKey
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, pending := s.timers[key]; pending || s.stopped {
		return false
	}
	s.wg.Add(1)
	s.timers[key] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		s.run(candidateID, cycleKey)
	})
	return true
}

func (s *Scheduler) run(candidateID, cycleKey string) {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	requestID := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"candidate_id": candidateID,
		"cycle":        cycleKey,
	})
	res, err := s.runner.Run(ctx, editorial.RunRequest{
		RequestID:   requestID,
		CandidateID: candidateID,
		Mode:        news.ModeAny,
		Trigger:     editorial.TriggerScheduler,
	})
	if err != nil {
		log.WithError(err).Warn("scheduled run failed")
		return
	}
	log.WithFields(logrus.Fields{
		"draft_id":  res.DraftID,
		"engine":    res.SourceEngine,
		"published": res.Published,
	}).Info("scheduled run finished")
}
