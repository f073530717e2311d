package docsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const syncJobTag = "docsync"

// Scheduler runs a non-forced sync on a fixed interval and reports updates
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    *Syncer
	onUpdate  func(Result)
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler checks for stale docs every interval. onUpdate runs after a
// sync that wrote at least one document.
func NewScheduler(syncer *Syncer, interval time.Duration, onUpdate func(Result)) (*Scheduler, error) {
	if syncer == nil {
		return nil, errors.New("scheduler requires a syncer")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %v", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		syncer:    syncer,
		onUpdate:  onUpdate,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.scheduler.TagsUnique()
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(interval).Tag(syncJobTag).Do(s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule doc sync: %w", err)
	}
	return s, nil
}

// Start runs the first check immediately, then on every interval
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
	log.Printf("✓ Doc sync scheduled for %s (TTL %v)", s.syncer.Dir(), s.syncer.ttl)
}

// Stop cancels an in-flight sync and stops the schedule
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// run performs one scheduled check
func (s *Scheduler) run() error {
	result, err := s.syncer.Sync(s.ctx, false)
	if err != nil {
		log.Printf("Warning: Scheduled doc sync failed: %v", err)
	}
	if result.Updated && s.onUpdate != nil {
		s.onUpdate(result)
	}
	return err
}
