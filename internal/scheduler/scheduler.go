package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// How often the loop checks whether a job is due. Schedules have
// minute granularity, so half that keeps firing reasonably prompt.
const tickInterval = 30 * time.Second

// Job is a named task to run on a cron schedule (five-field, no seconds)
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

type job struct {
	name     string
	schedule cron.Schedule
	run      func(ctx context.Context) error

	mu      sync.Mutex
	nextRun time.Time
}

// claim reports whether the job is due and, if so, advances its next
// run time so no other tick can fire the same slot
func (j *job) claim(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if now.Before(j.nextRun) {
		return false
	}
	j.nextRun = j.schedule.Next(now)
	return true
}

// Scheduler runs configured jobs on their cron schedules
type Scheduler struct {
	logger *zap.Logger
	jobs   []*job

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	cancel   context.CancelFunc // Cancel function for running jobs
	wg       sync.WaitGroup     // Tracks spawned job goroutines
}

// New creates a scheduler for the given jobs. Cron expressions are
// parsed up front so a bad schedule fails at startup, not at 3am.
func New(logger *zap.Logger, jobs ...Job) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	s := &Scheduler{logger: logger}
	now := time.Now()
	for _, j := range jobs {
		schedule, err := parser.Parse(j.Schedule)
		if err != nil {
			return nil, fmt.Errorf("job %s: invalid schedule %q: %w", j.Name, j.Schedule, err)
		}
		s.jobs = append(s.jobs, &job{
			name:     j.Name,
			schedule: schedule,
			run:      j.Run,
			nextRun:  schedule.Next(now),
		})
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})

	// Create cancellable context for all spawned jobs
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop stops the scheduler and waits for running jobs to complete
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)

	// Cancel all running job contexts
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// Wait for all spawned job goroutines to finish
	s.wg.Wait()
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// Check immediately on start
	s.checkJobs(ctx)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.checkJobs(ctx)
		}
	}
}

// checkJobs fires every job whose schedule has come due
func (s *Scheduler) checkJobs(ctx context.Context) {
	now := time.Now()
	for _, j := range s.jobs {
		if j.claim(now) {
			s.wg.Add(1)
			go s.runJob(ctx, j)
		}
	}
}

// runJob executes a scheduled job
func (s *Scheduler) runJob(ctx context.Context, j *job) {
	defer s.wg.Done()

	// Check if context is already cancelled
	if ctx.Err() != nil {
		s.logger.Debug("job cancelled before start", zap.String("job", j.name))
		return
	}

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Warn("scheduled job failed",
			zap.String("job", j.name),
			zap.Error(err))
		return
	}
	s.logger.Debug("scheduled job finished",
		zap.String("job", j.name),
		zap.Duration("elapsed", time.Since(start)))
}
