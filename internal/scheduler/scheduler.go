// Package scheduler runs named jobs on cron expressions and tracks the
// outcome of their last run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the last known state of a job.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrAlreadyRunning = errors.New("job is already running")
	ErrDuplicateJob   = errors.New("job already registered")
)

// Job defines a scheduled background task.
type Job struct {
	Name        string
	Description string
	Spec        string // standard five-field cron expression
	Fn          func(ctx context.Context) error
}

type jobState struct {
	Job
	schedule cron.Schedule

	mu        sync.Mutex
	status    JobStatus
	message   string
	lastRunAt *time.Time
}

// ListItem is the serializable representation of a job for the API.
type ListItem struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	Status      JobStatus  `json:"status"`
	Message     string     `json:"message,omitempty"`
	NextDate    *time.Time `json:"nextDate"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
}

// TaskResult is returned when polling task execution status.
type TaskResult struct {
	Status  JobStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	timeout time.Duration
	log     *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]*jobState
	baseCtx context.Context
	running sync.WaitGroup
}

// New creates an empty Scheduler evaluating expressions in loc. Every run
// gets a context bounded by timeout.
func New(loc *time.Location, timeout time.Duration, log *zap.Logger) *Scheduler {
	log = log.Named("scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(log))),
		),
		loc:     loc,
		timeout: timeout,
		log:     log,
		jobs:    make(map[string]*jobState),
		baseCtx: context.Background(),
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) error {
	schedule, err := cron.ParseStandard(job.Spec)
	if err != nil {
		return fmt.Errorf("job %q: invalid schedule %q: %w", job.Name, job.Spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	js := &jobState{Job: job, schedule: schedule, status: StatusIdle}
	s.jobs[job.Name] = js
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		if !s.tryStart(js) {
			s.log.Warn("previous run still in progress, skipping", zap.String("job", js.Name))
			return
		}
		s.execute(js)
	}))
	return nil
}

// Start begins firing jobs on their schedules. Runs derive from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)), zap.String("zone", s.loc.String()))
}

// Stop halts the schedule and waits for in-flight runs, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	<-s.cron.Stop().Done()
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run manually triggers a job by name (non-blocking).
func (s *Scheduler) Run(name string) error {
	js, err := s.get(name)
	if err != nil {
		return err
	}
	if !s.tryStart(js) {
		return ErrAlreadyRunning
	}
	go s.execute(js)
	return nil
}

// tryStart flips the job to running unless it already is. It also
// registers the run with the wait group so Stop can drain it.
func (s *Scheduler) tryStart(js *jobState) bool {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.status == StatusRunning {
		return false
	}
	js.status = StatusRunning
	s.running.Add(1)
	return true
}

func (s *Scheduler) execute(js *jobState) {
	defer s.running.Done()

	s.mu.RLock()
	base := s.baseCtx
	s.mu.RUnlock()
	ctx, cancel := context.WithTimeout(base, s.timeout)
	defer cancel()

	started := time.Now()
	log := s.log.With(zap.String("job", js.Name))
	log.Info("job started")

	err := safeRun(ctx, js.Fn)

	js.mu.Lock()
	js.lastRunAt = &started
	if err != nil {
		js.status = StatusReject
		js.message = err.Error()
	} else {
		js.status = StatusFulfill
		js.message = ""
	}
	js.mu.Unlock()

	if err != nil {
		log.Error("job failed", zap.Error(err), zap.Duration("took", time.Since(started)))
		return
	}
	log.Info("job finished", zap.Duration("took", time.Since(started)))
}

func safeRun(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// GetTask returns the current execution state of a job.
func (s *Scheduler) GetTask(name string) (*TaskResult, error) {
	js, err := s.get(name)
	if err != nil {
		return nil, err
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return &TaskResult{Status: js.status, Message: js.message}, nil
}

// List returns a summary of all registered jobs sorted by name.
func (s *Scheduler) List() []ListItem {
	now := time.Now().In(s.loc)

	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ListItem, 0, len(s.jobs))
	for _, js := range s.jobs {
		next := js.schedule.Next(now)
		js.mu.Lock()
		items = append(items, ListItem{
			Name:        js.Name,
			Description: js.Description,
			Schedule:    js.Spec,
			Status:      js.status,
			Message:     js.message,
			NextDate:    &next,
			LastRunAt:   js.lastRunAt,
		})
		js.mu.Unlock()
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func (s *Scheduler) get(name string) (*jobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	js, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return js, nil
}

// NextRun reports when spec fires next after t, evaluated in loc.
func NextRun(spec string, loc *time.Location, t time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(t.In(loc)), nil
}
