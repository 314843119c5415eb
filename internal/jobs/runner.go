// Package jobs runs the monthly recap and revisit reminder batches.
package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/notify"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
)

const (
	JobMonthlyRecap     = "monthly-recap"
	JobRevisitReminders = "revisit-reminders"
)

var (
	ErrNoPushToken     = errors.New("user has no push token")
	ErrNoEntries       = errors.New("no entries found for user in last month")
	ErrNothingToRemind = errors.New("no restaurants to notify about")
	ErrDispatchFailed  = errors.New("notification dispatch failed")
)

// EntrySource is the read side of the entry store the jobs need.
type EntrySource interface {
	ListByUser(ctx context.Context, userID string) ([]models.JournalEntry, error)
	ListVisitedBetween(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
	Count(ctx context.Context) (int64, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
}

// UserSource lists users and looks them up by ID.
type UserSource interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RunResult summarises one batch run.
type RunResult struct {
	Job        string    `json:"job"`
	Users      int       `json:"users"`
	Skipped    int       `json:"skipped"`
	Attempted  int       `json:"attempted"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Runner executes the recap and revisit-reminder jobs against the stores and push dispatcher.
type Runner struct {
	entries EntrySource
	users   UserSource
	push    notify.Dispatcher
	log     *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLocation sets the zone month boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) { r.loc = loc }
}

// WithClock overrides the time source used to compute reporting windows.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(entries EntrySource, usrs UserSource, push notify.Dispatcher, log *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		entries: entries,
		users:   usrs,
		push:    push,
		log:     log.Named("jobs"),
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) localNow() time.Time {
	return r.now().In(r.loc)
}

// lookupToken returns the user's push token or ErrNoPushToken, treating an
// unknown user the same as one without a token.
func (r *Runner) lookupToken(ctx context.Context, userID string) (string, error) {
	u, err := r.users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return "", ErrNoPushToken
	}
	if err != nil {
		return "", err
	}
	if u.PushToken() == "" {
		return "", ErrNoPushToken
	}
	return u.PushToken(), nil
}

// fanout launches one goroutine per dispatch and tallies the outcomes.
type fanout struct {
	wg        sync.WaitGroup
	attempted int
	sent      atomic.Int64
	failed    atomic.Int64
}

func (f *fanout) dispatch(ctx context.Context, d notify.Dispatcher, log *zap.Logger, userID string, p notify.Push) {
	f.attempted++
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if err := d.Dispatch(ctx, p); err != nil {
			f.failed.Add(1)
			log.Error("failed to send notification", zap.String("user_id", userID), zap.Error(err))
			return
		}
		f.sent.Add(1)
		log.Info("notification sent", zap.String("user_id", userID))
	}()
}

func (f *fanout) wait(res *RunResult) {
	f.wg.Wait()
	res.Attempted = f.attempted
	res.Sent = int(f.sent.Load())
	res.Failed = int(f.failed.Load())
}
