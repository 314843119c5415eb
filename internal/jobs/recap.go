package jobs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/notify"
	"github.com/AnshRaj112/tastetracker-backend/internal/report"
)

// RecapDebug explains an empty recap preview.
type RecapDebug struct {
	TotalEntries    int64    `json:"totalEntries"`
	UserIDsFound    []string `json:"userIdsFound"`
	RequestedUserID string   `json:"requestedUserId"`
}

// NoEntriesError is returned by TestMonthlyRecap when the user logged no
// visit last month. It matches ErrNoEntries.
type NoEntriesError struct {
	Debug RecapDebug
}

func (e *NoEntriesError) Error() string { return ErrNoEntries.Error() }
func (e *NoEntriesError) Unwrap() error { return ErrNoEntries }

// RecapPreview is what TestMonthlyRecap computed and sent.
type RecapPreview struct {
	Success        bool                  `json:"success"`
	UserStats      report.UserStats      `json:"userStats"`
	SystemAverages report.SystemAverages `json:"systemAverages"`
	Notification   report.Notification   `json:"notification"`
}

// RunMonthlyRecap sends every user with a push token a summary of last
// month compared with the whole community.
func (r *Runner) RunMonthlyRecap(ctx context.Context) (RunResult, error) {
	log := r.log.With(zap.String("job", JobMonthlyRecap))
	res := RunResult{Job: JobMonthlyRecap, StartedAt: r.now()}
	log.Info("starting monthly recap job")

	rng := report.LastCalendarMonthRange(r.localNow())
	system, err := r.systemAverages(ctx, rng)
	if err != nil {
		log.Error("monthly recap job failed", zap.Error(err))
		return res, err
	}

	all, err := r.users.List(ctx)
	if err != nil {
		log.Error("monthly recap job failed", zap.Error(err))
		return res, fmt.Errorf("list users: %w", err)
	}
	res.Users = len(all)

	var fan fanout
	for _, u := range all {
		token := u.PushToken()
		if token == "" {
			log.Info("user has no push token, skipping", zap.String("user_id", u.ID))
			res.Skipped++
			continue
		}

		stats, err := r.userStats(ctx, u.ID, rng)
		if err != nil {
			log.Warn("failed to read user entries, skipping", zap.String("user_id", u.ID), zap.Error(err))
			res.Skipped++
			continue
		}
		if stats == nil {
			log.Info("user has no entries last month, skipping", zap.String("user_id", u.ID))
			res.Skipped++
			continue
		}

		n := report.RecapNotification(*stats, system)
		fan.dispatch(ctx, r.push, log, u.ID, notify.Push{
			Token:        token,
			Kind:         notify.KindMonthlyRecap,
			Title:        n.Title,
			Body:         n.Body,
			HighPriority: true,
		})
	}
	fan.wait(&res)
	res.FinishedAt = r.now()

	log.Info("monthly recap job completed",
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, nil
}

// TestMonthlyRecap computes and sends the recap for one user synchronously.
func (r *Runner) TestMonthlyRecap(ctx context.Context, userID string) (*RecapPreview, error) {
	log := r.log.With(zap.String("job", JobMonthlyRecap), zap.String("user_id", userID))

	token, err := r.lookupToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	rng := report.LastCalendarMonthRange(r.localNow())
	stats, err := r.userStats(ctx, userID, rng)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		debug, err := r.recapDebug(ctx, userID)
		if err != nil {
			return nil, err
		}
		return nil, &NoEntriesError{Debug: debug}
	}

	system, err := r.systemAverages(ctx, rng)
	if err != nil {
		return nil, err
	}

	n := report.RecapNotification(*stats, system)
	preview := &RecapPreview{
		UserStats:      *stats,
		SystemAverages: system,
		Notification:   n,
	}

	err = r.push.Dispatch(ctx, notify.Push{
		Token: token,
		Kind:  notify.KindMonthlyRecap,
		Title: n.Title,
		Body:  n.Body,
	})
	if err != nil {
		log.Error("failed to send test recap", zap.Error(err))
		return preview, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	preview.Success = true
	log.Info("test recap sent")
	return preview, nil
}

func (r *Runner) userStats(ctx context.Context, userID string, rng report.MonthRange) (*report.UserStats, error) {
	entries, err := r.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", userID, err)
	}
	return report.UserStatsFor(entries, rng), nil
}

func (r *Runner) systemAverages(ctx context.Context, rng report.MonthRange) (report.SystemAverages, error) {
	entries, err := r.entries.ListVisitedBetween(ctx, rng.Start, rng.End)
	if err != nil {
		return report.SystemAverages{}, fmt.Errorf("list entries for %s: %w", rng.Name, err)
	}
	return report.SystemAveragesFor(entries, rng), nil
}

func (r *Runner) recapDebug(ctx context.Context, userID string) (RecapDebug, error) {
	total, err := r.entries.Count(ctx)
	if err != nil {
		return RecapDebug{}, fmt.Errorf("count entries: %w", err)
	}
	ids, err := r.entries.DistinctUserIDs(ctx)
	if err != nil {
		return RecapDebug{}, fmt.Errorf("distinct user ids: %w", err)
	}
	return RecapDebug{TotalEntries: total, UserIDsFound: ids, RequestedUserID: userID}, nil
}

// IsNoEntries extracts the debug payload from a TestMonthlyRecap error.
func IsNoEntries(err error) (RecapDebug, bool) {
	var ne *NoEntriesError
	if errors.As(err, &ne) {
		return ne.Debug, true
	}
	return RecapDebug{}, false
}
