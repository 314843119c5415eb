package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/notify"
	"github.com/AnshRaj112/tastetracker-backend/internal/report"
)

// RevisitPreview is the outcome of a single-user revisit reminder run.
type RevisitPreview struct {
	Success          bool                `json:"success"`
	RestaurantsFound []string            `json:"restaurantsFound"`
	Notification     report.Notification `json:"notification"`
}

// RunRevisitReminders nudges users about five-star restaurants they have
// not been back to in RevisitMonths.
func (r *Runner) RunRevisitReminders(ctx context.Context) (RunResult, error) {
	log := r.log.With(zap.String("job", JobRevisitReminders))
	res := RunResult{Job: JobRevisitReminders, StartedAt: r.now()}
	log.Info("starting revisit reminder job")

	all, err := r.users.List(ctx)
	if err != nil {
		log.Error("revisit reminder job failed", zap.Error(err))
		return res, fmt.Errorf("list users: %w", err)
	}
	res.Users = len(all)

	now := r.localNow()
	var fan fanout
	for _, u := range all {
		token := u.PushToken()
		if token == "" {
			log.Info("user has no push token, skipping", zap.String("user_id", u.ID))
			res.Skipped++
			continue
		}

		stale, err := r.staleFavorites(ctx, u.ID)
		if err != nil {
			log.Warn("failed to read user entries, skipping", zap.String("user_id", u.ID), zap.Error(err))
			res.Skipped++
			continue
		}
		if len(stale) == 0 {
			log.Info("user has no restaurants to notify about, skipping", zap.String("user_id", u.ID))
			res.Skipped++
			continue
		}

		n := report.RevisitNotification(stale)
		log.Debug("reminding user", zap.String("user_id", u.ID), zap.Strings("restaurants", stale))
		fan.dispatch(ctx, r.push, log, u.ID, notify.Push{
			Token:        token,
			Kind:         notify.KindRevisitReminder,
			Title:        n.Title,
			Body:         n.Body,
			HighPriority: true,
		})
	}
	fan.wait(&res)
	res.FinishedAt = r.now()

	log.Info("revisit reminder job completed",
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		zap.Time("cutoff", report.CutoffInstant(now, report.RevisitMonths)),
	)
	return res, nil
}

// TestRevisitReminders computes and sends the reminder for one user.
func (r *Runner) TestRevisitReminders(ctx context.Context, userID string) (*RevisitPreview, error) {
	log := r.log.With(zap.String("job", JobRevisitReminders), zap.String("user_id", userID))

	token, err := r.lookupToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	stale, err := r.staleFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, ErrNothingToRemind
	}

	n := report.RevisitNotification(stale)
	preview := &RevisitPreview{RestaurantsFound: stale, Notification: n}

	err = r.push.Dispatch(ctx, notify.Push{
		Token: token,
		Kind:  notify.KindRevisitReminder,
		Title: n.Title,
		Body:  n.Body,
	})
	if err != nil {
		log.Error("failed to send test reminder", zap.Error(err))
		return preview, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	preview.Success = true
	log.Info("test reminder sent", zap.Int("restaurants", len(stale)))
	return preview, nil
}

func (r *Runner) staleFavorites(ctx context.Context, userID string) ([]string, error) {
	entries, err := r.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", userID, err)
	}
	return report.StaleFavorites(entries, r.localNow(), report.RevisitMonths), nil
}
