// Package entries stores journal entries in MongoDB.
package entries

import (
	"context"
	"errors"
	"time"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

var ErrNotFound = errors.New("entry not found")

// Repository is scoped by user for every per-entry operation. The bulk
// reads at the bottom serve the report jobs.
type Repository interface {
	Create(ctx context.Context, e *models.JournalEntry) error
	Update(ctx context.Context, e *models.JournalEntry) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (*models.JournalEntry, error)
	ListByUser(ctx context.Context, userID string) ([]models.JournalEntry, error)
	SearchByName(ctx context.Context, userID, prefix string) ([]models.JournalEntry, error)

	ListVisitedBetween(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error)
	Count(ctx context.Context) (int64, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
}
