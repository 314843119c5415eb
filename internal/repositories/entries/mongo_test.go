package entries

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

const ns = "tastetracker.entries"

func entryDoc(id primitive.ObjectID, user, name string, visit time.Time, rating float64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: user},
		{Key: "restaurant_name", Value: name},
		{Key: "visit_date", Value: visit},
		{Key: "food_quality_rating", Value: rating},
		{Key: "price_level", Value: int32(2)},
		{Key: "location", Value: "Main St"},
	}
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	visit := time.Date(2024, 2, 10, 18, 0, 0, 0, time.UTC)

	mt.Run("create assigns id", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		e := &models.JournalEntry{UserID: "u1", RestaurantName: "Luigi's", VisitDate: visit}
		require.NoError(mt, repo.Create(ctx, e))
		assert.False(mt, e.ID.IsZero())
	})

	mt.Run("create surfaces write errors", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Create(ctx, &models.JournalEntry{UserID: "u1"})
		assert.Error(mt, err)
	})

	mt.Run("list by user decodes documents", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				entryDoc(a, "u1", "Luigi's", visit, 5),
				entryDoc(b, "u1", "Pho 99", visit.Add(-time.Hour), 4),
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		got, err := repo.ListByUser(ctx, "u1")
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, a, got[0].ID)
		assert.Equal(mt, "Luigi's", got[0].RestaurantName)
		assert.Equal(mt, 5.0, got[0].FoodQualityRating)
		assert.Equal(mt, 2, got[0].PriceLevel)
		assert.True(mt, visit.Equal(got[0].VisitDate))
	})

	mt.Run("empty list is not nil", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.ListVisitedBetween(ctx, visit.Add(-time.Hour), visit)
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("get missing entry", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(ctx, "u1", primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed ids are not found", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)

		_, err := repo.Get(ctx, "u1", "not-an-id")
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.ErrorIs(mt, repo.Delete(ctx, "u1", "not-an-id"), ErrNotFound)
	})

	mt.Run("update without match", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.Update(ctx, &models.JournalEntry{ID: primitive.NewObjectID(), UserID: "u1"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update match", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := repo.Update(ctx, &models.JournalEntry{ID: primitive.NewObjectID(), UserID: "u1"})
		assert.NoError(mt, err)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		id := primitive.NewObjectID().Hex()
		assert.NoError(mt, repo.Delete(ctx, "u1", id))
		assert.ErrorIs(mt, repo.Delete(ctx, "u1", id), ErrNotFound)
	})

	mt.Run("count and distinct users", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}),
			mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"u1", "u2"}}),
		)

		n, err := repo.Count(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)

		ids, err := repo.DistinctUserIDs(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"u1", "u2"}, ids)
	})

	mt.Run("find command error", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))

		_, err := repo.SearchByName(ctx, "u1", "Lu")
		assert.ErrorContains(mt, err, "find entries")
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(ctx))
	})
}
