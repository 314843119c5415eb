package entries

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

const CollectionName = "entries"

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(CollectionName)}
}

// EnsureIndexes configures indexes for the entries collection.
// Called on startup after Mongo has connected.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// per-user listing, newest visit first
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "visit_date", Value: -1}},
			Options: options.Index().SetName("idx_user_visit_date"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "restaurant_name", Value: 1}},
			Options: options.Index().SetName("idx_user_restaurant_name"),
		},
		{
			// month range scans for the recap job
			Keys:    bson.D{{Key: "visit_date", Value: 1}},
			Options: options.Index().SetName("idx_visit_date"),
		},
	}
	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("ensure entry indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, e *models.JournalEntry) error {
	res, err := r.col.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = id
	}
	return nil
}

// Update rewrites the mutable fields. user_id and created_at never change.
func (r *MongoRepository) Update(ctx context.Context, e *models.JournalEntry) error {
	filter := bson.M{"_id": e.ID, "user_id": e.UserID}
	update := bson.M{"$set": bson.M{
		"restaurant_name":     e.RestaurantName,
		"visit_date":          e.VisitDate,
		"food_quality_rating": e.FoodQualityRating,
		"price_level":         e.PriceLevel,
		"location":            e.Location,
		"notes":               e.Notes,
		"latitude":            e.Latitude,
		"longitude":           e.Longitude,
		"updated_at":          e.UpdatedAt,
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, userID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var e models.JournalEntry
	err = r.col.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "visit_date", Value: -1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

// SearchByName is a case-sensitive prefix match on the restaurant name.
func (r *MongoRepository) SearchByName(ctx context.Context, userID, prefix string) ([]models.JournalEntry, error) {
	filter := bson.M{
		"user_id":         userID,
		"restaurant_name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "restaurant_name", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoRepository) ListVisitedBetween(ctx context.Context, start, end time.Time) ([]models.JournalEntry, error) {
	filter := bson.M{"visit_date": bson.M{"$gte": start, "$lte": end}}
	return r.find(ctx, filter)
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) DistinctUserIDs(ctx context.Context) ([]string, error) {
	values, err := r.col.Distinct(ctx, "user_id", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("distinct user ids: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *MongoRepository) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.JournalEntry, error) {
	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.JournalEntry, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return out, nil
}
