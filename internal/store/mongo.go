package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/promptforge/backend/internal/models"
)

// MongoStore handles the append-only prompt request log in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("prompt_requests")}
}

// EnsureIndexes creates the (user_id, created_at desc) index used by the
// history and daily-count queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, req *models.PromptRequest) (string, error) {
	req.CreatedAt = time.Now()
	res, err := s.col.InsertOne(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	req.ID = oid
	return oid.Hex(), nil
}

// History returns the user's most recent prompt requests, newest first.
func (s *MongoStore) History(ctx context.Context, userID string, limit int64) ([]models.PromptRequest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reqs []models.PromptRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// CountByUser returns the lifetime number of requests for a user.
func (s *MongoStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"user_id": userID})
}

// CountSince counts requests created at or after t. The quota gate calls
// this with the start of the server-local day.
func (s *MongoStore) CountSince(ctx context.Context, userID string, t time.Time) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"created_at": bson.M{"$gte": t},
	})
}

// DailyCounts groups the user's requests since t into per-calendar-date
// buckets (YYYY-MM-DD). Days with no activity are absent; callers zero-fill.
//
// Mongo stores created_at in UTC, so the group stage is told t's UTC offset.
// Without it a request made shortly after local midnight would be keyed to
// the previous UTC date and disagree with the local-day window and with
// CountSince's local-midnight boundary.
func (s *MongoStore) DailyCounts(ctx context.Context, userID string, t time.Time) (map[string]int, error) {
	cur, err := s.col.Aggregate(ctx, dailyCountsPipeline(userID, t))
	if err != nil {
		return nil, fmt.Errorf("mongo aggregate: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Date  string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	buckets := make(map[string]int, len(rows))
	for _, r := range rows {
		buckets[r.Date] = r.Count
	}
	return buckets, nil
}

func dailyCountsPipeline(userID string, t time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id":    userID,
			"created_at": bson.M{"$gte": t},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m-%d",
				"date":     "$created_at",
				"timezone": utcOffsetString(t),
			}},
			"count": bson.M{"$sum": 1},
		}}},
	}
}

// utcOffsetString renders t's zone offset in the "+05:00" form accepted by
// $dateToString's timezone field.
func utcOffsetString(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
