package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/teamboard_backend/models"
)

// ReferralClickRepository stores referral clicks. Clicks are never updated.
type ReferralClickRepository struct {
	collection *mongo.Collection
}

func NewReferralClickRepository(db *mongo.Database) *ReferralClickRepository {
	return &ReferralClickRepository{collection: db.Collection("referral_clicks")}
}

func (r *ReferralClickRepository) Insert(ctx context.Context, click *models.ReferralClick) error {
	if click.ID.IsZero() {
		click.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, click)
	return err
}

func (r *ReferralClickRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID})
}

// Leaderboard ranks users by click count, ties broken by user id.
func (r *ReferralClickRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$userId", "clicks": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "clicks", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"clicks": 1,
			"role":   "$user.role",
			"name": bson.M{"$trim": bson.M{"input": bson.M{"$concat": bson.A{
				bson.M{"$ifNull": bson.A{"$user.name", ""}}, " ",
				bson.M{"$ifNull": bson.A{"$user.surname", ""}},
			}}}},
		}}},
	}
	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	out := []models.LeaderboardEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
