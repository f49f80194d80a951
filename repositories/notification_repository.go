package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/teamboard_backend/models"
)

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection("notifications")}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, n)
	return err
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, page models.PageRequest) ([]models.Notification, int64, error) {
	filter := bson.M{"userId": userID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.collection.Find(ctx, filter, pageOptions(page, "createdAt", -1))
	if err != nil {
		return nil, 0, err
	}
	out := []models.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead marks one notification of userID as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
