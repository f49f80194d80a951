package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/teamboard_backend/models"
)

type PaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{collection: db.Collection("payments")}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.PaymentIntent) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, p)
	return translate(err)
}

func (r *PaymentRepository) FindByExternalID(ctx context.Context, externalID int64) (*models.PaymentIntent, error) {
	var p models.PaymentIntent
	if err := r.collection.FindOne(ctx, bson.M{"externalId": externalID}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Settle moves a pending intent to status. It reports false when the intent was
// already settled.
func (r *PaymentRepository) Settle(ctx context.Context, externalID int64, status string, companyID *primitive.ObjectID, payerPhone string) (bool, error) {
	set := bson.M{"status": status, "processedAt": time.Now().UTC()}
	if companyID != nil {
		set["companyId"] = *companyID
	}
	if payerPhone != "" {
		set["payerPhone"] = payerPhone
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"externalId": externalID, "status": models.PaymentPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
