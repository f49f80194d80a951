package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/teamboard_backend/models"
	"github.com/HSouheill/teamboard_backend/visibility"
)

type CompanyRepository struct {
	collection *mongo.Collection
}

func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{collection: db.Collection("companies")}
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return translate(err)
}

func (r *CompanyRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Company, error) {
	var c models.Company
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CompanyRepository) FindByTransactionID(ctx context.Context, txID string) (*models.Company, error) {
	var c models.Company
	if err := r.collection.FindOne(ctx, bson.M{"transactionId": txID}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CompanyRepository) List(ctx context.Context, scope visibility.CompanyScope, q models.CompanyQuery) ([]models.Company, int64, error) {
	filter := visibility.CompanyFilter(scope, q)
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.collection.Find(ctx, filter, pageOptions(q.PageRequest, "createdAt", -1))
	if err != nil {
		return nil, 0, err
	}
	out := []models.Company{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// All returns every company in scope, oldest first.
func (r *CompanyRepository) All(ctx context.Context, scope visibility.CompanyScope) ([]models.Company, error) {
	cur, err := r.collection.Find(ctx, scope.Filter(), sortOptions("createdAt", 1))
	if err != nil {
		return nil, err
	}
	out := []models.Company{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CompanyRepository) Count(ctx context.Context, scope visibility.CompanyScope) (int64, error) {
	return r.collection.CountDocuments(ctx, scope.Filter())
}

// Replace overwrites the mutable fields of one company.
func (r *CompanyRepository) Replace(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Company, error) {
	set["updatedAt"] = time.Now().UTC()
	var out models.Company
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, afterUpdate()).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *CompanyRepository) SetCommissionPaid(ctx context.Context, id primitive.ObjectID, paid bool) (*models.Company, error) {
	return r.Replace(ctx, id, bson.M{"statusProvisionen": paid})
}

func (r *CompanyRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ReassignUser points every reference to userID at replacement and returns the number
// of companies changed. One pipeline update handles companies that reference userID twice.
func (r *CompanyRepository) ReassignUser(ctx context.Context, userID, replacement primitive.ObjectID) (int64, error) {
	swap := func(field string) bson.M {
		return bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$" + field, userID}}, replacement, "$" + field}}
	}
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"$or": bson.A{bson.M{"managerId": userID}, bson.M{"markenbotschafterId": userID}}},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{
			"managerId":           swap("managerId"),
			"markenbotschafterId": swap("markenbotschafterId"),
			"updatedAt":           time.Now().UTC(),
		}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("reassign companies: %w", err)
	}
	return res.ModifiedCount, nil
}
