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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, u)
	return translate(err)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"referralCode": code})
}

// List returns one page of the users in scope, optionally narrowed to a role.
func (r *UserRepository) List(ctx context.Context, scope visibility.UserScope, role string, page models.PageRequest) ([]models.User, int64, error) {
	filter := scope.Filter()
	if role != "" {
		filter = bson.M{"$and": bson.A{filter, bson.M{"role": role}}}
	}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.collection.Find(ctx, filter, pageOptions(page, "createdAt", -1))
	if err != nil {
		return nil, 0, err
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// All loads every user. The commission engine needs the full directory to resolve payees.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	cur, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ManagedIDs returns the ids of the markenbotschafter supervised by managerID.
func (r *UserRepository) ManagedIDs(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := r.collection.Distinct(ctx, "_id", bson.M{"role": models.RoleMarkenbotschafter, "managerId": managerID})
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, v := range ids {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// Update applies set and unset to one user and returns the result.
func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset []string) (*models.User, error) {
	set["updatedAt"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		update["$unset"] = u
	}
	var out models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DetachAmbassadors clears managerId on every markenbotschafter of managerID.
func (r *UserRepository) DetachAmbassadors(ctx context.Context, managerID primitive.ObjectID) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"managerId": managerID},
		bson.M{"$unset": bson.M{"managerId": ""}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("detach ambassadors: %w", err)
	}
	return res.ModifiedCount, nil
}
