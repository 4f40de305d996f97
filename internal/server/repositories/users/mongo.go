package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding users.
const CollectionName = "users"

// MongoRepository stores users in the users collection.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRepository uses the users collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ProductIDs == nil {
		user.ProductIDs = []string{}
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	user := &models.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(user); err != nil {
		return nil, handleMongoError(err)
	}
	return user, nil
}

func (r *MongoRepository) AddProduct(ctx context.Context, userID, productID string) error {
	return r.updateOne(ctx, userID, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "products", Value: productID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: r.now().UTC()}}},
	})
}

func (r *MongoRepository) RemoveProduct(ctx context.Context, userID, productID string) error {
	return r.updateOne(ctx, userID, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "products", Value: productID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: r.now().UTC()}}},
	})
}

func (r *MongoRepository) PruneProducts(ctx context.Context, userID string, keep []string) ([]string, error) {
	if keep == nil {
		keep = []string{}
	}

	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "products", Value: bson.D{{Key: "$nin", Value: keep}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: r.now().UTC()}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.D{{Key: "products", Value: 1}})

	var before struct {
		Products []string `bson:"products"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: userID}}, update, opts).Decode(&before)
	if err != nil {
		return nil, handleMongoError(err)
	}

	return droppedIDs(before.Products, keep), nil
}

func (r *MongoRepository) updateOne(ctx context.Context, userID string, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update)
	if err != nil {
		return handleMongoError(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func handleMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
