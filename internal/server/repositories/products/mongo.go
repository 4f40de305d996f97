package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding products.
const CollectionName = "products"

// MongoRepository stores products in the products collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository uses the products collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}

	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return product, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product := &models.Product{}
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(product); err != nil {
		return nil, handleMongoError(err)
	}
	return product, nil
}

func (r *MongoRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	imageURLs := product.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: product.ID}}, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "title", Value: product.Title},
			{Key: "description", Value: product.Description},
			{Key: "productType", Value: product.ProductType},
			{Key: "imageUrls", Value: imageURLs},
			{Key: "updatedAt", Value: product.UpdatedAt},
		}},
	})
	if err != nil {
		return nil, handleMongoError(err)
	}
	if res.MatchedCount == 0 {
		return nil, common.ErrorNotFound
	}
	return product, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return handleMongoError(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func typeFilter(productType string) bson.D {
	if productType == "" {
		return bson.D{}
	}
	return bson.D{{Key: "productType", Value: productType}}
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]*models.Product, error) {
	dir := 1
	if filter.NewestFirst {
		dir = -1
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}})
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	return r.find(ctx, typeFilter(filter.ProductType), opts)
}

func (r *MongoRepository) Count(ctx context.Context, productType string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, typeFilter(productType))
	if err != nil {
		return 0, handleMongoError(err)
	}
	return n, nil
}

func (r *MongoRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}

	found, err := r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	return orderByIDs(ids, found), nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]*models.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, handleMongoError(err)
	}

	list := []*models.Product{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, handleMongoError(err)
	}
	return list, nil
}

func handleMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
