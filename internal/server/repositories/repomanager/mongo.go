package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/listings/internal/server/repositories/products"
	"github.com/dmitrijs2005/listings/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectTimeout = 10 * time.Second

// MongoRepositoryManager serves both repositories from one MongoDB database.
type MongoRepositoryManager struct {
	client   *mongo.Client
	db       *mongo.Database
	users    *users.MongoRepository
	products *products.MongoRepository
}

// NewMongoRepositoryManager connects to uri and pings the primary.
func NewMongoRepositoryManager(ctx context.Context, uri, dbName string) (*MongoRepositoryManager, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(mongoConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	return newMongoManager(client.Database(dbName)), nil
}

func newMongoManager(db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:   db.Client(),
		db:       db,
		users:    users.NewMongoRepository(db),
		products: products.NewMongoRepository(db),
	}
}

func (m *MongoRepositoryManager) Backend() string { return BackendMongo }

func (m *MongoRepositoryManager) Users() users.Repository { return m.users }

func (m *MongoRepositoryManager) Products() products.Repository { return m.products }

func (m *MongoRepositoryManager) WithinTransaction(ctx context.Context, fn TxFunc) error {
	return fn(ctx, m.users, m.products)
}

// RunMigrations creates the indexes the repositories rely on: a unique
// email index for users and type/creation indexes for products.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	_, err := m.db.Collection(users.CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	_, err = m.db.Collection(products.CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productType", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create products indexes: %w", err)
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
