package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/dmitrijs2005/listings/internal/server/repositories/products"
	"github.com/dmitrijs2005/listings/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Transactions
// are serialised and roll back by restoring a snapshot. Writes made outside
// a transaction wait for a running transaction to finish, so a rollback
// never discards them.
type MemoryRepositoryManager struct {
	txMu     sync.RWMutex
	users    *users.MemoryRepository
	products *products.MemoryRepository
}

// NewMemoryRepositoryManager returns a manager over empty repositories.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:    users.NewMemoryRepository(),
		products: products.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Backend() string { return BackendMemory }

func (m *MemoryRepositoryManager) Users() users.Repository {
	return &guardedUsers{Repository: m.users, mu: &m.txMu}
}

func (m *MemoryRepositoryManager) Products() products.Repository {
	return &guardedProducts{Repository: m.products, mu: &m.txMu}
}

func (m *MemoryRepositoryManager) WithinTransaction(ctx context.Context, fn TxFunc) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	restoreUsers := m.users.Snapshot()
	restoreProducts := m.products.Snapshot()

	defer func() {
		if p := recover(); p != nil {
			restoreUsers()
			restoreProducts()
			panic(p)
		}
		if err != nil {
			restoreUsers()
			restoreProducts()
		}
	}()

	return fn(ctx, m.users, m.products)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close(context.Context) error { return nil }

// guardedUsers holds the transaction lock shared for the duration of each
// write. Reads go straight to the repository.
type guardedUsers struct {
	users.Repository
	mu *sync.RWMutex
}

func (g *guardedUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.Create(ctx, user)
}

func (g *guardedUsers) AddProduct(ctx context.Context, userID, productID string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.AddProduct(ctx, userID, productID)
}

func (g *guardedUsers) RemoveProduct(ctx context.Context, userID, productID string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.RemoveProduct(ctx, userID, productID)
}

func (g *guardedUsers) PruneProducts(ctx context.Context, userID string, keep []string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.PruneProducts(ctx, userID, keep)
}

type guardedProducts struct {
	products.Repository
	mu *sync.RWMutex
}

func (g *guardedProducts) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.Create(ctx, product)
}

func (g *guardedProducts) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.Update(ctx, product)
}

func (g *guardedProducts) Delete(ctx context.Context, id string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Repository.Delete(ctx, id)
}
