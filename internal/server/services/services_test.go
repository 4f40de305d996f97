package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/auth"
	"github.com/dmitrijs2005/listings/internal/server/config"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/dmitrijs2005/listings/internal/server/repositories/products"
	"github.com/dmitrijs2005/listings/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/listings/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
		BcryptCost:                  bcrypt.MinCost,
	}
}

func newServices(t *testing.T, m repomanager.RepositoryManager) (*UserService, *ProductService) {
	t.Helper()
	if m == nil {
		m = repomanager.NewMemoryRepositoryManager()
	}
	return NewUserService(m, testConfig(), logging.Nop{}), NewProductService(m, logging.Nop{})
}

func register(t *testing.T, us *UserService, email string) auth.Identity {
	t.Helper()
	u, err := us.Register(context.Background(), email, "Name", "secret1")
	require.NoError(t, err)
	return auth.Identity{UserID: u.ID, Email: u.Email}
}

func validInput() ProductInput {
	return ProductInput{Title: "Red Chair", Description: "Solid oak chair", ProductType: "furniture", ImageURLs: []string{"https://img/1.png"}}
}

func requireAppErr(t *testing.T, err error, status int, message string) *apperr.Error {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, status, e.Status)
	assert.Equal(t, message, e.Message)
	return e
}

// fakeManager lets individual repositories be swapped for failing ones.
type fakeManager struct {
	*repomanager.MemoryRepositoryManager
	users    users.Repository
	products products.Repository
}

func (f *fakeManager) Users() users.Repository {
	if f.users != nil {
		return f.users
	}
	return f.MemoryRepositoryManager.Users()
}

func (f *fakeManager) Products() products.Repository {
	if f.products != nil {
		return f.products
	}
	return f.MemoryRepositoryManager.Products()
}

func (f *fakeManager) WithinTransaction(ctx context.Context, fn repomanager.TxFunc) error {
	return fn(ctx, f.Users(), f.Products())
}

type failingProducts struct {
	products.Repository
	deleteErr error
	countErr  error
}

func (f *failingProducts) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Repository.Delete(ctx, id)
}

func (f *failingProducts) Count(ctx context.Context, productType string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Repository.Count(ctx, productType)
}

type failingUsers struct {
	users.Repository
	err error
}

func (f *failingUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}
