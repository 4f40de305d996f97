package users

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/server/models"
)

// MemoryRepository keeps users in process memory. It hands out copies so
// callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func clone(u *models.User) *models.User {
	c := *u
	c.ProductIDs = slices.Clone(u.ProductIDs)
	if c.ProductIDs == nil {
		c.ProductIDs = []string{}
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := clone(user)
	r.byID[user.ID] = stored
	r.byEmail[user.Email] = user.ID

	return clone(stored), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) AddProduct(ctx context.Context, userID, productID string) error {
	return r.update(userID, func(u *models.User) {
		if !u.HasProduct(productID) {
			u.ProductIDs = append(u.ProductIDs, productID)
		}
	})
}

func (r *MemoryRepository) RemoveProduct(ctx context.Context, userID, productID string) error {
	return r.update(userID, func(u *models.User) {
		u.ProductIDs = slices.DeleteFunc(u.ProductIDs, func(id string) bool { return id == productID })
	})
}

func (r *MemoryRepository) PruneProducts(ctx context.Context, userID string, keep []string) ([]string, error) {
	var dropped []string
	err := r.update(userID, func(u *models.User) {
		dropped = droppedIDs(u.ProductIDs, keep)
		u.ProductIDs = slices.DeleteFunc(u.ProductIDs, func(id string) bool {
			return slices.Contains(dropped, id)
		})
	})
	if err != nil {
		return nil, err
	}
	return dropped, nil
}

func (r *MemoryRepository) update(userID string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = r.now().UTC()
	return nil
}

// Snapshot captures the current contents and returns a function that
// restores them.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	byID := make(map[string]*models.User, len(r.byID))
	for id, u := range r.byID {
		byID[id] = clone(u)
	}
	byEmail := make(map[string]string, len(r.byEmail))
	for e, id := range r.byEmail {
		byEmail[e] = id
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.byID, r.byEmail = byID, byEmail
		r.mu.Unlock()
	}
}
