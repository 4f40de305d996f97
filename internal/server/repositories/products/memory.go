package products

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/server/models"
)

// MemoryRepository keeps products in process memory and hands out copies.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.Product
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.Product)}
}

func clone(p *models.Product) *models.Product {
	c := *p
	c.ImageURLs = slices.Clone(p.ImageURLs)
	if c.ImageURLs == nil {
		c.ImageURLs = []string{}
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[product.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.byID[product.ID] = clone(product)
	return clone(product), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(p), nil
}

func (r *MemoryRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[product.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}

	stored.Title = product.Title
	stored.Description = product.Description
	stored.ProductType = product.ProductType
	stored.ImageURLs = slices.Clone(product.ImageURLs)
	if stored.ImageURLs == nil {
		stored.ImageURLs = []string{}
	}
	stored.UpdatedAt = product.UpdatedAt

	return clone(stored), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]*models.Product, error) {
	r.mu.RLock()
	list := make([]*models.Product, 0, len(r.byID))
	for _, p := range r.byID {
		if filter.ProductType == "" || p.ProductType == filter.ProductType {
			list = append(list, clone(p))
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if filter.NewestFirst {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= int64(len(list)) {
			return []*models.Product{}, nil
		}
		list = list[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < int64(len(list)) {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (r *MemoryRepository) Count(ctx context.Context, productType string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if productType == "" {
		return int64(len(r.byID)), nil
	}
	var n int64
	for _, p := range r.byID {
		if p.ProductType == productType {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	r.mu.RLock()
	found := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID[id]; ok {
			found = append(found, clone(p))
		}
	}
	r.mu.RUnlock()

	return orderByIDs(ids, found), nil
}

// Snapshot captures the current contents and returns a function that
// restores them.
func (r *MemoryRepository) Snapshot() (restore func()) {
	r.mu.RLock()
	byID := make(map[string]*models.Product, len(r.byID))
	for id, p := range r.byID {
		byID[id] = clone(p)
	}
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.byID = byID
		r.mu.Unlock()
	}
}
