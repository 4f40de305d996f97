// Package products stores product listings. MongoDB, PostgreSQL and
// in-memory implementations are provided.
package products

import (
	"context"

	"github.com/dmitrijs2005/listings/internal/server/models"
)

// ListFilter narrows and pages List results. An empty ProductType matches
// every product and a zero Limit means no limit.
type ListFilter struct {
	ProductType string
	Offset      int64
	Limit       int64
	NewestFirst bool
}

// Repository persists products. Operations on a missing product return
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Update overwrites the mutable fields (title, description, type,
	// image URLs, updatedAt).
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*models.Product, error)
	// Count counts products of productType, or all products when it is empty.
	Count(ctx context.Context, productType string) (int64, error)
	// GetByIDs returns the products that exist among ids, in the order of ids.
	GetByIDs(ctx context.Context, ids []string) ([]*models.Product, error)
}

// orderByIDs arranges found in the order of ids, skipping missing ones.
func orderByIDs(ids []string, found []*models.Product) []*models.Product {
	byID := make(map[string]*models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	out := make([]*models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out
}
