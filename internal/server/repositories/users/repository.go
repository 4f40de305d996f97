// Package users stores user accounts and the list of product ids each user
// owns. MongoDB, PostgreSQL and in-memory implementations are provided.
package users

import (
	"context"

	"github.com/dmitrijs2005/listings/internal/server/models"
)

// Repository persists users. Lookups of a missing user return
// common.ErrorNotFound; creating a user whose email is taken returns
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// AddProduct appends productID to the user's products unless present.
	AddProduct(ctx context.Context, userID, productID string) error
	// RemoveProduct drops productID from the user's products.
	RemoveProduct(ctx context.Context, userID, productID string) error
	// PruneProducts atomically drops every product id not listed in keep,
	// preserving the order of the rest, and returns the dropped ids.
	PruneProducts(ctx context.Context, userID string, keep []string) ([]string, error)
}

// droppedIDs lists the ids of before that are missing from keep.
func droppedIDs(before, keep []string) []string {
	wanted := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		wanted[k] = struct{}{}
	}

	dropped := make([]string, 0)
	for _, id := range before {
		if _, ok := wanted[id]; !ok {
			dropped = append(dropped, id)
		}
	}
	return dropped
}
