package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/auth"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/dmitrijs2005/listings/internal/server/repositories/products"
	"github.com/dmitrijs2005/listings/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/listings/internal/server/repositories/users"
	"github.com/dmitrijs2005/listings/internal/server/validation"
)

const (
	// AllProductTypes lists every product regardless of type.
	AllProductTypes = "all"
	// PageSize is the number of products per getPosts page.
	PageSize = 10
)

// undefinedImages is what some clients send when they have no image list.
// Such an update leaves the stored images untouched.
var undefinedImages = []string{"undefined"}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Title       string
	Description string
	ProductType string
	ImageURLs   []string
}

// UpdateProductInput carries an update. A nil ImageURLs keeps the current
// images.
type UpdateProductInput struct {
	ID string
	ProductInput
}

// ProductPage is one page of products plus the total count across all pages.
type ProductPage struct {
	Products []*models.Product
	Total    int64
}

// ProductService manages products on behalf of an authenticated identity.
type ProductService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	clock       *clock
}

// NewProductService returns a ProductService backed by m.
func NewProductService(m repomanager.RepositoryManager, log logging.Logger) *ProductService {
	return &ProductService{repomanager: m, log: log, clock: newClock(nil)}
}

// WithClock replaces the time source. It is meant for tests.
func (s *ProductService) WithClock(now func() time.Time) *ProductService {
	s.clock = newClock(now)
	return s
}

// Create validates in, stores the product and links it to the caller.
func (s *ProductService) Create(ctx context.Context, id auth.Identity, in ProductInput) (*models.Product, error) {
	if !id.Authenticated() {
		return nil, apperr.Unauthorized("Not authenticated.")
	}

	if details := validation.ValidateProduct(in.Title, in.Description, in.ImageURLs, in.ProductType); details != nil {
		return nil, apperr.Validation(details)
	}

	user, err := s.repomanager.Users().GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Unauthorized("No user found.")
		}
		return nil, internalError(ctx, s.log, "get user", err)
	}

	now := s.clock.stamp()
	product := &models.Product{
		ID:          newID(),
		Title:       in.Title,
		Description: in.Description,
		ProductType: in.ProductType,
		ImageURLs:   in.ImageURLs,
		CreatorID:   user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}

	var created *models.Product
	err = s.repomanager.WithinTransaction(ctx, func(ctx context.Context, us users.Repository, ps products.Repository) error {
		var err error
		if created, err = ps.Create(ctx, product); err != nil {
			return err
		}
		return us.AddProduct(ctx, user.ID, product.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Unauthorized("No user found.")
		}
		return nil, internalError(ctx, s.log, "create product", err)
	}

	s.log.Info(ctx, "product created", "product_id", created.ID, "user_id", user.ID)
	return created, nil
}

// Update changes a product owned by the caller.
func (s *ProductService) Update(ctx context.Context, id auth.Identity, in UpdateProductInput) (*models.Product, error) {
	if !id.Authenticated() {
		return nil, apperr.Unauthorized("Not authenticated.")
	}

	if details := validation.ValidateProduct(in.Title, in.Description, in.ImageURLs, in.ProductType); details != nil {
		return nil, apperr.New("Invalid product data.", http.StatusUnprocessableEntity, details...)
	}

	repo := s.repomanager.Products()

	product, err := repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound("No product found")
		}
		return nil, internalError(ctx, s.log, "get product", err)
	}

	if product.CreatorID != id.UserID {
		return nil, apperr.Forbidden("You are not authorized to modify this product.")
	}

	product.Title = in.Title
	product.Description = in.Description
	if in.ImageURLs != nil && !isUndefinedImages(in.ImageURLs) {
		product.ImageURLs = in.ImageURLs
	}
	if in.ProductType != "" {
		product.ProductType = in.ProductType
	}
	product.UpdatedAt = s.clock.after(product.UpdatedAt)

	updated, err := repo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound("No product found")
		}
		return nil, internalError(ctx, s.log, "update product", err)
	}
	return updated, nil
}

func isUndefinedImages(urls []string) bool {
	return len(urls) == len(undefinedImages) && urls[0] == undefinedImages[0]
}

// Delete removes the product and its id from the owner's product list and
// returns the deleted id.
func (s *ProductService) Delete(ctx context.Context, id auth.Identity, productID string) (string, error) {
	if !id.Authenticated() {
		return "", apperr.Unauthorized("Not authenticated.")
	}

	product, err := s.repomanager.Products().GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", apperr.NotFound("No product with that ID found.")
		}
		return "", internalError(ctx, s.log, "get product", err)
	}

	if product.CreatorID != id.UserID {
		return "", apperr.Forbidden("You are not authorized to delete this product.")
	}

	err = s.repomanager.WithinTransaction(ctx, func(ctx context.Context, us users.Repository, ps products.Repository) error {
		if err := us.RemoveProduct(ctx, id.UserID, productID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return apperr.Unauthorized("No user found.")
			}
			return err
		}
		if err := ps.Delete(ctx, productID); err != nil {
			s.log.Warn(ctx, "delete product failed", "product_id", productID, "error", err)
			return apperr.Wrap(err, "Failed to delete product.", http.StatusNotFound)
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return "", err
		}
		return "", internalError(ctx, s.log, "delete product", err)
	}

	s.log.Info(ctx, "product deleted", "product_id", productID, "user_id", id.UserID)
	return productID, nil
}

// Get returns a single product to a signed-in caller.
func (s *ProductService) Get(ctx context.Context, id auth.Identity, productID string) (*models.Product, error) {
	if !id.Authenticated() {
		return nil, apperr.Unauthorized("Not Authenticated.")
	}

	product, err := s.repomanager.Products().GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound("No product found")
		}
		return nil, internalError(ctx, s.log, "get product", err)
	}
	return product, nil
}

// List returns every product of productType ("all" for every type), oldest
// first. Total is the size of the whole collection, not of the filtered set.
func (s *ProductService) List(ctx context.Context, productType string) (*ProductPage, error) {
	filter := products.ListFilter{}
	if productType != AllProductTypes {
		filter.ProductType = productType
	}
	return s.page(ctx, filter)
}

// ListPage returns the page-th page of PageSize products, newest first.
// Pages start at 1; smaller values are treated as 1.
func (s *ProductService) ListPage(ctx context.Context, id auth.Identity, page int) (*ProductPage, error) {
	if !id.Authenticated() {
		return nil, apperr.Unauthorized("Not authenticated.")
	}
	if page < 1 {
		page = 1
	}
	return s.page(ctx, products.ListFilter{
		NewestFirst: true,
		Offset:      int64(page-1) * PageSize,
		Limit:       PageSize,
	})
}

func (s *ProductService) page(ctx context.Context, filter products.ListFilter) (*ProductPage, error) {
	repo := s.repomanager.Products()

	total, err := repo.Count(ctx, "")
	if err != nil {
		return nil, internalError(ctx, s.log, "count products", err)
	}

	list, err := repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(ctx, s.log, "list products", err)
	}

	return &ProductPage{Products: list, Total: total}, nil
}

// ByIDs resolves product ids, skipping ids that no longer exist.
func (s *ProductService) ByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	list, err := s.repomanager.Products().GetByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(ctx, s.log, "get products", err)
	}
	return list, nil
}

// Cleanup keeps only those of the caller's product ids that appear in keep
// and returns the ids it dropped. Product records are left alone.
// A nil keep is rejected rather than read as "drop everything".
func (s *ProductService) Cleanup(ctx context.Context, id auth.Identity, keep []string) ([]string, error) {
	if !id.Authenticated() {
		return nil, apperr.Unauthorized("Not Authenticated.")
	}
	if keep == nil {
		return nil, apperr.Validation([]apperr.Detail{{Message: "productIdArray is required."}})
	}

	dropped, err := s.repomanager.Users().PruneProducts(ctx, id.UserID, keep)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Unauthorized("No user found.")
		}
		return nil, internalError(ctx, s.log, "prune user products", err)
	}

	if len(dropped) > 0 {
		s.log.Info(ctx, "product references cleaned", "user_id", id.UserID, "dropped", len(dropped))
	}
	return dropped, nil
}
