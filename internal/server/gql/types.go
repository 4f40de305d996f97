package gql

import (
	"context"
	"time"

	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/dmitrijs2005/listings/internal/server/services"
	graphql "github.com/graph-gophers/graphql-go"
)

// isoTime formats t the way JavaScript's Date.toISOString does.
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

type productResolver struct {
	p    *models.Product
	root *Resolver
}

func (r *productResolver) ID() graphql.ID      { return graphql.ID(r.p.ID) }
func (r *productResolver) Title() string       { return r.p.Title }
func (r *productResolver) Description() string { return r.p.Description }
func (r *productResolver) ProductType() string { return r.p.ProductType }
func (r *productResolver) CreatedAt() string   { return isoTime(r.p.CreatedAt) }
func (r *productResolver) UpdatedAt() string   { return isoTime(r.p.UpdatedAt) }

func (r *productResolver) ImageURLs() *[]string {
	urls := r.p.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return &urls
}

func (r *productResolver) Creator(ctx context.Context) (*userResolver, error) {
	u, err := r.root.users.GetByID(ctx, r.p.CreatorID)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u, root: r.root}, nil
}

type userResolver struct {
	u    *models.User
	root *Resolver
}

func (r *userResolver) ID() graphql.ID { return graphql.ID(r.u.ID) }
func (r *userResolver) Name() string   { return r.u.Name }
func (r *userResolver) Email() string  { return r.u.Email }

// Password is never exposed.
func (r *userResolver) Password() *string { return nil }

func (r *userResolver) Products(ctx context.Context) ([]*productResolver, error) {
	list, err := r.root.products.ByIDs(ctx, r.u.ProductIDs)
	if err != nil {
		return nil, err
	}
	return wrapProducts(list, r.root), nil
}

func wrapProducts(list []*models.Product, root *Resolver) []*productResolver {
	out := make([]*productResolver, len(list))
	for i, p := range list {
		out[i] = &productResolver{p: p, root: root}
	}
	return out
}

type productDataResolver struct {
	page *services.ProductPage
	root *Resolver
}

func (r *productDataResolver) Products() []*productResolver {
	return wrapProducts(r.page.Products, r.root)
}

func (r *productDataResolver) TotalProducts() int32 {
	return int32(r.page.Total)
}

type authDataResolver struct {
	data *services.AuthData
}

func (r *authDataResolver) Token() string  { return r.data.Token }
func (r *authDataResolver) UserID() string { return r.data.UserID }

type deleteProductResolver struct {
	id string
}

func (r *deleteProductResolver) ProductID() graphql.ID { return graphql.ID(r.id) }
