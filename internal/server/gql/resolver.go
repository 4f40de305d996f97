package gql

import (
	"context"

	"github.com/dmitrijs2005/listings/internal/server/auth"
	"github.com/dmitrijs2005/listings/internal/server/services"
	graphql "github.com/graph-gophers/graphql-go"
)

// Resolver is the root resolver for both RootQuery and RootMutation. The
// caller's identity is read from the request context and handed to the
// services explicitly.
type Resolver struct {
	users    *services.UserService
	products *services.ProductService
}

// NewResolver returns the root resolver for the schema.
func NewResolver(users *services.UserService, products *services.ProductService) *Resolver {
	return &Resolver{users: users, products: products}
}

type userInput struct {
	Email    string
	Name     string
	Password string
}

type productInput struct {
	Title       string
	ImageURLs   []string
	Description string
	ProductType string
}

type updateProductInput struct {
	ID          graphql.ID
	Title       string
	ImageURLs   *[]string
	Description string
	ProductType string
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authDataResolver, error) {
	data, err := r.users.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, err
	}
	return &authDataResolver{data: data}, nil
}

func (r *Resolver) GetProducts(ctx context.Context, args struct{ ProductType string }) (*productDataResolver, error) {
	page, err := r.products.List(ctx, args.ProductType)
	if err != nil {
		return nil, err
	}
	return &productDataResolver{page: page, root: r}, nil
}

func (r *Resolver) GetProduct(ctx context.Context, args struct{ ProductID graphql.ID }) (*productResolver, error) {
	p, err := r.products.Get(ctx, auth.IdentityFrom(ctx), string(args.ProductID))
	if err != nil {
		return nil, err
	}
	return &productResolver{p: p, root: r}, nil
}

func (r *Resolver) GetPosts(ctx context.Context, args struct{ Page *int32 }) (*productDataResolver, error) {
	page := 1
	if args.Page != nil {
		page = int(*args.Page)
	}

	data, err := r.products.ListPage(ctx, auth.IdentityFrom(ctx), page)
	if err != nil {
		return nil, err
	}
	return &productDataResolver{page: data, root: r}, nil
}

// CreateUser treats a missing userInput as empty input, which fails validation.
func (r *Resolver) CreateUser(ctx context.Context, args struct{ UserInput *userInput }) (*userResolver, error) {
	in := userInput{}
	if args.UserInput != nil {
		in = *args.UserInput
	}

	u, err := r.users.Register(ctx, in.Email, in.Name, in.Password)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u, root: r}, nil
}

func (r *Resolver) CreateProduct(ctx context.Context, args struct{ ProductInput *productInput }) (*productResolver, error) {
	in := productInput{}
	if args.ProductInput != nil {
		in = *args.ProductInput
	}

	p, err := r.products.Create(ctx, auth.IdentityFrom(ctx), services.ProductInput{
		Title:       in.Title,
		Description: in.Description,
		ProductType: in.ProductType,
		ImageURLs:   in.ImageURLs,
	})
	if err != nil {
		return nil, err
	}
	return &productResolver{p: p, root: r}, nil
}

func (r *Resolver) UpdateProduct(ctx context.Context, args struct{ ProductInput *updateProductInput }) (*productResolver, error) {
	in := updateProductInput{}
	if args.ProductInput != nil {
		in = *args.ProductInput
	}

	var images []string
	if in.ImageURLs != nil {
		images = *in.ImageURLs
		if images == nil {
			images = []string{}
		}
	}

	p, err := r.products.Update(ctx, auth.IdentityFrom(ctx), services.UpdateProductInput{
		ID: string(in.ID),
		ProductInput: services.ProductInput{
			Title:       in.Title,
			Description: in.Description,
			ProductType: in.ProductType,
			ImageURLs:   images,
		},
	})
	if err != nil {
		return nil, err
	}
	return &productResolver{p: p, root: r}, nil
}

func (r *Resolver) DeleteProduct(ctx context.Context, args struct{ ProductID graphql.ID }) (*deleteProductResolver, error) {
	id, err := r.products.Delete(ctx, auth.IdentityFrom(ctx), string(args.ProductID))
	if err != nil {
		return nil, err
	}
	return &deleteProductResolver{id: id}, nil
}

func (r *Resolver) CleanupHelper(ctx context.Context, args struct{ ProductIDArray *[]graphql.ID }) ([]graphql.ID, error) {
	var keep []string
	if args.ProductIDArray != nil {
		keep = make([]string, len(*args.ProductIDArray))
		for i, id := range *args.ProductIDArray {
			keep[i] = string(id)
		}
	}

	dropped, err := r.products.Cleanup(ctx, auth.IdentityFrom(ctx), keep)
	if err != nil {
		return nil, err
	}

	out := make([]graphql.ID, len(dropped))
	for i, id := range dropped {
		out[i] = graphql.ID(id)
	}
	return out, nil
}
