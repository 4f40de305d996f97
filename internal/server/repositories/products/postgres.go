package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/dbx"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/lib/pq"
)

// PostgresRepository stores products in the products table.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository runs its queries on db, which may be a transaction.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectProduct = `SELECT id, title, description, product_type, image_urls, creator_id, created_at, updated_at FROM products`

func (r *PostgresRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ImageURLs == nil {
		product.ImageURLs = []string{}
	}

	query :=
		`INSERT INTO products (id, title, description, product_type, image_urls, creator_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Description, product.ProductType,
		pq.Array(product.ImageURLs), product.CreatorID, product.CreatedAt, product.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return product, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, selectProduct+` WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return product, nil
}

func (r *PostgresRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	imageURLs := product.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	query :=
		`UPDATE products
		 SET title = $2, description = $3, product_type = $4, image_urls = $5, updated_at = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Description, product.ProductType, pq.Array(imageURLs), product.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectAffected(res)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*models.Product, error) {
	var (
		b    strings.Builder
		args []any
	)

	b.WriteString(selectProduct)
	if filter.ProductType != "" {
		args = append(args, filter.ProductType)
		fmt.Fprintf(&b, ` WHERE product_type = $%d`, len(args))
	}

	if filter.NewestFirst {
		b.WriteString(` ORDER BY created_at DESC, id DESC`)
	} else {
		b.WriteString(` ORDER BY created_at ASC, id ASC`)
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}

	return r.query(ctx, b.String(), args...)
}

func (r *PostgresRepository) Count(ctx context.Context, productType string) (int64, error) {
	query := `SELECT COUNT(*) FROM products`
	var args []any
	if productType != "" {
		query += ` WHERE product_type = $1`
		args = append(args, productType)
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}

	found, err := r.query(ctx, selectProduct+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return orderByIDs(ids, found), nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	var imageURLs pq.StringArray

	if err := s.Scan(&p.ID, &p.Title, &p.Description, &p.ProductType, &imageURLs,
		&p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.ImageURLs = []string(imageURLs)
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	return p, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
