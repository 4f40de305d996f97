package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/dbx"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE raised by a unique index.
const uniqueViolation = "23505"

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository runs its queries on db, which may be a transaction.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ProductIDs == nil {
		user.ProductIDs = []string{}
	}

	query :=
		`INSERT INTO users (id, email, name, password_hash, product_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, pq.Array(user.ProductIDs), user.CreatedAt, user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `SELECT id, email, name, password_hash, product_ids, created_at, updated_at FROM users`

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var productIDs pq.StringArray

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &productIDs, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ProductIDs = []string(productIDs)
	if user.ProductIDs == nil {
		user.ProductIDs = []string{}
	}
	return user, nil
}

func (r *PostgresRepository) AddProduct(ctx context.Context, userID, productID string) error {
	query :=
		`UPDATE users
		 SET product_ids = CASE WHEN $2 = ANY(product_ids) THEN product_ids ELSE array_append(product_ids, $2) END,
		     updated_at = $3
		 WHERE id = $1
		 `
	return r.exec(ctx, query, userID, productID, r.now().UTC())
}

func (r *PostgresRepository) RemoveProduct(ctx context.Context, userID, productID string) error {
	query :=
		`UPDATE users
		 SET product_ids = array_remove(product_ids, $2), updated_at = $3
		 WHERE id = $1
		 `
	return r.exec(ctx, query, userID, productID, r.now().UTC())
}

// PruneProducts locks the row, filters its array in the same statement and
// returns the array as it was before the update.
func (r *PostgresRepository) PruneProducts(ctx context.Context, userID string, keep []string) ([]string, error) {
	if keep == nil {
		keep = []string{}
	}

	query :=
		`WITH old AS (SELECT product_ids FROM users WHERE id = $1 FOR UPDATE)
		 UPDATE users
		 SET product_ids = ARRAY(
		         SELECT x FROM unnest(old.product_ids) WITH ORDINALITY AS t(x, n)
		         WHERE x = ANY($2) ORDER BY n),
		     updated_at = $3
		 FROM old
		 WHERE users.id = $1
		 RETURNING old.product_ids
		 `

	var before pq.StringArray
	err := r.db.QueryRowContext(ctx, query, userID, pq.Array(keep), r.now().UTC()).Scan(&before)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return droppedIDs(before, keep), nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
