// Package repomanager opens the configured storage backend and vends its
// repositories. The backend is chosen by the DSN scheme.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/repositories/products"
	"github.com/dmitrijs2005/listings/internal/server/repositories/users"
)

const (
	BackendMongo    = "mongodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// TxFunc receives repositories bound to the current unit of work.
type TxFunc func(ctx context.Context, users users.Repository, products products.Repository) error

// RepositoryManager gives access to the repositories of one storage backend.
type RepositoryManager interface {
	Backend() string
	Users() users.Repository
	Products() products.Repository

	// WithinTransaction runs fn so that its writes commit or roll back
	// together where the backend supports it. On MongoDB the writes are
	// applied one after another without a transaction.
	WithinTransaction(ctx context.Context, fn TxFunc) error

	RunMigrations(ctx context.Context) error
	Close(ctx context.Context) error
}

// BackendOf maps a DSN to a backend name.
func BackendOf(dsn string) (string, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", fmt.Errorf("%w: %q has no scheme", common.ErrorUnsupportedBackend, redact(dsn))
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("%w: %s", common.ErrorUnsupportedBackend, scheme)
	}
}

// Open connects to the backend named by dsn. dbName is used by MongoDB only.
func Open(ctx context.Context, dsn, dbName string, log logging.Logger) (RepositoryManager, error) {
	backend, err := BackendOf(dsn)
	if err != nil {
		return nil, err
	}

	var m RepositoryManager
	switch backend {
	case BackendMongo:
		m, err = NewMongoRepositoryManager(ctx, dsn, dbName)
	case BackendPostgres:
		m, err = NewPostgresRepositoryManager(ctx, dsn)
	default:
		m = NewMemoryRepositoryManager()
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}

	log.Info(ctx, "storage connected", "backend", backend)
	return m, nil
}

// redact keeps credentials out of error messages.
func redact(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		return "***" + dsn[at:]
	}
	return dsn
}
