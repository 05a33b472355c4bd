package db

import (
	"context"
	"database/sql"

	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator defines the interface for basic destination database operations.
// It provides connection lifecycle management, catalog queries, and exposes
// connection handles for components that run their own SQL.
//
// Every engine is reachable through DB(). PostgreSQL also exposes its
// pgxpool.Pool for the native bulk-copy protocol.
type Operator interface {
	// Connect opens a connection to the database from cfg.URL.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection.
	Close() error

	// Engine returns the detected engine family.
	Engine() Engine

	// Dialect returns SQL helpers for the engine.
	Dialect() Dialect

	// DB returns a database/sql handle for the connection.
	DB() *sql.DB

	// Pool returns the pgxpool.Pool for PostgreSQL and nil otherwise.
	Pool() *pgxpool.Pool

	// Tables returns names of user tables in the database.
	Tables(ctx context.Context) ([]string, error)

	// Columns returns column names of a table in their stored order.
	Columns(ctx context.Context, table string) ([]string, error)

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, table string) (bool, error)
}
