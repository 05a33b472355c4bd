// Package iodb implements destination database operations for SQLite,
// PostgreSQL and MySQL behind one db.Operator.
// This is an impure I/O package that implements contracts
// defined in pkg/.
package iodb

import (
	"context"
	"database/sql"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gnames/dwca-tools/pkg/config"
	"github.com/gnames/dwca-tools/pkg/db"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlOperator implements db.Operator on top of database/sql.
// PostgreSQL connections also keep their pgxpool.Pool.
type sqlOperator struct {
	engine  db.Engine
	dialect db.Dialect
	db      *sql.DB
	pool    *pgxpool.Pool
}

// New creates a new database operator (without connecting).
func New() db.Operator {
	return &sqlOperator{}
}

// Connect detects the engine from cfg.URL and opens a connection.
func (o *sqlOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	engine := db.EngineFromURL(cfg.URL)
	target := Redact(cfg.URL)

	var err error
	switch engine {
	case db.SQLite:
		err = o.connectSQLite(ctx, cfg.URL)
	case db.PostgreSQL:
		err = o.connectPostgres(ctx, cfg.URL)
	case db.MySQL:
		err = o.connectMySQL(ctx, cfg.URL)
	default:
		return UnsupportedEngineError(target)
	}
	if err != nil {
		return ConnectionError(engine.String(), target, err)
	}

	o.engine = engine
	o.dialect = db.NewDialect(engine)
	return nil
}

func (o *sqlOperator) connectSQLite(ctx context.Context, dbURL string) error {
	dsn := SQLitePath(dbURL) + "?_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	// SQLite allows one writer at a time
	conn.SetMaxOpenConns(1)
	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return err
	}
	o.db = conn
	return nil
}

func (o *sqlOperator) connectPostgres(ctx context.Context, dbURL string) error {
	poolConfig, err := pgxpool.ParseConfig(postgresURL(dbURL))
	if err != nil {
		return err
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 0
	poolConfig.MaxConnIdleTime = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}

	o.pool = pool
	o.db = stdlib.OpenDBFromPool(pool)
	return nil
}

func (o *sqlOperator) connectMySQL(ctx context.Context, dbURL string) error {
	cfg, err := mysqlConfig(dbURL)
	if err != nil {
		return err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return err
	}
	conn := sql.OpenDB(connector)
	conn.SetConnMaxLifetime(3 * time.Minute)
	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return err
	}
	o.db = conn
	return nil
}

// Close releases all database connections.
func (o *sqlOperator) Close() error {
	var err error
	if o.db != nil {
		err = o.db.Close()
		o.db = nil
	}
	if o.pool != nil {
		o.pool.Close()
		o.pool = nil
	}
	return err
}

func (o *sqlOperator) Engine() db.Engine {
	return o.engine
}

func (o *sqlOperator) Dialect() db.Dialect {
	return o.dialect
}

func (o *sqlOperator) DB() *sql.DB {
	return o.db
}

// Pool returns the underlying pgxpool.Pool, it is nil for engines other
// than PostgreSQL.
func (o *sqlOperator) Pool() *pgxpool.Pool {
	return o.pool
}

// Tables returns sorted names of user tables.
func (o *sqlOperator) Tables(ctx context.Context) ([]string, error) {
	if o.db == nil {
		return nil, NotConnectedError()
	}

	var query string
	switch o.engine {
	case db.SQLite:
		query = `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	case db.PostgreSQL:
		query = `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	default:
		query = `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	}

	return o.queryStrings(ctx, "information_schema.tables", query)
}

// Columns returns column names of a table in their stored order.
func (o *sqlOperator) Columns(
	ctx context.Context,
	table string,
) ([]string, error) {
	if o.db == nil {
		return nil, NotConnectedError()
	}

	var query string
	switch o.engine {
	case db.SQLite:
		query = `SELECT name FROM pragma_table_info(?) ORDER BY cid`
	case db.PostgreSQL:
		query = `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`
	default:
		query = `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`
	}

	return o.queryStrings(ctx, table, query, table)
}

// TableExists checks if a table exists in the database.
func (o *sqlOperator) TableExists(
	ctx context.Context,
	table string,
) (bool, error) {
	tables, err := o.Tables(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(tables, table), nil
}

func (o *sqlOperator) queryStrings(
	ctx context.Context,
	table, query string,
	args ...any,
) ([]string, error) {
	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, QueryTablesError(table, err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, QueryTablesError(table, err)
		}
		res = append(res, s)
	}
	if err = rows.Err(); err != nil {
		return nil, QueryTablesError(table, err)
	}
	return res, nil
}

// SQLitePath converts a SQLite URL to a file path.
// "sqlite:///data.db" is relative, "sqlite:////tmp/data.db" is absolute.
func SQLitePath(dbURL string) string {
	_, res, ok := strings.Cut(dbURL, "://")
	if !ok {
		return dbURL
	}
	return strings.TrimPrefix(res, "/")
}

// postgresURL drops driver suffixes like "+psycopg2" from the scheme.
func postgresURL(dbURL string) string {
	scheme, rest, _ := strings.Cut(dbURL, "://")
	scheme, _, _ = strings.Cut(scheme, "+")
	if scheme == "pgsql" {
		scheme = "postgres"
	}
	return scheme + "://" + rest
}

func mysqlConfig(dbURL string) (*mysql.Config, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, err
	}
	res := mysql.NewConfig()
	res.Net = "tcp"
	res.Addr = u.Host
	if u.Port() == "" {
		res.Addr = u.Hostname() + ":3306"
	}
	res.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		res.User = u.User.Username()
		res.Passwd, _ = u.User.Password()
	}
	if res.Params == nil {
		res.Params = make(map[string]string)
	}
	for k, v := range u.Query() {
		if len(v) > 0 {
			res.Params[k] = v[0]
		}
	}
	return res, nil
}

// Redact hides the password of a connection URL.
func Redact(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	return u.Redacted()
}
