package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// DefaultDBPingTimeout bounds the connectivity check in OpenDB
const DefaultDBPingTimeout = 3 * time.Second

var registerModels sync.Once

// DBConfig is the persistence client configuration derived from a
// database url.
type DBConfig struct {
	Driver      string
	DSN         string
	Debug       bool
	PingTimeout time.Duration
}

func (c DBConfig) GetDebug() bool                { return c.Debug }
func (c DBConfig) GetDriver() string             { return c.Driver }
func (c DBConfig) GetServer() string             { return c.DSN }
func (c DBConfig) GetDSN() string                { return c.DSN }
func (c DBConfig) GetPingTimeout() time.Duration { return c.PingTimeout }
func (c DBConfig) GetOtelIdentifier() string     { return "" }

// OpenDB opens a bun database for dsn through the persistence client and
// checks connectivity.
//
//   - postgres:// and postgresql:// use pgx through a pgxpool
//   - file: and sqlite: use the sqlite shim; the sqlite: prefix is stripped
func OpenDB(ctx context.Context, dsn string) (*bun.DB, error) {
	var (
		cfg     DBConfig
		sqldb   *sql.DB
		dialect schema.Dialect
		err     error
	)

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		cfg = DBConfig{Driver: "postgres", DSN: dsn, PingTimeout: DefaultDBPingTimeout}
		sqldb, err = openPostgres(ctx, dsn)
		dialect = pgdialect.New()
	case strings.HasPrefix(dsn, "file:"), strings.HasPrefix(dsn, "sqlite:"):
		cfg = DBConfig{Driver: sqliteshim.ShimName, DSN: strings.TrimPrefix(dsn, "sqlite:"), PingTimeout: DefaultDBPingTimeout}
		sqldb, err = openSQLite(cfg.DSN)
		dialect = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("%w: unsupported database url scheme", ErrConfig)
	}
	if err != nil {
		return nil, err
	}

	registerModels.Do(func() {
		persistence.RegisterModel((*User)(nil))
	})

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}
	db := client.DB()

	if err := PingDB(ctx, db, cfg.PingTimeout); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: database url: %v", ErrConfig, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return stdlib.OpenDBFromPool(pool), nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serialises writers; a single connection avoids SQLITE_BUSY
	// and keeps :memory: databases shared.
	sqldb.SetMaxOpenConns(1)

	return sqldb, nil
}

// PingDB checks if we can reach the database within timeout.
func PingDB(parent context.Context, db *bun.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
