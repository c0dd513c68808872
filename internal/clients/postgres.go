package clients

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sony/gobreaker"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Erbium-Sanbercode/22-service-observability/internal/config"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/model"
	"github.com/Erbium-Sanbercode/22-service-observability/internal/orchestrator"
)

const postgresName = "postgres"

// database abstracts the pool + ORM pair so tests can inject a fake without
// standing up a real server.
type database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context, schemas ...any) error
	HasTable(ctx context.Context, table string) error
	Close()
}

// PostgresClient is the relational store facade: a pgx pool with a gorm
// handle on top, wrapped in a circuit breaker.
type PostgresClient struct {
	cfg  config.DatabaseConfig
	cb   *gobreaker.CircuitBreaker
	open func(ctx context.Context, cfg config.DatabaseConfig) (database, error)

	mu sync.RWMutex
	db database
}

// NewPostgresClient creates a PostgresClient. No connection is made until
// Connect.
func NewPostgresClient(cfg config.DatabaseConfig, cb *gobreaker.CircuitBreaker) *PostgresClient {
	return &PostgresClient{
		cfg:  cfg,
		cb:   cb,
		open: openDatabase,
	}
}

func (c *PostgresClient) Name() string { return postgresName }

// Connect opens the pool, pings it and migrates the Worker and Task
// schemas. A second call on a connected client is a no-op.
func (c *PostgresClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	return execute(c.cb, func() error {
		db, err := c.open(ctx, c.cfg)
		if err != nil {
			return err
		}

		if err := db.Ping(ctx); err != nil {
			db.Close()
			return fmt.Errorf("ping: %w", err)
		}

		if err := db.Migrate(ctx, model.All()...); err != nil {
			db.Close()
			return fmt.Errorf("migrating schemas: %w", err)
		}

		c.db = db
		return nil
	})
}

// Probe pings the server and verifies the tasks table exists.
func (c *PostgresClient) Probe(ctx context.Context) orchestrator.ProbeResult {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()

	if db == nil {
		return notConnected(postgresName)
	}

	return probe(c.cb, postgresName, func() error {
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		return db.HasTable(ctx, "tasks")
	})
}

// Release closes the pool. It is called by the launcher once the role
// server has returned, not by the shutdown hook.
func (c *PostgresClient) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
}

// pgDatabase is the real database: the pgx pool plus a gorm handle sharing it.
type pgDatabase struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
	orm   *gorm.DB
}

func (d *pgDatabase) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *pgDatabase) Migrate(ctx context.Context, schemas ...any) error {
	return d.orm.WithContext(ctx).AutoMigrate(schemas...)
}

func (d *pgDatabase) HasTable(ctx context.Context, table string) error {
	var exists int
	row := d.pool.QueryRow(ctx,
		"SELECT 1 FROM information_schema.tables WHERE table_schema='public' AND table_name=$1",
		table,
	)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("%s table not found: %w", table, err)
	}
	return nil
}

func (d *pgDatabase) Close() {
	d.sqlDB.Close() //nolint:errcheck
	d.pool.Close()
}

// openDatabase opens a pgxpool.Pool and layers gorm over it through the
// pgx stdlib adapter.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (database, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	orm, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.NewSlogLogger(slog.Default(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		sqlDB.Close() //nolint:errcheck
		pool.Close()
		return nil, fmt.Errorf("opening gorm: %w", err)
	}

	return &pgDatabase{pool: pool, sqlDB: sqlDB, orm: orm}, nil
}
