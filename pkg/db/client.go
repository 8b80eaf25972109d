package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"

	// defaultRetireAfter is how long a replaced pool stays open for
	// transactions that began on it before Reconnect.
	defaultRetireAfter = 30 * time.Second
)

// Client wraps the shared GORM connection.
type Client struct {
	mu          sync.RWMutex
	conn        *gorm.DB
	cfg         config.DBConfig
	logg        *logger.Logger
	opener      func(cfg config.DBConfig) (*gorm.DB, error)
	retireAfter time.Duration
	retired     []*sql.DB
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New boots a GORM client using the provided configuration.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	conn, err := open(cfg)
	if err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}

	return &Client{conn: conn, cfg: cfg, logg: logg, opener: open}, nil
}

// NewWithConn wraps an already opened connection. Reconnect is unavailable
// on clients built this way.
func NewWithConn(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.EqualFold(cfg.Driver, DriverSQLite) {
		dialector = sqlite.Open(cfg.DSN)
	} else {
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	applyPoolSettings(sqlDB, cfg)

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return conn, nil
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections, including pools still draining
// after a Reconnect.
func (c *Client) Close() error {
	c.mu.Lock()
	retired := c.retired
	c.retired = nil
	c.mu.Unlock()
	for _, sqlDB := range retired {
		_ = sqlDB.Close()
	}

	sqlDB, err := c.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Reconnect replaces the pooled connection with a freshly opened one. The old
// pool stops keeping idle connections and is closed once in-flight work has
// had retireAfter to finish. Callers use it after IsConnectionError.
func (c *Client) Reconnect(ctx context.Context) error {
	if c.opener == nil {
		return fmt.Errorf("reconnect not supported for this client")
	}

	fresh, err := c.opener(c.cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := fresh.DB(); err == nil {
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("pinging reopened connection: %w", err)
		}
	}

	c.mu.Lock()
	old := c.conn
	c.conn = fresh
	c.mu.Unlock()

	if old != nil {
		c.retire(old)
	}

	if c.logg != nil {
		c.logg.Warn(ctx, "database connection re-established")
	}
	return nil
}

func (c *Client) retire(old *gorm.DB) {
	sqlDB, err := old.DB()
	if err != nil {
		return
	}
	sqlDB.SetMaxIdleConns(0)

	c.mu.Lock()
	c.retired = append(c.retired, sqlDB)
	c.mu.Unlock()

	delay := c.retireAfter
	if delay <= 0 {
		delay = defaultRetireAfter
	}
	time.AfterFunc(delay, func() {
		c.mu.Lock()
		for i, pending := range c.retired {
			if pending == sqlDB {
				c.retired = append(c.retired[:i], c.retired[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		_ = sqlDB.Close()
	})
}

// Exec wraps GORM's Exec with context propagation.
func (c *Client) Exec(ctx context.Context, query string, args ...any) *gorm.DB {
	return c.DB().WithContext(ctx).Exec(query, args...)
}

// Raw wraps GORM's Raw with context propagation.
func (c *Client) Raw(ctx context.Context, query string, args ...any) *gorm.DB {
	return c.DB().WithContext(ctx).Raw(query, args...)
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.DB().WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
