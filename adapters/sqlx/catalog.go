package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// drivers registered for the supported DSNs
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"quizkit/catalog"
	"quizkit/core"
)

// Driver names the supported SQL backends.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Catalog is a SQL-backed game catalog. Schema:
//
//	CREATE TABLE games (
//	    slug       VARCHAR(64) PRIMARY KEY,
//	    name       VARCHAR(255) NOT NULL,
//	    active     BOOLEAN NOT NULL DEFAULT TRUE,
//	    updated_at TIMESTAMP NOT NULL
//	);
type Catalog struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies connectivity.
func New(config Config) (*Catalog, error) {
	db, err := sqlx.Open(string(config.Driver), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", config.Driver, err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", config.Driver, err)
	}
	return &Catalog{db: db, driver: config.Driver}, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Catalog {
	return &Catalog{db: db, driver: driver}
}

// Close closes the connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// rebind adapts ? placeholders to the driver's style.
func (c *Catalog) rebind(query string) string {
	return c.db.Rebind(query)
}

type gameRow struct {
	Slug   string `db:"slug"`
	Name   string `db:"name"`
	Active bool   `db:"active"`
}

func (c *Catalog) Get(ctx context.Context, slug core.Slug) (catalog.Game, error) {
	var row gameRow
	query := c.rebind(`SELECT slug, name, active FROM games WHERE slug = ?`)
	if err := c.db.GetContext(ctx, &row, query, string(slug)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Game{}, core.ErrNotFound
		}
		return catalog.Game{}, core.Transient("catalog get", err)
	}
	return catalog.Game{Slug: core.Slug(row.Slug), Name: row.Name, Active: row.Active}, nil
}

func (c *Catalog) Put(ctx context.Context, game catalog.Game) error {
	slug, err := core.NormalizeSlug(game.Slug)
	if err != nil {
		return err
	}
	var query string
	switch c.driver {
	case DriverMySQL:
		query = `INSERT INTO games (slug, name, active, updated_at) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE name = VALUES(name), active = VALUES(active), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO games (slug, name, active, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
	}
	_, err = c.db.ExecContext(ctx, c.rebind(query), string(slug), game.Name, game.Active, time.Now().UTC())
	if err != nil {
		return core.Transient("catalog put", err)
	}
	return nil
}

func (c *Catalog) SetActive(ctx context.Context, slug core.Slug, active bool) error {
	query := c.rebind(`UPDATE games SET active = ?, updated_at = ? WHERE slug = ?`)
	res, err := c.db.ExecContext(ctx, query, active, time.Now().UTC(), string(slug))
	if err != nil {
		return core.Transient("catalog set active", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *Catalog) List(ctx context.Context) ([]catalog.Game, error) {
	var rows []gameRow
	query := `SELECT slug, name, active FROM games ORDER BY slug`
	if err := c.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, core.Transient("catalog list", err)
	}
	out := make([]catalog.Game, len(rows))
	for i, r := range rows {
		out[i] = catalog.Game{Slug: core.Slug(r.Slug), Name: r.Name, Active: r.Active}
	}
	return out, nil
}

var _ catalog.Catalog = (*Catalog)(nil)
