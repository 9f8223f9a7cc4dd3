package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ConnectionOptions holds everything needed to open the postgres pool.
type ConnectionOptions struct {
	Driver          string
	Host            string
	Port            string
	UserName        string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the options as a lib/pq connection string.
func (o ConnectionOptions) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.UserName, o.Password, o.Name, o.SSLMode,
	)
}

// Connect opens and pings the database, then applies the pool limits.
func Connect(opts ConnectionOptions) (*sqlx.DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sqlx.Connect(driver, opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database '%s': %w", opts.Name, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}
