// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
)

// sqlitePragmas are applied through the DSN so that every connection in
// the pool gets them; a plain Exec("PRAGMA ...") after open would only
// configure whichever connection served that statement. foreign_keys is
// load-bearing: the schema relies on the engine rejecting orphan rows.
var sqlitePragmas = []string{
	"_pragma=journal_mode(WAL)",
	"_pragma=synchronous(NORMAL)",
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
}

// OpenSQLite opens (or creates) the storefront database at path with
// the runtime pragmas applied and the connection pool tuned for a
// single-process bot workload.
func OpenSQLite(path string) (*gorm.DB, error) {
	// A missing parent directory surfaces as an opaque driver error at
	// first write, so reject it up front.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("database directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + strings.Join(sqlitePragmas, "&")

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the storefront schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Product{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Transaction{},
		&domain.Admin{},
	)
}
