// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User
// model: the wallet account side of the ledger.
//
// All functions are context-aware and accept a *gorm.DB handle, making
// them safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// CRUD persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avalle/go-store-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a user row keyed by its Telegram id with zero
// credit. If a row with the same id already exists, the insert is a
// no-op and the stored row is returned with created = false, so
// first-contact creation is idempotent under repeated updates from the
// platform.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) (*domain.User, bool, error) {
	u.CreatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Row already existed; hand back what is stored.
		existing, err := GetUser(ctx, db, u.UserID)
		return existing, false, err
	}
	return u, true, nil
}

// GetUser fetches a user by Telegram id, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the total number of registered users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// ListUsersPage returns a page of users ordered by creation time
// descending. The caller computes offset and limit.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SumNonRefunded computes the user's spendable credit as the fold over
// the transaction log: SUM(value) across non-refunded rows, zero when
// the user has no transactions. This is the single source of truth the
// cached users.credit column is refreshed from.
func SumNonRefunded(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("user_id = ? AND refunded = ?", userID, false).
		Select("COALESCE(SUM(value), 0)").
		Scan(&total).Error
	return total, err
}

// UpdateUserCredit overwrites the cached credit column. If the user is
// missing, it returns ErrNotFound.
func UpdateUserCredit(ctx context.Context, db *gorm.DB, userID int64, credit int64) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Update("credit", credit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
