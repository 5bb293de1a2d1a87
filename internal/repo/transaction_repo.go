// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Transaction model: the append-only wallet ledger.
//
// The ledger's idempotency guarantee lives here. Transactions carrying
// payment-provider metadata are protected by a composite unique index on
// (provider, provider_charge_id); a second insert for the same charge is
// rejected by the database itself, which serializes racing webhook
// deliveries without any application-level locking. The violation is
// mapped to ErrDuplicateCharge so callers can branch on it.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
)

// ErrDuplicateCharge indicates that a transaction with the same
// (provider, provider_charge_id) pair has already been recorded.
var ErrDuplicateCharge = errors.New("duplicate provider charge")

// CreateTransaction appends a ledger entry. It does not touch the
// owner's cached credit; callers recalculate explicitly afterwards.
// Returns ErrDuplicateCharge when the charge uniqueness index rejects
// the insert.
func CreateTransaction(ctx context.Context, db *gorm.DB, t *domain.Transaction) (*domain.Transaction, error) {
	t.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCharge
		}
		return nil, err
	}
	return t, nil
}

// GetTransaction fetches a ledger entry by id, or ErrNotFound.
func GetTransaction(ctx context.Context, db *gorm.DB, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := db.WithContext(ctx).First(&t, "transaction_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkTransactionRefunded flips the refunded flag to true. The flip is
// one-way and idempotent: the returned bool reports whether this call
// changed anything (false when the row was already refunded). Missing
// rows yield ErrNotFound.
func MarkTransactionRefunded(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("transaction_id = ? AND refunded = ?", id, false).
		Update("refunded", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Either missing or already refunded; look to tell them apart.
		var t domain.Transaction
		if err := db.WithContext(ctx).First(&t, "transaction_id = ?", id).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ListTransactionsPage returns a page of ledger entries, most recent
// first. Pass userID = 0 to page over the whole ledger (the admin view).
func ListTransactionsPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.Transaction, error) {
	q := db.WithContext(ctx).Order("transaction_id desc").Offset(offset).Limit(limit)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var out []domain.Transaction
	err := q.Find(&out).Error
	return out, err
}

// CountTransactions returns the ledger size, optionally scoped to one
// user (userID != 0).
func CountTransactions(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Transaction{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// isUniqueViolation detects unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
