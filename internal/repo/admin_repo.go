// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Admin
// model: per-user capability flags.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
)

// CreateAdmin inserts an admin record for an existing user.
func CreateAdmin(ctx context.Context, db *gorm.DB, a *domain.Admin) (*domain.Admin, error) {
	a.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAdmin fetches the admin record for userID, or ErrNotFound.
func GetAdmin(ctx context.Context, db *gorm.DB, userID int64) (*domain.Admin, error) {
	var a domain.Admin
	if err := db.WithContext(ctx).First(&a, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAdminFlags overwrites the capability flags of an existing admin.
// The is_owner flag is deliberately not touched here; ownership is
// immutable at the service layer. Returns ErrNotFound when missing.
func UpdateAdminFlags(ctx context.Context, db *gorm.DB, userID int64, a *domain.Admin) error {
	res := db.WithContext(ctx).
		Model(&domain.Admin{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"edit_products":       a.EditProducts,
			"receive_orders":      a.ReceiveOrders,
			"create_transactions": a.CreateTransactions,
			"display_on_help":     a.DisplayOnHelp,
			"live_mode":           a.LiveMode,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAdmin revokes admin status by removing the record. The user row
// is untouched. Returns ErrNotFound when there was nothing to revoke.
func DeleteAdmin(ctx context.Context, db *gorm.DB, userID int64) error {
	res := db.WithContext(ctx).Delete(&domain.Admin{}, "user_id = ?", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAdminsDisplayedOnHelp returns admins flagged for public listing,
// with their user rows preloaded for display.
func ListAdminsDisplayedOnHelp(ctx context.Context, db *gorm.DB) ([]domain.Admin, error) {
	var out []domain.Admin
	err := db.WithContext(ctx).
		Preload("User").
		Where("display_on_help = ?", true).
		Find(&out).Error
	return out, err
}

// ListOrderReceivers returns admins who should be notified of new
// orders.
func ListOrderReceivers(ctx context.Context, db *gorm.DB) ([]domain.Admin, error) {
	var out []domain.Admin
	err := db.WithContext(ctx).
		Preload("User").
		Where("receive_orders = ?", true).
		Find(&out).Error
	return out, err
}
