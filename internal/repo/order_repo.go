// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order
// aggregate and its OrderItem lines.
//
// Finalization (delivery, refund) is guarded inside the UPDATE itself:
// the WHERE clause requires the opposing date column to be NULL, so a
// conflicting transition affects zero rows instead of clobbering a
// terminal state. Callers distinguish "missing" from "already finalized"
// via the returned sentinel.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
)

// ErrFinalized indicates that an order has already reached a terminal
// state (delivered or refunded) and cannot take the requested
// transition.
var ErrFinalized = errors.New("order already finalized")

// CreateOrder inserts the order row together with its item lines.
// GORM persists the associated Items slice in the same statement batch;
// run this inside a transaction when the linked ledger entry must
// commit atomically with it.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) (*domain.Order, error) {
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches an order with its items (and their products), the
// linked transaction, and the buyer preloaded, or ErrNotFound. The
// buyer must be loaded for rendering: the admin order view mentions the
// user.
func GetOrder(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Transaction").
		Preload("User").
		First(&o, "order_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersPage returns a page of orders, most recent first, with
// items and transactions preloaded. Pass userID = 0 for all users.
func ListOrdersPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.Order, error) {
	q := db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Transaction").
		Preload("User").
		Order("order_id desc").
		Offset(offset).
		Limit(limit)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var out []domain.Order
	err := q.Find(&out).Error
	return out, err
}

// CountOrders returns the number of orders, optionally scoped to one
// user (userID != 0).
func CountOrders(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Order{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListPendingOrders returns orders awaiting processing (neither
// delivered nor refunded), oldest first, for the admin work queue.
func ListPendingOrders(ctx context.Context, db *gorm.DB) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Transaction").
		Preload("User").
		Where("delivery_date IS NULL AND refund_date IS NULL").
		Order("order_id asc").
		Find(&out).Error
	return out, err
}

// MarkOrderDelivered stamps the delivery date. Fails with ErrFinalized
// when the order was refunded (or already delivered), ErrNotFound when
// it does not exist.
func MarkOrderDelivered(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_id = ? AND delivery_date IS NULL AND refund_date IS NULL", id).
		Update("delivery_date", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return finalizationError(ctx, db, id)
	}
	return nil
}

// MarkOrderRefunded stamps the refund date and reason. Fails with
// ErrFinalized when the order was delivered (or already refunded),
// ErrNotFound when it does not exist. The linked transaction flip is
// the caller's responsibility (inside the same DB transaction).
func MarkOrderRefunded(ctx context.Context, db *gorm.DB, id int64, at time.Time, reason string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_id = ? AND delivery_date IS NULL AND refund_date IS NULL", id).
		Updates(map[string]any{
			"refund_date":   at,
			"refund_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return finalizationError(ctx, db, id)
	}
	return nil
}

// finalizationError resolves a zero-rows-affected finalization UPDATE
// into ErrNotFound or ErrFinalized.
func finalizationError(ctx context.Context, db *gorm.DB, id int64) error {
	var o domain.Order
	if err := db.WithContext(ctx).Select("order_id").First(&o, "order_id = ?", id).Error; err != nil {
		return err
	}
	return ErrFinalized
}
