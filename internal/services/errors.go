// Package services defines the business logic for the wallet ledger,
// catalog, orders, and admin permissions. This file centralizes common
// service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing bot messages is performed by the calling
// layer (the bot's command handlers).
package services

import (
	"errors"

	"github.com/avalle/go-store-backend/internal/repo"
)

// Not-found errors.
var (
	// ErrUserNotFound indicates that no wallet account exists for the
	// requested Telegram id.
	ErrUserNotFound = errors.New("user not found")

	// ErrProductNotFound indicates that the requested product id does
	// not resolve to any catalog row.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound indicates that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrTransactionNotFound indicates that the requested ledger entry
	// does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAdminNotFound indicates that the user holds no admin record.
	ErrAdminNotFound = errors.New("admin not found")
)

// Ledger and order invariant violations. These are rejected at the
// boundary of the mutating operation, never repaired after the fact.
var (
	// ErrDuplicateCharge is returned when recording a transaction whose
	// (provider, provider_charge_id) pair has already been persisted.
	// It re-exports the repo sentinel so callers can match either.
	ErrDuplicateCharge = repo.ErrDuplicateCharge

	// ErrAlreadyFinalized is returned when delivering a refunded order
	// or refunding a delivered one. Delivered and Refunded are terminal.
	ErrAlreadyFinalized = errors.New("order already delivered or refunded")

	// ErrInsufficientCredit is returned when an order total exceeds the
	// buyer's current credit.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrNotPurchasable is returned when an order line references a
	// soft-deleted or priceless product.
	ErrNotPurchasable = errors.New("product not available for purchase")

	// ErrEmptyOrder is returned when placing an order with no lines.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInvalidQuantity is returned when an order line quantity is
	// below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrOwnerImmutable is returned when attempting to demote the owner
	// or strip the owner flag.
	ErrOwnerImmutable = errors.New("owner admin cannot be demoted")
)
