// Package domain defines the persistence models for the storefront:
// users, wallet transactions, admins, products, orders, and order items.
// These types are mapped with GORM and form the core data layer of the
// bot backend.
package domain

import (
	"fmt"
	"time"
)

// User represents a Telegram user who contacted the bot at least once.
// The primary key is the numeric Telegram user id, so user creation is
// naturally idempotent per platform identity.
//
// Fields:
//   - UserID: Telegram user id (int64 primary key, never reused).
//   - FirstName / LastName: display names from the platform profile.
//   - Username: optional public handle, without the leading "@".
//   - Language: BCP-47 language tag; falls back to a configured default
//     when the platform supplies none.
//   - Credit: cached wallet balance in minor currency units. Derived,
//     not authoritative: it must always equal the sum of Value over the
//     user's non-refunded transactions, and is refreshed only via the
//     ledger's explicit recalculation operation.
type User struct {
	UserID    int64     `json:"user_id"    gorm:"primaryKey;autoIncrement:false"`
	FirstName string    `json:"first_name" gorm:"type:varchar(128);not null"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(128)"`
	Username  string    `json:"username"   gorm:"type:varchar(64)"`
	Language  string    `json:"language"   gorm:"type:varchar(16);not null"`
	Credit    int64     `json:"credit"     gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// String renders the user the way the bot displays them in lists:
// "@username" when a handle exists, otherwise the full name.
func (u *User) String() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FullName()
}

// FullName returns "First Last", or just the first name when no last
// name is set.
func (u *User) FullName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// Mention returns a Telegram-HTML mention for the user: the @handle
// when one exists, otherwise a tg://user deep link wrapping the first
// name.
func (u *User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.UserID, u.FirstName)
}

// IdentifiableStr returns a log-friendly identifier combining the
// numeric id with the display form.
func (u *User) IdentifiableStr() string {
	return fmt.Sprintf("user_%d (%s)", u.UserID, u.String())
}

// Transaction is a single wallet ledger entry. Rows are append-only in
// intent: a refund flips the Refunded flag (excluding the row from
// credit computation) but never deletes or rewrites the value, so the
// balance stays reconstructible from the log alone.
//
// Provider metadata is present only for entries originating from a
// payment provider. The (provider, provider_charge_id) pair carries a
// composite unique index: recording the same provider charge twice is
// rejected by the database, which is what makes webhook delivery safe
// under at-least-once retries. NULL columns never collide, so manual
// entries without provider data are unconstrained.
type Transaction struct {
	TransactionID int64  `json:"transaction_id" gorm:"primaryKey;autoIncrement"`
	UserID        int64  `json:"user_id"        gorm:"not null;index"`
	Value         int64  `json:"value"          gorm:"not null"`
	Refunded      bool   `json:"refunded"       gorm:"not null;default:false"`
	Notes         string `json:"notes"          gorm:"type:text"`

	Provider         *string `json:"provider,omitempty"           gorm:"type:varchar(64);uniqueIndex:ux_provider_charge,priority:1"`
	TelegramChargeID *string `json:"telegram_charge_id,omitempty" gorm:"type:varchar(128)"`
	ProviderChargeID *string `json:"provider_charge_id,omitempty" gorm:"type:varchar(128);uniqueIndex:ux_provider_charge,priority:2"`
	PaymentName      *string `json:"payment_name,omitempty"       gorm:"type:varchar(128)"`
	PaymentPhone     *string `json:"payment_phone,omitempty"      gorm:"type:varchar(32)"`
	PaymentEmail     *string `json:"payment_email,omitempty"      gorm:"type:varchar(128)"`

	OrderID   *int64    `json:"order_id,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`

	// User is the owning wallet account. The association stays untagged
	// so it resolves as belongs-to through the UserID column above; a
	// foreignKey/references override naming a field that exists on both
	// sides makes GORM build the relation backwards (has-one with the
	// constraint emitted on users).
	User User `json:"-" gorm:"constraint:OnUpdate:CASCADE"`
}

// TableName returns the database table name for Transaction.
func (Transaction) TableName() string { return "transactions" }

// Admin is a one-to-one extension of a User granting capability flags.
// Deleting the row revokes admin status; the underlying User remains.
type Admin struct {
	UserID             int64     `json:"user_id"             gorm:"primaryKey;autoIncrement:false"`
	EditProducts       bool      `json:"edit_products"       gorm:"not null;default:false"`
	ReceiveOrders      bool      `json:"receive_orders"      gorm:"not null;default:false"`
	CreateTransactions bool      `json:"create_transactions" gorm:"not null;default:false"`
	DisplayOnHelp      bool      `json:"display_on_help"     gorm:"not null;default:false"`
	IsOwner            bool      `json:"is_owner"            gorm:"not null;default:false"`
	LiveMode           bool      `json:"live_mode"           gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// User is the account this admin record extends. Untagged so the
	// relation resolves as belongs-to and the constraint lands on
	// admins, not users.
	User User `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Admin.
func (Admin) TableName() string { return "admins" }

// Product is a catalog item. Products are soft-deleted (Deleted flag)
// rather than removed, so historic order items keep resolving. A nil
// Price also marks the product as not purchasable while it is being
// drafted by an admin.
type Product struct {
	ID          int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name"        gorm:"type:varchar(128);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       *int64    `json:"price,omitempty"`
	Image       []byte    `json:"-"           gorm:"type:blob"`
	Deleted     bool      `json:"deleted"     gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Purchasable reports whether the product may enter new orders.
// Soft-deleted and priceless products remain resolvable by id for
// rendering old orders but are excluded from purchase.
func (p *Product) Purchasable() bool {
	return !p.Deleted && p.Price != nil
}

// OrderStatus is the derived lifecycle state of an Order.
type OrderStatus string

// Order lifecycle states. Delivered and Refunded are terminal.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order is the aggregate root for a purchase: it owns its OrderItems
// and links exactly one Transaction (the charge against the buyer's
// wallet). Status is never stored; it is derived from the two optional
// timestamps, with delivery taking precedence.
//
// The order total is read from the linked transaction: a purchase is a
// negative ledger entry from the buyer's perspective, so the positive
// total is -Transaction.Value.
type Order struct {
	OrderID      int64      `json:"order_id"      gorm:"primaryKey;autoIncrement"`
	UserID       int64      `json:"user_id"       gorm:"not null;index"`
	CreationDate time.Time  `json:"creation_date" gorm:"not null"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	RefundDate   *time.Time `json:"refund_date,omitempty"`
	RefundReason string     `json:"refund_reason,omitempty" gorm:"type:text"`
	Notes        string     `json:"notes,omitempty"         gorm:"type:text"`

	// Items are the snapshot lines composing this order.
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	// Transaction is the single wallet charge backing this order.
	Transaction *Transaction `json:"transaction,omitempty" gorm:"foreignKey:OrderID;references:OrderID"`
	// User is the buyer. Untagged so the relation resolves as
	// belongs-to with the constraint on orders.
	User User `json:"-" gorm:"constraint:OnUpdate:CASCADE"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// Status derives the order state from its timestamps. Delivery is
// checked first, matching the precedence used everywhere the bot
// renders orders.
func (o *Order) Status() OrderStatus {
	switch {
	case o.DeliveryDate != nil:
		return OrderStatusDelivered
	case o.RefundDate != nil:
		return OrderStatusRefunded
	default:
		return OrderStatusPending
	}
}

// Total returns the positive order value in minor units, read through
// the linked transaction. Zero when the transaction is not loaded.
func (o *Order) Total() int64 {
	if o.Transaction == nil {
		return 0
	}
	return -o.Transaction.Value
}

// OrderItem is one snapshot line of an order: N units of a product at
// the unit price in effect when the order was placed. Lines are
// immutable after creation; the price snapshot keeps historic orders
// rendering correctly even after the product is re-priced or
// soft-deleted.
type OrderItem struct {
	ItemID    int64 `json:"item_id"    gorm:"primaryKey;autoIncrement"`
	OrderID   int64 `json:"order_id"   gorm:"not null;index"`
	ProductID int64 `json:"product_id" gorm:"not null;index"`
	Quantity  int   `json:"quantity"   gorm:"not null;check:quantity >= 1"`
	UnitPrice int64 `json:"unit_price" gorm:"not null"`

	// Product is the catalog item this line references. The reference
	// survives soft deletion of the product.
	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// Subtotal returns Quantity * UnitPrice in minor units.
func (it *OrderItem) Subtotal() int64 {
	return int64(it.Quantity) * it.UnitPrice
}
