// Package format renders domain records into Telegram-HTML strings.
// Everything here is a pure function of its inputs: localization lookup
// and price formatting are consumed through injected interfaces, so the
// package performs no I/O and no database access. The calling layer
// supplies implementations backed by its string catalog and currency
// configuration.
package format

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/avalle/go-store-backend/internal/domain"
)

// Localizer resolves message identifiers into localized strings.
// Parameters are substituted by the implementation.
type Localizer interface {
	Get(key string, params map[string]any) string
}

// PriceFormatter renders a minor-unit amount as a display string
// (symbol placement, decimal separator, and so on).
type PriceFormatter interface {
	Format(minorUnits int64) string
}

// Style selects between the two product description layouts.
type Style string

// Accepted product description styles. Anything else is rejected with
// ErrInvalidStyle.
const (
	StyleShort Style = "short"
	StyleFull  Style = "full"
)

// ErrInvalidStyle is returned when a style outside {short, full} is
// requested.
var ErrInvalidStyle = errors.New("style is not an accepted value")

// Renderer bundles the two external capabilities every rendering
// function needs.
type Renderer struct {
	Loc   Localizer
	Price PriceFormatter
}

// Product renders a product description.
//
// StyleShort produces a one-line cart entry, "Nx name - total", where
// total is the unit price multiplied by cartQty. StyleFull expands the
// localized product_format_string, appending the in_cart_format_string
// fragment when cartQty > 0. cartQty = 0 means "not in cart".
func (r Renderer) Product(p *domain.Product, style Style, cartQty int) (string, error) {
	var price int64
	if p.Price != nil {
		price = *p.Price
	}
	switch style {
	case StyleShort:
		return fmt.Sprintf("%dx %s - %s",
			cartQty,
			html.EscapeString(p.Name),
			r.Price.Format(price*int64(cartQty)),
		), nil
	case StyleFull:
		cart := ""
		if cartQty > 0 {
			cart = r.Loc.Get("in_cart_format_string", map[string]any{"quantity": cartQty})
		}
		return r.Loc.Get("product_format_string", map[string]any{
			"name":        html.EscapeString(p.Name),
			"description": html.EscapeString(p.Description),
			"price":       r.Price.Format(price),
			"cart":        cart,
		}), nil
	default:
		return "", ErrInvalidStyle
	}
}

// OrderItem renders one snapshot line, "name - price" for a single
// unit or "Nx name - subtotal" for multiples, from the captured unit
// price rather than the product's current one.
func (r Renderer) OrderItem(it *domain.OrderItem) string {
	name := html.EscapeString(it.Product.Name)
	if it.Quantity == 1 {
		return fmt.Sprintf("%s - %s", name, r.Price.Format(it.UnitPrice))
	}
	return fmt.Sprintf("%dx %s - %s", it.Quantity, name, r.Price.Format(it.Subtotal()))
}

// Order renders an order summary. asCustomer selects the buyer-facing
// receipt; when compact is additionally set, buyer identity and date
// are omitted (the user_order_format_string layout). The order value is
// the negated transaction value, and refunded orders append the
// localized refund reason.
func (r Renderer) Order(o *domain.Order, asCustomer, compact bool) string {
	var items strings.Builder
	for i := range o.Items {
		items.WriteString(r.OrderItem(&o.Items[i]))
		items.WriteString("\n")
	}

	var statusEmoji, statusText string
	switch o.Status() {
	case domain.OrderStatusDelivered:
		statusEmoji = r.Loc.Get("emoji_completed", nil)
		statusText = r.Loc.Get("text_completed", nil)
	case domain.OrderStatusRefunded:
		statusEmoji = r.Loc.Get("emoji_refunded", nil)
		statusText = r.Loc.Get("text_refunded", nil)
	default:
		statusEmoji = r.Loc.Get("emoji_not_processed", nil)
		statusText = r.Loc.Get("text_not_processed", nil)
	}

	value := r.Price.Format(o.Total())

	var out string
	if asCustomer && compact {
		out = r.Loc.Get("user_order_format_string", map[string]any{
			"status_emoji": statusEmoji,
			"status_text":  statusText,
			"items":        items.String(),
			"notes":        o.Notes,
			"value":        value,
		})
	} else {
		out = fmt.Sprintf("%s %s\n%s",
			statusEmoji,
			r.Loc.Get("order_number", map[string]any{"id": o.OrderID}),
			r.Loc.Get("order_format_string", map[string]any{
				"user":  o.User.Mention(),
				"date":  o.CreationDate.Format("2006-01-02T15:04:05"),
				"items": items.String(),
				"notes": o.Notes,
				"value": value,
			}),
		)
	}
	if o.Status() == domain.OrderStatusRefunded {
		out += r.Loc.Get("refund_reason", map[string]any{"reason": o.RefundReason})
	}
	return out
}

// Transaction renders a ledger entry for the admin ledger view:
// "T<id> | user | value" plus refund marker, provider, and notes when
// present. The user association must be loaded by the caller.
func (r Renderer) Transaction(t *domain.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>T%d</b> | %s | %s", t.TransactionID, t.User.String(), r.Price.Format(t.Value))
	if t.Refunded {
		b.WriteString(" | ")
		b.WriteString(r.Loc.Get("emoji_refunded", nil))
	}
	if t.Provider != nil && *t.Provider != "" {
		b.WriteString(" | ")
		b.WriteString(*t.Provider)
	}
	if t.Notes != "" {
		b.WriteString(" | ")
		b.WriteString(t.Notes)
	}
	return b.String()
}
