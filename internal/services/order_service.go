// Package services – OrderService
//
// This file implements the OrderService, the consistency boundary for
// the order aggregate. PlaceOrder persists the order row, its item
// snapshots, the backing ledger entry, and the refreshed credit inside
// a single database transaction: a crash mid-way leaves nothing
// observable. Deliver and Refund are the only transitions out of
// Pending, are mutually exclusive, and reject conflicts with
// ErrAlreadyFinalized instead of overwriting a terminal state.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/observability"
	"github.com/avalle/go-store-backend/internal/repo"
)

// OrderLine is one requested line of a new order: a product id and how
// many units of it.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// OrderService provides order placement and finalization.
type OrderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db}
}

// PlaceOrder creates an order for userID from the given lines.
//
// Inside one database transaction it:
//  1. loads the buyer and each referenced product, rejecting
//     soft-deleted or priceless products (ErrNotPurchasable);
//  2. computes the total from current prices and rejects it when it
//     exceeds the buyer's credit (ErrInsufficientCredit);
//  3. inserts the Order with its OrderItem price snapshots;
//  4. appends the negative-value ledger entry linked to the order;
//  5. recalculates the buyer's cached credit.
//
// Either all of it commits or none of it does; partial orders are never
// observable.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, lines []OrderLine, notes string) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	var placed *domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := repo.GetUser(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var total int64
		items := make([]domain.OrderItem, 0, len(lines))
		for _, l := range lines {
			p, err := repo.GetProduct(ctx, tx, l.ProductID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if !p.Purchasable() {
				return ErrNotPurchasable
			}
			items = append(items, domain.OrderItem{
				ProductID: p.ID,
				Quantity:  l.Quantity,
				UnitPrice: *p.Price,
			})
			total += int64(l.Quantity) * *p.Price
		}
		if total > user.Credit {
			return ErrInsufficientCredit
		}

		order := &domain.Order{
			UserID:       userID,
			CreationDate: time.Now().UTC(),
			Notes:        notes,
			Items:        items,
		}
		if _, err := repo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}

		// The purchase is a negative entry in the buyer's ledger.
		charge := &domain.Transaction{
			UserID:  userID,
			Value:   -total,
			OrderID: &order.OrderID,
		}
		if _, err := repo.CreateTransaction(ctx, tx, charge); err != nil {
			return err
		}
		order.Transaction = charge

		credit, err := repo.SumNonRefunded(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := repo.UpdateUserCredit(ctx, tx, userID, credit); err != nil {
			return err
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.OrdersPlaced.Inc()
	observability.TransactionsRecorded.WithLabelValues("order").Inc()
	log.Info().
		Int64("order_id", placed.OrderID).
		Int64("user_id", userID).
		Int64("total", placed.Total()).
		Msg("order placed")
	return placed, nil
}

// Deliver marks an order as delivered. Fails with ErrAlreadyFinalized
// when the order was refunded or already delivered, ErrOrderNotFound
// when it does not exist.
func (s *OrderService) Deliver(ctx context.Context, orderID int64) error {
	err := repo.MarkOrderDelivered(ctx, s.DB, orderID, time.Now().UTC())
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repo.ErrFinalized):
		return ErrAlreadyFinalized
	case err != nil:
		return err
	}
	observability.OrdersDelivered.Inc()
	log.Info().Int64("order_id", orderID).Msg("order delivered")
	return nil
}

// Refund marks an order as refunded with the given reason, flips the
// linked ledger entry, and refreshes the buyer's credit, all inside one
// database transaction. Fails with ErrAlreadyFinalized when the order
// was delivered or already refunded, ErrOrderNotFound when it does not
// exist.
func (s *OrderService) Refund(ctx context.Context, orderID int64, reason string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkOrderRefunded(ctx, tx, orderID, time.Now().UTC(), reason); err != nil {
			switch {
			case errors.Is(err, repo.ErrNotFound):
				return ErrOrderNotFound
			case errors.Is(err, repo.ErrFinalized):
				return ErrAlreadyFinalized
			}
			return err
		}
		order, err := repo.GetOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Transaction != nil {
			if _, err := repo.MarkTransactionRefunded(ctx, tx, order.Transaction.TransactionID); err != nil {
				return err
			}
			credit, err := repo.SumNonRefunded(ctx, tx, order.UserID)
			if err != nil {
				return err
			}
			if err := repo.UpdateUserCredit(ctx, tx, order.UserID, credit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	observability.OrdersRefunded.Inc()
	observability.TransactionsRefunded.Inc()
	log.Info().Int64("order_id", orderID).Str("reason", reason).Msg("order refunded")
	return nil
}

// Get fetches an order with items and transaction preloaded.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// ListPage returns a page of orders (userID = 0 for all users) plus the
// total count.
func (s *OrderService) ListPage(ctx context.Context, userID int64, page, pageSize int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountOrders(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}
	items, err := repo.ListOrdersPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// ListPending returns all unprocessed orders, oldest first.
func (s *OrderService) ListPending(ctx context.Context) ([]domain.Order, error) {
	return repo.ListPendingOrders(ctx, s.DB)
}
