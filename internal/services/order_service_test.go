package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/repo"
)

func priceOf(v int64) *int64 { return &v }

// seedBuyer creates a user with the given spendable credit.
func seedBuyer(t *testing.T, db *gorm.DB, id int64, credit int64) {
	t.Helper()
	ctx := context.Background()
	s := NewLedgerService(db, language.English)
	if _, err := s.CreateUser(ctx, Profile{ID: id, FirstName: "Buyer"}); err != nil {
		t.Fatalf("seed buyer: %v", err)
	}
	if credit != 0 {
		if _, err := s.RecordTransaction(ctx, id, credit, TransactionMeta{Notes: "top-up"}); err != nil {
			t.Fatalf("seed credit: %v", err)
		}
		if _, err := s.RecalculateCredit(ctx, id); err != nil {
			t.Fatalf("seed recalc: %v", err)
		}
	}
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64) *domain.Product {
	t.Helper()
	p, err := repo.CreateProduct(context.Background(), db, &domain.Product{Name: name, Price: priceOf(price)})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestPlaceOrder_ChargesAndSnapshots(t *testing.T) {
	db := newTestDB(t, "order_place")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	tea := seedProduct(t, db, "Tea", 150)
	coffee := seedProduct(t, db, "Coffee", 250)

	s := NewOrderService(db)
	order, err := s.PlaceOrder(ctx, 1, []OrderLine{
		{ProductID: tea.ID, Quantity: 3},
		{ProductID: coffee.ID, Quantity: 1},
	}, "ring the bell")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.Total() != 700 {
		t.Fatalf("total = %d, want 700", order.Total())
	}
	if order.Transaction == nil || order.Transaction.Value != -700 {
		t.Fatalf("charge = %+v, want value -700", order.Transaction)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items len = %d, want 2", len(order.Items))
	}
	if order.Items[0].UnitPrice != 150 || order.Items[0].Quantity != 3 {
		t.Fatalf("snapshot line = %+v", order.Items[0])
	}
	if order.Status() != domain.OrderStatusPending {
		t.Fatalf("status = %s, want pending", order.Status())
	}

	// Credit refreshed atomically with the order.
	var u domain.User
	if err := db.First(&u, "user_id = ?", 1).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.Credit != 300 {
		t.Fatalf("credit after purchase = %d, want 300", u.Credit)
	}
}

func TestPlaceOrder_SnapshotSurvivesRepricing(t *testing.T) {
	db := newTestDB(t, "order_reprice")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	order, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if err := repo.UpdateProduct(ctx, db, p.ID, "Tea", "", priceOf(999)); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	got, err := s.Get(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Items[0].UnitPrice != 150 {
		t.Fatalf("snapshot price = %d, want 150 after repricing", got.Items[0].UnitPrice)
	}
}

// A fetched order must carry the buyer so the rendering layer can
// mention them without another lookup.
func TestGetOrder_LoadsBuyer(t *testing.T) {
	db := newTestDB(t, "order_buyer")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	order, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	got, err := s.Get(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.User.UserID != 1 || got.User.FirstName != "Buyer" {
		t.Fatalf("buyer = %+v, want the seeded user", got.User)
	}

	page, _, err := s.ListPage(ctx, 1, 1, 10)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if len(page) != 1 || page[0].User.FirstName != "Buyer" {
		t.Fatalf("buyer missing from listed order: %+v", page)
	}
}

func TestPlaceOrder_InsufficientCredit_NothingPersisted(t *testing.T) {
	db := newTestDB(t, "order_poor")
	ctx := context.Background()
	seedBuyer(t, db, 1, 100)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	if _, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 1}}, ""); !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("err = %v, want ErrInsufficientCredit", err)
	}
	assertNoOrderArtifacts(t, db, 1)
}

func TestPlaceOrder_UnknownProduct_Atomic(t *testing.T) {
	db := newTestDB(t, "order_atomic")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	// The second line fails after the first would have been written;
	// nothing may survive the rollback.
	s := NewOrderService(db)
	_, err := s.PlaceOrder(ctx, 1, []OrderLine{
		{ProductID: p.ID, Quantity: 1},
		{ProductID: 9999, Quantity: 1},
	}, "")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
	assertNoOrderArtifacts(t, db, 1)
}

func TestPlaceOrder_SoftDeletedProduct_Rejected(t *testing.T) {
	db := newTestDB(t, "order_deleted")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)
	if err := repo.SoftDeleteProduct(ctx, db, p.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	s := NewOrderService(db)
	if _, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 1}}, ""); !errors.Is(err, ErrNotPurchasable) {
		t.Fatalf("err = %v, want ErrNotPurchasable", err)
	}
	assertNoOrderArtifacts(t, db, 1)
}

func TestPlaceOrder_Validation(t *testing.T) {
	db := newTestDB(t, "order_validate")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	if _, err := s.PlaceOrder(ctx, 1, nil, ""); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("empty order err = %v, want ErrEmptyOrder", err)
	}
	if _, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 0}}, ""); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity err = %v, want ErrInvalidQuantity", err)
	}
}

func TestDeliverThenRefund_Conflict(t *testing.T) {
	db := newTestDB(t, "order_deliverrefund")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	order, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if err := s.Deliver(ctx, order.OrderID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if err := s.Refund(ctx, order.OrderID, "changed my mind"); !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("refund after deliver err = %v, want ErrAlreadyFinalized", err)
	}

	got, _ := s.Get(ctx, order.OrderID)
	if got.Status() != domain.OrderStatusDelivered {
		t.Fatalf("status = %s, want delivered", got.Status())
	}
}

func TestRefundThenDeliver_Conflict(t *testing.T) {
	db := newTestDB(t, "order_refunddeliver")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	order, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 1}}, "")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if err := s.Refund(ctx, order.OrderID, "out of stock"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if err := s.Deliver(ctx, order.OrderID); !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("deliver after refund err = %v, want ErrAlreadyFinalized", err)
	}
}

func TestRefund_RestoresCredit(t *testing.T) {
	db := newTestDB(t, "order_refundcredit")
	ctx := context.Background()
	seedBuyer(t, db, 1, 1000)
	p := seedProduct(t, db, "Tea", 150)

	s := NewOrderService(db)
	order, err := s.PlaceOrder(ctx, 1, []OrderLine{{ProductID: p.ID, Quantity: 2}}, "")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	var u domain.User
	db.First(&u, "user_id = ?", 1)
	if u.Credit != 700 {
		t.Fatalf("credit after purchase = %d, want 700", u.Credit)
	}

	if err := s.Refund(ctx, order.OrderID, "damaged"); err != nil {
		t.Fatalf("Refund: %v", err)
	}

	db.First(&u, "user_id = ?", 1)
	if u.Credit != 1000 {
		t.Fatalf("credit after refund = %d, want 1000", u.Credit)
	}
	got, _ := s.Get(ctx, order.OrderID)
	if got.Status() != domain.OrderStatusRefunded || got.RefundReason != "damaged" {
		t.Fatalf("order after refund: %+v", got)
	}
	if got.Transaction == nil || !got.Transaction.Refunded {
		t.Fatalf("linked transaction not refunded: %+v", got.Transaction)
	}
	// The ledger entry survives the refund for audit.
	var count int64
	db.Model(&domain.Transaction{}).Count(&count)
	if count != 2 {
		t.Fatalf("ledger rows = %d, want 2 (top-up + refunded charge)", count)
	}
}

func TestOrderService_NotFound(t *testing.T) {
	db := newTestDB(t, "order_missing")
	s := NewOrderService(db)
	ctx := context.Background()
	if err := s.Deliver(ctx, 404); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Deliver err = %v, want ErrOrderNotFound", err)
	}
	if err := s.Refund(ctx, 404, "r"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Refund err = %v, want ErrOrderNotFound", err)
	}
	if _, err := s.Get(ctx, 404); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Get err = %v, want ErrOrderNotFound", err)
	}
}

// assertNoOrderArtifacts verifies that a failed PlaceOrder left no
// order, item, or charge rows behind, and the buyer's credit untouched
// by any charge.
func assertNoOrderArtifacts(t *testing.T, db *gorm.DB, userID int64) {
	t.Helper()
	var orders, items, charges int64
	db.Model(&domain.Order{}).Count(&orders)
	db.Model(&domain.OrderItem{}).Count(&items)
	db.Model(&domain.Transaction{}).Where("order_id IS NOT NULL").Count(&charges)
	if orders != 0 || items != 0 || charges != 0 {
		t.Fatalf("partial order visible: orders=%d items=%d charges=%d", orders, items, charges)
	}
}
