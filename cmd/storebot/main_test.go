package main

import (
	"strings"
	"testing"
	"time"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/format"
)

func customerOrders() []domain.Order {
	return []domain.Order{{
		OrderID:      3,
		UserID:       9,
		CreationDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{Quantity: 2, UnitPrice: 150, Product: domain.Product{Name: "Tea"}},
		},
		Transaction: &domain.Transaction{Value: -300},
		User:        domain.User{UserID: 9, FirstName: "Ada", Username: "ada"},
	}}
}

func TestRenderOrders_CompactOmitsBuyerAndDate(t *testing.T) {
	r := format.Renderer{Loc: englishCatalog{}, Price: euroCents{}}

	out := renderOrders(r, customerOrders(), true)
	if strings.Contains(out, "@ada") || strings.Contains(out, "2024-05-01") {
		t.Fatalf("compact receipt leaks buyer identity or date: %q", out)
	}
	if !strings.Contains(out, "2x Tea") || !strings.Contains(out, "3.00 €") {
		t.Fatalf("compact receipt missing items or total: %q", out)
	}
}

func TestRenderOrders_FullShowsBuyer(t *testing.T) {
	r := format.Renderer{Loc: englishCatalog{}, Price: euroCents{}}

	out := renderOrders(r, customerOrders(), false)
	if !strings.Contains(out, "Buyer: @ada") {
		t.Fatalf("full receipt missing buyer: %q", out)
	}
	if !strings.Contains(out, "Order #3") {
		t.Fatalf("full receipt missing order number: %q", out)
	}
}
