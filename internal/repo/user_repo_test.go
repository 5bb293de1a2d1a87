package repo

import (
	"context"
	"testing"

	"github.com/avalle/go-store-backend/internal/domain"
)

func TestCreateUser_InsertsWithZeroCredit(t *testing.T) {
	db := newTestDB(t, "userrepo_create")
	ctx := context.Background()

	u := &domain.User{UserID: 1001, FirstName: "Ada", LastName: "Lovelace", Username: "ada", Language: "en"}
	stored, created, err := CreateUser(ctx, db, u)
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if !created {
		t.Fatalf("expected created = true for first insert")
	}
	if stored.Credit != 0 {
		t.Fatalf("new user credit = %d, want 0", stored.Credit)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
}

func TestCreateUser_Idempotent_KeepsStoredRow(t *testing.T) {
	db := newTestDB(t, "userrepo_idem")
	ctx := context.Background()

	first := &domain.User{UserID: 42, FirstName: "First", Language: "en"}
	if _, _, err := CreateUser(ctx, db, first); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}
	if err := UpdateUserCredit(ctx, db, 42, 750); err != nil {
		t.Fatalf("UpdateUserCredit: %v", err)
	}

	again := &domain.User{UserID: 42, FirstName: "Second", Language: "it"}
	stored, created, err := CreateUser(ctx, db, again)
	if err != nil {
		t.Fatalf("second CreateUser: %v", err)
	}
	if created {
		t.Fatalf("expected created = false for existing id")
	}
	if stored.FirstName != "First" || stored.Credit != 750 {
		t.Fatalf("stored row was overwritten: %+v", stored)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t, "userrepo_missing")
	if _, err := GetUser(context.Background(), db, 999); err == nil {
		t.Fatalf("expected error for missing user")
	}
}

func TestUpdateUserCredit_Missing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, "userrepo_creditmissing")
	if err := UpdateUserCredit(context.Background(), db, 12345, 10); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSumNonRefunded_FoldsLedger(t *testing.T) {
	db := newTestDB(t, "userrepo_sum")
	ctx := context.Background()

	if _, _, err := CreateUser(ctx, db, &domain.User{UserID: 7, FirstName: "U", Language: "en"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for _, tr := range []*domain.Transaction{
		{UserID: 7, Value: 500},
		{UserID: 7, Value: -200},
		{UserID: 7, Value: 100, Refunded: true},
	} {
		if _, err := CreateTransaction(ctx, db, tr); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}

	total, err := SumNonRefunded(ctx, db, 7)
	if err != nil {
		t.Fatalf("SumNonRefunded: %v", err)
	}
	if total != 300 {
		t.Fatalf("total = %d, want 300", total)
	}
}

func TestSumNonRefunded_EmptyLedger_IsZero(t *testing.T) {
	db := newTestDB(t, "userrepo_sumempty")
	ctx := context.Background()
	if _, _, err := CreateUser(ctx, db, &domain.User{UserID: 8, FirstName: "U", Language: "en"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	total, err := SumNonRefunded(ctx, db, 8)
	if err != nil {
		t.Fatalf("SumNonRefunded: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
}
