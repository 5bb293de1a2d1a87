package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/avalle/go-store-backend/internal/domain"
)

// Bootstraps the schema through the production open path (foreign key
// enforcement on) and verifies the constraints point from child tables
// at users, not the other way around: user registration must work on a
// fresh store, and orphan child rows must be rejected.
func TestOpenSQLite_SchemaAcceptsUsersRejectsOrphans(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	ctx := context.Background()

	u, created, err := CreateUser(ctx, db, &domain.User{UserID: 1, FirstName: "Ada", Language: "en"})
	if err != nil {
		t.Fatalf("CreateUser on fresh schema: %v", err)
	}
	if !created || u.UserID != 1 {
		t.Fatalf("created=%v user=%+v, want a fresh row", created, u)
	}

	if _, err := CreateTransaction(ctx, db, &domain.Transaction{UserID: 404, Value: 100}); err == nil {
		t.Fatalf("transaction for unknown user was accepted")
	}
	if _, err := CreateOrder(ctx, db, &domain.Order{UserID: 404, CreationDate: time.Now().UTC()}); err == nil {
		t.Fatalf("order for unknown user was accepted")
	}
	if _, err := CreateAdmin(ctx, db, &domain.Admin{UserID: 404}); err == nil {
		t.Fatalf("admin for unknown user was accepted")
	}

	// Valid children still insert.
	if _, err := CreateTransaction(ctx, db, &domain.Transaction{UserID: 1, Value: 100}); err != nil {
		t.Fatalf("transaction for existing user: %v", err)
	}
}

func TestOpenSQLite_MissingDirectory(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "store.db"))
	if err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

// Deleting a user removes their admin record through the schema-level
// cascade.
func TestSchema_AdminCascadesOnUserDelete(t *testing.T) {
	db := newTestDB(t, "db_cascade")
	ctx := context.Background()

	if _, _, err := CreateUser(ctx, db, &domain.User{UserID: 1, FirstName: "Boss", Language: "en"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := CreateAdmin(ctx, db, &domain.Admin{UserID: 1, IsOwner: true}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	if err := db.Delete(&domain.User{}, "user_id = ?", 1).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := GetAdmin(ctx, db, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("admin after user delete: err = %v, want ErrNotFound", err)
	}
}
