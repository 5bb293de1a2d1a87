// Package services – AdminService
//
// This file implements the AdminService, which manages administrator
// records and their capability flags. The owner flag is irrevocable:
// neither UpdatePermissions nor Demote may strip it, which guarantees
// the store always keeps at least its original owner.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/repo"
)

// AdminFlags carries the capability switches of an admin record.
type AdminFlags struct {
	EditProducts       bool
	ReceiveOrders      bool
	CreateTransactions bool
	DisplayOnHelp      bool
	IsOwner            bool
	LiveMode           bool
}

// AdminService provides admin lifecycle operations.
type AdminService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// Promote grants admin status to an existing user with the given flags.
// Fails with ErrUserNotFound when no such account exists.
func (s *AdminService) Promote(ctx context.Context, userID int64, flags AdminFlags) (*domain.Admin, error) {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	a := &domain.Admin{
		UserID:             userID,
		EditProducts:       flags.EditProducts,
		ReceiveOrders:      flags.ReceiveOrders,
		CreateTransactions: flags.CreateTransactions,
		DisplayOnHelp:      flags.DisplayOnHelp,
		IsOwner:            flags.IsOwner,
		LiveMode:           flags.LiveMode,
	}
	created, err := repo.CreateAdmin(ctx, s.DB, a)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", userID).Bool("is_owner", flags.IsOwner).Msg("admin promoted")
	return created, nil
}

// Get fetches an admin record, or ErrAdminNotFound.
func (s *AdminService) Get(ctx context.Context, userID int64) (*domain.Admin, error) {
	a, err := repo.GetAdmin(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAdminNotFound
	}
	return a, err
}

// IsAdmin reports whether the user holds an admin record at all.
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	_, err := repo.GetAdmin(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpdatePermissions mutates the capability flags of an existing admin.
// Attempting to strip the owner flag fails with ErrOwnerImmutable; the
// flag is otherwise left untouched by this operation.
func (s *AdminService) UpdatePermissions(ctx context.Context, userID int64, flags AdminFlags) error {
	current, err := repo.GetAdmin(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	if current.IsOwner && !flags.IsOwner {
		return ErrOwnerImmutable
	}
	a := &domain.Admin{
		EditProducts:       flags.EditProducts,
		ReceiveOrders:      flags.ReceiveOrders,
		CreateTransactions: flags.CreateTransactions,
		DisplayOnHelp:      flags.DisplayOnHelp,
		LiveMode:           flags.LiveMode,
	}
	if err := repo.UpdateAdminFlags(ctx, s.DB, userID, a); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	return nil
}

// Demote revokes admin status. Owners cannot be demoted.
func (s *AdminService) Demote(ctx context.Context, userID int64) error {
	current, err := repo.GetAdmin(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	if current.IsOwner {
		return ErrOwnerImmutable
	}
	if err := repo.DeleteAdmin(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	log.Info().Int64("user_id", userID).Msg("admin demoted")
	return nil
}

// ListedOnHelp returns admins flagged for public display, with user
// rows preloaded.
func (s *AdminService) ListedOnHelp(ctx context.Context) ([]domain.Admin, error) {
	return repo.ListAdminsDisplayedOnHelp(ctx, s.DB)
}

// OrderReceivers returns admins who should be notified of new orders.
func (s *AdminService) OrderReceivers(ctx context.Context) ([]domain.Admin, error) {
	return repo.ListOrderReceivers(ctx, s.DB)
}
