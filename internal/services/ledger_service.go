// Package services – LedgerService
//
// This file implements the LedgerService, which owns wallet accounts and
// the transaction log. Credit is a cached value derived from the log:
// RecordTransaction only appends, and callers (or the order service, on
// the ledger's behalf) refresh the cache through RecalculateCredit. The
// (provider, provider_charge_id) unique index makes provider charge
// recording idempotent; racing inserts are serialized by the database
// constraint, and the loser receives ErrDuplicateCharge.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/avalle/go-store-backend/internal/domain"
	"github.com/avalle/go-store-backend/internal/observability"
	"github.com/avalle/go-store-backend/internal/repo"
)

// Profile carries the identity fields the messaging platform supplies
// for a user, as delivered with each inbound event.
type Profile struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
}

// TransactionMeta carries the optional payment metadata attached to a
// ledger entry. All fields may be empty for manual adjustments.
type TransactionMeta struct {
	Notes            string
	Provider         string
	TelegramChargeID string
	ProviderChargeID string
	PaymentName      string
	PaymentPhone     string
	PaymentEmail     string
}

// LedgerService manages users and their transaction log.
type LedgerService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// DefaultLanguage is applied when the platform supplies no
	// language code for a new user.
	DefaultLanguage language.Tag
}

// NewLedgerService constructs a LedgerService with the given default
// language for new accounts.
func NewLedgerService(db *gorm.DB, defaultLanguage language.Tag) *LedgerService {
	return &LedgerService{DB: db, DefaultLanguage: defaultLanguage}
}

// CreateUser registers a wallet account from a platform profile with
// zero credit. Creation is idempotent on the platform id: repeated
// calls for the same user return the stored account unchanged. A
// missing or unparsable language code falls back to the configured
// default.
func (s *LedgerService) CreateUser(ctx context.Context, p Profile) (*domain.User, error) {
	lang := s.DefaultLanguage
	if tag, err := language.Parse(p.LanguageCode); err == nil && p.LanguageCode != "" {
		lang = tag
	}
	u := &domain.User{
		UserID:    p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Username:  p.Username,
		Language:  lang.String(),
		Credit:    0,
	}
	stored, created, err := repo.CreateUser(ctx, s.DB, u)
	if err != nil {
		return nil, err
	}
	if created {
		observability.UsersCreated.Inc()
		log.Info().Str("user", stored.IdentifiableStr()).Msg("user registered")
	}
	return stored, nil
}

// GetUser fetches a wallet account, or ErrUserNotFound.
func (s *LedgerService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// RecordTransaction appends a ledger entry for userID. It does not
// refresh the cached credit; callers invoke RecalculateCredit after the
// write (or batch several writes first). Entries without provider data
// receive a generated internal reference in Notes so manual adjustments
// stay traceable in the admin ledger view.
//
// Errors:
//   - ErrUserNotFound when the account does not exist.
//   - ErrDuplicateCharge when (provider, provider_charge_id) was
//     already recorded; the racing insert that loses the constraint
//     check fails cleanly without writing anything.
func (s *LedgerService) RecordTransaction(ctx context.Context, userID int64, value int64, meta TransactionMeta) (*domain.Transaction, error) {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	t := &domain.Transaction{
		UserID: userID,
		Value:  value,
		Notes:  meta.Notes,
	}
	if meta.Provider != "" {
		t.Provider = &meta.Provider
	}
	if meta.TelegramChargeID != "" {
		t.TelegramChargeID = &meta.TelegramChargeID
	}
	if meta.ProviderChargeID != "" {
		t.ProviderChargeID = &meta.ProviderChargeID
	}
	if meta.PaymentName != "" {
		t.PaymentName = &meta.PaymentName
	}
	if meta.PaymentPhone != "" {
		t.PaymentPhone = &meta.PaymentPhone
	}
	if meta.PaymentEmail != "" {
		t.PaymentEmail = &meta.PaymentEmail
	}

	origin := "provider"
	if t.Provider == nil {
		origin = "manual"
		if t.Notes == "" {
			t.Notes = fmt.Sprintf("ref:%s", uuid.NewString())
		}
	}

	created, err := repo.CreateTransaction(ctx, s.DB, t)
	if err != nil {
		return nil, err
	}
	observability.TransactionsRecorded.WithLabelValues(origin).Inc()
	log.Info().
		Int64("user_id", userID).
		Int64("transaction_id", created.TransactionID).
		Int64("value", value).
		Msg("transaction recorded")
	return created, nil
}

// RecalculateCredit recomputes the cached credit from the transaction
// log (sum of value over non-refunded entries) and overwrites the
// stored column, returning the new value. This is the only writer of
// users.credit outside of account creation.
func (s *LedgerService) RecalculateCredit(ctx context.Context, userID int64) (int64, error) {
	var credit int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		total, err := repo.SumNonRefunded(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := repo.UpdateUserCredit(ctx, tx, userID, total); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		credit = total
		return nil
	})
	return credit, err
}

// RefundTransaction flips a ledger entry's refunded flag and refreshes
// the owner's credit in one database transaction. A second refund of
// the same entry is a no-op: the flag stays true and credit is simply
// recomputed to the same value.
func (s *LedgerService) RefundTransaction(ctx context.Context, transactionID int64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := repo.GetTransaction(ctx, tx, transactionID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		changed, err := repo.MarkTransactionRefunded(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		total, err := repo.SumNonRefunded(ctx, tx, t.UserID)
		if err != nil {
			return err
		}
		if err := repo.UpdateUserCredit(ctx, tx, t.UserID, total); err != nil {
			return err
		}
		if changed {
			observability.TransactionsRefunded.Inc()
			log.Info().
				Int64("transaction_id", transactionID).
				Int64("user_id", t.UserID).
				Msg("transaction refunded")
		}
		return nil
	})
}

// Transactions returns a page of the ledger for the admin view
// (userID = 0) or for one user's history, plus the total count.
func (s *LedgerService) Transactions(ctx context.Context, userID int64, page, pageSize int) ([]domain.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountTransactions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Transaction{}, 0, nil
	}
	items, err := repo.ListTransactionsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}
