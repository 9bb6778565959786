package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/internal/platform/cache"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

// Service is the single point of truth for credit balances. Every purchase,
// top-up, refund and bonus is expressed as an immutable ledger entry; the
// account row only carries the derived balance.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.SugaredLogger
}

func NewService(db *gorm.DB, c *cache.Cache, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cache: c, log: log}
}

// ApplyOptions carries the optional links of a ledger entry.
type ApplyOptions struct {
	// ReferenceID points at the activation the entry funded.
	ReferenceID string
	// ExternalPaymentID points at the payment-processor transaction behind a
	// money-funded top-up.
	ExternalPaymentID string
}

// ApplyEntry appends one entry and recomputes the account balance in a single
// database transaction. A debit below zero fails with ErrInsufficientBalance;
// a debit against a never-credited user fails with ErrUnknownAccount.
func (s *Service) ApplyEntry(ctx context.Context, userID string, amount int64, kind types.LedgerEntryKind, opts *ApplyOptions) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.ApplyEntryTx(ctx, tx, userID, amount, kind, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateBalance(ctx, userID)
	return entry, nil
}

// ApplyEntryTx is ApplyEntry composed into a caller-owned transaction, so an
// activation purchase and its funding debit commit or roll back together.
// The caller must invalidate the balance cache after its commit.
func (s *Service) ApplyEntryTx(ctx context.Context, tx *gorm.DB, userID string, amount int64, kind types.LedgerEntryKind, opts *ApplyOptions) (*models.LedgerEntry, error) {
	var account models.CreditAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if amount < 0 {
			return nil, ErrUnknownAccount
		}
		account = models.CreditAccount{ID: tool.GenerateUUIDV7(), UserID: userID}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := applyToAccount(&account, amount); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		ID:        tool.GenerateUUIDV7(),
		AccountID: account.ID,
		UserID:    userID,
		Amount:    amount,
		Kind:      kind,
	}
	if opts != nil {
		if opts.ReferenceID != "" {
			entry.ReferenceID = &opts.ReferenceID
		}
		if opts.ExternalPaymentID != "" {
			entry.ExternalPaymentID = &opts.ExternalPaymentID
		}
	}
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.WithContext(ctx).Model(&models.CreditAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"balance":         account.Balance,
			"lifetime_earned": account.LifetimeEarned,
			"lifetime_spent":  account.LifetimeSpent,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to update account balance: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("ledger entry applied",
		"user_id", userID, "amount", amount, "kind", kind, "balance", account.Balance)
	return entry, nil
}

// applyToAccount folds one signed amount into the derived balance fields.
// Replaying all entries of an account through it reproduces the stored state.
func applyToAccount(acc *models.CreditAccount, amount int64) error {
	if amount < 0 && acc.Balance+amount < 0 {
		return ErrInsufficientBalance
	}
	acc.Balance += amount
	if amount >= 0 {
		acc.LifetimeEarned += amount
	} else {
		acc.LifetimeSpent += -amount
	}
	return nil
}

// InvalidateBalance is exposed for callers composing ApplyEntryTx.
func (s *Service) InvalidateBalance(ctx context.Context, userID string) {
	s.cache.InvalidateBalance(ctx, userID)
}

// GetBalance is side-effect free. A user without an account has balance zero.
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	if v, ok := s.cache.GetBalance(ctx, userID); ok {
		return v, nil
	}
	var account models.CreditAccount
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	s.cache.SetBalance(ctx, userID, account.Balance)
	return account.Balance, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

type ScanEntriesRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanEntriesResponse struct {
	Items []*models.LedgerEntry `json:"items"`
	Total int64                 `json:"total"`
}

// ScanEntries implements paginated/admin listing with filters.
func (s *Service) ScanEntries(ctx context.Context, req *ScanEntriesRequest) (*ScanEntriesResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.LedgerEntry{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	var rows []*models.LedgerEntry
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy == "" {
		req.SortBy = "created_at"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	return &ScanEntriesResponse{Items: rows, Total: total}, nil
}
