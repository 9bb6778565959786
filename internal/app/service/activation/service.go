package activation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/app/service/events"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/internal/platform/cache"
	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

// ListingRegistry is the listing subsystem, consumed as an interface only.
type ListingRegistry interface {
	ListingExists(ctx context.Context, listingID string) (bool, error)
}

// PaymentProcessor is the external money gateway. Checkout is a handoff: the
// processor redirects the buyer and later calls back ConfirmPayment exactly
// once per successful payment.
type PaymentProcessor interface {
	InitiateCheckout(ctx context.Context, amountCents int64, metadata map[string]string) (redirectURL string, err error)
}

// Service creates and tracks time-boxed activations against listings, debiting
// the ledger for credit purchases and emitting commission-eligible transaction
// events after each completed purchase.
type Service struct {
	db       *gorm.DB
	cache    *cache.Cache
	catalog  *catalog.Service
	ledger   *ledger.Service
	listings ListingRegistry
	payments PaymentProcessor
	outbox   *events.Outbox
	log      *zap.SugaredLogger

	creditPriceCents int64
}

func NewService(db *gorm.DB, c *cache.Cache, cfg *config.Config, cat *catalog.Service, led *ledger.Service,
	listings ListingRegistry, payments PaymentProcessor, outbox *events.Outbox, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cache: c, catalog: cat, ledger: led,
		listings: listings, payments: payments, outbox: outbox, log: log,
		creditPriceCents: cfg.Payment.CreditPriceCents}
}

type ActivateRequest struct {
	ListingID  string `json:"listing_id"`
	OfferingID string `json:"offering_id"`
	OwnerID    string `json:"owner_id"`
	AutoRenew  bool   `json:"auto_renew"`
	// RenewedFromID is set by the auto-renewal scheduler only.
	RenewedFromID string `json:"-"`
}

// Activate purchases an activation with credits. The ledger debit, the
// supersession of the prior activation and the new row commit atomically;
// on any failure no partial state persists.
func (s *Service) Activate(ctx context.Context, req *ActivateRequest) (*models.Activation, error) {
	offering, err := s.resolveTarget(ctx, req.ListingID, req.OfferingID)
	if err != nil {
		return nil, err
	}

	var act *models.Activation
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			actID := tool.GenerateUUIDV7()
			entry, err := s.ledger.ApplyEntryTx(ctx, tx, req.OwnerID, -offering.CreditCost,
				types.LedgerEntryKindDebitActivation, &ledger.ApplyOptions{ReferenceID: actID})
			if err != nil {
				return err
			}
			act, err = s.createActivationTx(ctx, tx, createActivationParams{
				ID:            actID,
				Offering:      offering,
				ListingID:     req.ListingID,
				OwnerID:       req.OwnerID,
				PaymentMethod: types.PaymentMethodCredits,
				LedgerEntryID: &entry.ID,
				AutoRenew:     req.AutoRenew,
				RenewedFromID: req.RenewedFromID,
			})
			if err != nil {
				return err
			}
			return s.outbox.EnqueueTx(ctx, tx, types.TransactionEvent{
				TransactionID: act.ID,
				UserID:        req.OwnerID,
				Type:          types.TransactionTypeBoostActivation,
				AmountCents:   offering.PriceCents,
				OccurredAt:    act.StartsAt,
			})
		})
	}

	if err := attempt(); err != nil {
		if !isStorageConflict(err) {
			return nil, err
		}
		// One retry on a storage conflict, then surface it.
		if err := attempt(); err != nil {
			if isStorageConflict(err) {
				return nil, ErrConcurrentActivationConflict
			}
			return nil, err
		}
	}

	s.ledger.InvalidateBalance(ctx, req.OwnerID)
	s.cache.InvalidateBadges(ctx, req.ListingID)
	s.outbox.Nudge()
	logctx.FromCtx(ctx, s.log).Infow("activation created",
		"activation_id", act.ID, "listing_id", act.ListingID, "type_key", act.TypeKey, "payment", act.PaymentMethod)
	return act, nil
}

func (s *Service) resolveTarget(ctx context.Context, listingID, offeringID string) (*types.Offering, error) {
	exists, err := s.listings.ListingExists(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check listing: %w", err)
	}
	if !exists {
		return nil, ErrListingNotFound
	}
	return s.catalog.GetOffering(ctx, offeringID)
}

type createActivationParams struct {
	ID            string
	Offering      *types.Offering
	ListingID     string
	OwnerID       string
	PaymentMethod types.PaymentMethod
	LedgerEntryID *string
	AutoRenew     bool
	RenewedFromID string
}

// createActivationTx inserts the new activation and early-terminates the
// currently active one of the same (listing, type key), serialized by a row
// lock so concurrent creators resolve deterministically.
func (s *Service) createActivationTx(ctx context.Context, tx *gorm.DB, p createActivationParams) (*models.Activation, error) {
	now := time.Now()
	typeKey := p.Offering.TypeKey()

	var prior models.Activation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("listing_id = ? AND type_key = ? AND status = ?", p.ListingID, typeKey, types.ActivationStatusActive).
		Order("ends_at desc").
		First(&prior).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load prior activation: %w", err)
	}

	var superseded *models.Activation
	if err == nil {
		superseded = &prior
		// Supersession: the prior window closes the instant the new one opens.
		supersedeActivation(superseded, now)
		if updErr := tx.WithContext(ctx).Model(&models.Activation{}).
			Where("id = ?", prior.ID).
			Updates(map[string]any{"ends_at": superseded.EndsAt, "status": superseded.Status}).Error; updErr != nil {
			return nil, fmt.Errorf("failed to supersede activation: %w", updErr)
		}
	}

	act := buildActivation(p, superseded, now)
	if err := tx.WithContext(ctx).Create(act).Error; err != nil {
		return nil, fmt.Errorf("failed to create activation: %w", err)
	}
	return act, nil
}

// supersedeActivation closes an activation's window at the given instant.
func supersedeActivation(act *models.Activation, now time.Time) {
	act.EndsAt = now
	act.Status = types.ActivationStatusExpired
}

// buildActivation assembles the successor row. The superseded activation, if
// any, is recorded in the snapshot so the history stays traversable.
func buildActivation(p createActivationParams, superseded *models.Activation, now time.Time) *models.Activation {
	supersededID := ""
	if superseded != nil {
		supersededID = superseded.ID
	}
	act := &models.Activation{
		ID:            p.ID,
		ListingID:     p.ListingID,
		TypeKey:       p.Offering.TypeKey(),
		OfferingID:    p.Offering.ID,
		Kind:          p.Offering.Kind,
		OwnerID:       p.OwnerID,
		Status:        types.ActivationStatusActive,
		PaymentMethod: p.PaymentMethod,
		StartsAt:      now,
		EndsAt:        now.Add(p.Offering.Duration()),
		LedgerEntryID: p.LedgerEntryID,
		AutoRenew:     p.AutoRenew,
		Extra: datatypes.NewJSONType(&models.ActivationExtra{
			OfferingSnapshot: p.Offering,
			SupersededID:     supersededID,
			RenewedFromID:    p.RenewedFromID,
		}),
	}
	if act.ID == "" {
		act.ID = tool.GenerateUUIDV7()
	}
	return act
}

// isStorageConflict matches postgres serialization/deadlock failures that are
// worth one retry.
func isStorageConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "lock timeout")
}
