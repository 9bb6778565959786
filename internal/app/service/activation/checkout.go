package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

// StartCheckout begins a money purchase of an activation. The ledger is not
// touched; the returned intent carries the processor redirect URL and is
// completed by ConfirmPayment.
func (s *Service) StartCheckout(ctx context.Context, req *ActivateRequest) (*models.CheckoutIntent, error) {
	offering, err := s.resolveTarget(ctx, req.ListingID, req.OfferingID)
	if err != nil {
		return nil, err
	}

	intent := &models.CheckoutIntent{
		ID:          tool.GenerateUUIDV7(),
		Purpose:     models.CheckoutIntentPurposeActivation,
		UserID:      req.OwnerID,
		ListingID:   req.ListingID,
		OfferingID:  req.OfferingID,
		AutoRenew:   req.AutoRenew,
		AmountCents: offering.PriceCents,
		Status:      models.CheckoutIntentStatusPending,
	}
	redirectURL, err := s.payments.InitiateCheckout(ctx, intent.AmountCents, map[string]string{
		"intent_id": intent.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initiate checkout: %w", err)
	}
	intent.RedirectURL = redirectURL

	if err := s.db.WithContext(ctx).Create(intent).Error; err != nil {
		return nil, fmt.Errorf("failed to create checkout intent: %w", err)
	}
	return intent, nil
}

// StartTopupCheckout begins a money purchase of credits.
func (s *Service) StartTopupCheckout(ctx context.Context, userID string, credits int64) (*models.CheckoutIntent, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("invalid credit amount: %d", credits)
	}
	intent := &models.CheckoutIntent{
		ID:           tool.GenerateUUIDV7(),
		Purpose:      models.CheckoutIntentPurposeCreditTopup,
		UserID:       userID,
		CreditAmount: credits,
		AmountCents:  credits * s.creditPriceCents,
		Status:       models.CheckoutIntentStatusPending,
	}
	redirectURL, err := s.payments.InitiateCheckout(ctx, intent.AmountCents, map[string]string{
		"intent_id": intent.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initiate checkout: %w", err)
	}
	intent.RedirectURL = redirectURL

	if err := s.db.WithContext(ctx).Create(intent).Error; err != nil {
		return nil, fmt.Errorf("failed to create checkout intent: %w", err)
	}
	return intent, nil
}

// ConfirmPayment completes a checkout intent after the processor reported
// success. Idempotent on the external payment id: a replayed callback returns
// the original outcome and produces no second activation, credit or event.
func (s *Service) ConfirmPayment(ctx context.Context, intentID, externalPaymentID string) (*models.CheckoutIntent, error) {
	var (
		intent models.CheckoutIntent
		act    *models.Activation
		replay bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		replay = false
		act = nil
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", intentID).
			First(&intent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCheckoutNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load checkout intent: %w", err)
		}
		if intent.Status == models.CheckoutIntentStatusConfirmed {
			replay = true
			return nil
		}

		now := time.Now()
		intent.Status = models.CheckoutIntentStatusConfirmed
		intent.ExternalPaymentID = &externalPaymentID
		intent.ConfirmedAt = &now

		switch intent.Purpose {
		case models.CheckoutIntentPurposeCreditTopup:
			if _, err := s.ledger.ApplyEntryTx(ctx, tx, intent.UserID, intent.CreditAmount,
				types.LedgerEntryKindPurchaseTopup,
				&ledger.ApplyOptions{ExternalPaymentID: externalPaymentID}); err != nil {
				return err
			}
		case models.CheckoutIntentPurposeActivation:
			offering, err := s.catalog.GetOfferingAny(ctx, intent.OfferingID)
			if err != nil {
				return err
			}
			act, err = s.createActivationTx(ctx, tx, createActivationParams{
				Offering:      offering,
				ListingID:     intent.ListingID,
				OwnerID:       intent.UserID,
				PaymentMethod: types.PaymentMethodMoney,
				AutoRenew:     intent.AutoRenew,
			})
			if err != nil {
				return err
			}
			intent.ActivationID = &act.ID
		default:
			return fmt.Errorf("unknown checkout purpose: %s", intent.Purpose)
		}

		if err := tx.WithContext(ctx).Save(&intent).Error; err != nil {
			return err
		}
		evtType := types.TransactionTypeCreditTopup
		if intent.Purpose == models.CheckoutIntentPurposeActivation {
			evtType = types.TransactionTypeBoostActivation
		}
		return s.outbox.EnqueueTx(ctx, tx, types.TransactionEvent{
			TransactionID: intent.ID,
			UserID:        intent.UserID,
			Type:          evtType,
			AmountCents:   intent.AmountCents,
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}
	if replay {
		logctx.FromCtx(ctx, s.log).Infow("payment confirmation replayed",
			"intent_id", intentID, "external_payment_id", externalPaymentID)
		return &intent, nil
	}

	switch intent.Purpose {
	case models.CheckoutIntentPurposeCreditTopup:
		s.ledger.InvalidateBalance(ctx, intent.UserID)
	case models.CheckoutIntentPurposeActivation:
		s.cache.InvalidateBadges(ctx, intent.ListingID)
	}
	s.outbox.Nudge()
	logctx.FromCtx(ctx, s.log).Infow("payment confirmed",
		"intent_id", intent.ID, "purpose", intent.Purpose, "external_payment_id", externalPaymentID)
	return &intent, nil
}

// FailPayment marks a pending intent failed. Terminal intents are untouched.
func (s *Service) FailPayment(ctx context.Context, intentID string) error {
	res := s.db.WithContext(ctx).Model(&models.CheckoutIntent{}).
		Where("id = ? AND status = ?", intentID, models.CheckoutIntentStatusPending).
		Update("status", models.CheckoutIntentStatusFailed)
	if res.Error != nil {
		return fmt.Errorf("failed to mark checkout failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCheckoutNotFound
	}
	return nil
}
