package affiliate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

type RequestPayoutRequest struct {
	AmountCents int64  `json:"amount_cents"`
	PixKey      string `json:"pix_key"`
}

// RequestPayout opens a withdrawal against the pending balance. The balance is
// validated but not decremented here; the decrement happens on completion so a
// rejected payout needs no compensation.
func (s *Service) RequestPayout(ctx context.Context, userID string, req *RequestPayoutRequest) (*models.AffiliatePayout, error) {
	if req.AmountCents < s.minPayoutCents {
		return nil, ErrBelowMinimumPayout
	}

	var payout *models.AffiliatePayout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var aff models.Affiliate
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&aff).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAffiliateNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock affiliate: %w", err)
		}

		var reserved int64
		err = tx.WithContext(ctx).Model(&models.AffiliatePayout{}).
			Where("affiliate_id = ? AND status IN ?", aff.ID,
				[]types.PayoutStatus{types.PayoutStatusPending, types.PayoutStatusProcessing}).
			Select("COALESCE(SUM(amount_cents), 0)").
			Scan(&reserved).Error
		if err != nil {
			return fmt.Errorf("failed to sum open payouts: %w", err)
		}
		if req.AmountCents > aff.PendingPayoutCents-reserved {
			return ErrInsufficientPendingBalance
		}

		pixKey := req.PixKey
		if pixKey == "" {
			pixKey = aff.PixKey
		}
		payout = &models.AffiliatePayout{
			ID:          tool.GenerateUUIDV7(),
			AffiliateID: aff.ID,
			AmountCents: req.AmountCents,
			Status:      types.PayoutStatusPending,
			PixKey:      pixKey,
		}
		return tx.WithContext(ctx).Create(payout).Error
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("payout requested",
		"user_id", userID, "payout_id", payout.ID, "amount_cents", payout.AmountCents)
	return payout, nil
}

func (s *Service) ListPayouts(ctx context.Context, userID string) ([]*models.AffiliatePayout, error) {
	aff, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var payouts []*models.AffiliatePayout
	if err := s.db.WithContext(ctx).
		Where("affiliate_id = ?", aff.ID).
		Order("created_at DESC").
		Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return payouts, nil
}

// CompletePayout is called by the back office once the transfer settled. It
// moves the amount from pending to paid-out and marks commissions paid.
func (s *Service) CompletePayout(ctx context.Context, payoutID string) (*models.AffiliatePayout, error) {
	var payout models.AffiliatePayout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockPayout(ctx, tx, payoutID, &payout); err != nil {
			return err
		}

		now := time.Now()
		payout.Status = types.PayoutStatusCompleted
		payout.CompletedAt = &now
		if err := tx.WithContext(ctx).Save(&payout).Error; err != nil {
			return fmt.Errorf("failed to complete payout: %w", err)
		}

		if err := tx.WithContext(ctx).Model(&models.Affiliate{}).
			Where("id = ?", payout.AffiliateID).
			Updates(map[string]any{
				"pending_payout_cents": gorm.Expr("pending_payout_cents - ?", payout.AmountCents),
				"total_paid_out_cents": gorm.Expr("total_paid_out_cents + ?", payout.AmountCents),
			}).Error; err != nil {
			return fmt.Errorf("failed to settle affiliate balance: %w", err)
		}

		if err := tx.WithContext(ctx).Model(&models.AffiliateCommission{}).
			Where("affiliate_id = ? AND status = ?", payout.AffiliateID, types.CommissionStatusPending).
			Update("status", types.CommissionStatusPaid).Error; err != nil {
			return fmt.Errorf("failed to mark commissions paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("payout completed",
		"payout_id", payout.ID, "amount_cents", payout.AmountCents)
	return &payout, nil
}

// RejectPayout cancels an open payout. Nothing was decremented at request
// time, so the pending balance is already correct.
func (s *Service) RejectPayout(ctx context.Context, payoutID string) (*models.AffiliatePayout, error) {
	var payout models.AffiliatePayout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockPayout(ctx, tx, payoutID, &payout); err != nil {
			return err
		}
		payout.Status = types.PayoutStatusRejected
		return tx.WithContext(ctx).Save(&payout).Error
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("payout rejected", "payout_id", payout.ID)
	return &payout, nil
}

func (s *Service) lockPayout(ctx context.Context, tx *gorm.DB, payoutID string, out *models.AffiliatePayout) error {
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", payoutID).
		First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPayoutNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock payout: %w", err)
	}
	if out.Status != types.PayoutStatusPending && out.Status != types.PayoutStatusProcessing {
		return ErrPayoutNotPending
	}
	return nil
}
