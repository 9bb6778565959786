package affiliate

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

// Accrue books the commission for one transaction event. Users without a
// referral are a silent no-op, and the unique transaction index makes
// redelivered events a no-op too, so at-least-once delivery is safe.
//
// The commission row, the affiliate balance bump, the referral counters and
// the pending-to-active flip (with its tier recompute) commit atomically.
func (s *Service) Accrue(ctx context.Context, evt types.TransactionEvent) error {
	if evt.AmountCents <= 0 {
		return nil
	}

	var ref models.AffiliateReferral
	err := s.db.WithContext(ctx).
		Where("referred_user_id = ?", evt.UserID).
		First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to resolve referral: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aff, err := s.lockAffiliate(ctx, tx, ref.AffiliateID)
		if err != nil {
			return err
		}

		rate := effectiveRateBps(aff.BaseRateBps, aff.Tier, evt.Type)
		commission := commissionCents(evt.AmountCents, rate)

		entry := &models.AffiliateCommission{
			ID:              tool.GenerateUUIDV7(),
			AffiliateID:     aff.ID,
			ReferralID:      ref.ID,
			TransactionID:   evt.TransactionID,
			Type:            evt.Type,
			AmountCents:     evt.AmountCents,
			RateBps:         rate,
			CommissionCents: commission,
			Status:          types.CommissionStatusPending,
		}
		if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
			if isUniqueViolation(err) {
				// Already accrued for this transaction.
				return nil
			}
			return fmt.Errorf("failed to create commission: %w", err)
		}

		if err := tx.WithContext(ctx).Model(&models.Affiliate{}).
			Where("id = ?", aff.ID).
			Updates(map[string]any{
				"pending_payout_cents": gorm.Expr("pending_payout_cents + ?", commission),
				"total_earned_cents":   gorm.Expr("total_earned_cents + ?", commission),
			}).Error; err != nil {
			return fmt.Errorf("failed to bump affiliate balance: %w", err)
		}

		if err := tx.WithContext(ctx).Model(&models.AffiliateReferral{}).
			Where("id = ?", ref.ID).
			Updates(map[string]any{
				"transaction_count":       gorm.Expr("transaction_count + 1"),
				"revenue_cents":           gorm.Expr("revenue_cents + ?", evt.AmountCents),
				"commission_earned_cents": gorm.Expr("commission_earned_cents + ?", commission),
			}).Error; err != nil {
			return fmt.Errorf("failed to bump referral counters: %w", err)
		}

		if ref.Status == types.ReferralStatusPending {
			if err := s.activateReferral(ctx, tx, aff, &ref); err != nil {
				return err
			}
		}

		s.log.Infow("commission accrued",
			"affiliate_id", aff.ID, "transaction_id", evt.TransactionID,
			"type", evt.Type, "rate_bps", rate, "commission_cents", commission)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to accrue commission: %w", err)
	}
	return nil
}

// activateReferral flips a referral to active on its first qualifying
// transaction and recomputes the affiliate tier from the new active count.
func (s *Service) activateReferral(ctx context.Context, tx *gorm.DB, aff *models.Affiliate, ref *models.AffiliateReferral) error {
	res := tx.WithContext(ctx).Model(&models.AffiliateReferral{}).
		Where("id = ? AND status = ?", ref.ID, types.ReferralStatusPending).
		Update("status", types.ReferralStatusActive)
	if res.Error != nil {
		return fmt.Errorf("failed to activate referral: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var active int64
	if err := tx.WithContext(ctx).Model(&models.AffiliateReferral{}).
		Where("affiliate_id = ? AND status = ?", aff.ID, types.ReferralStatusActive).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to count active referrals: %w", err)
	}
	next := TierForActiveReferrals(active)
	if next == aff.Tier {
		return nil
	}
	if err := tx.WithContext(ctx).Model(&models.Affiliate{}).
		Where("id = ?", aff.ID).
		Update("tier", next).Error; err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	s.log.Infow("affiliate tier upgraded",
		"affiliate_id", aff.ID, "tier", next, "active_referrals", active)
	return nil
}
