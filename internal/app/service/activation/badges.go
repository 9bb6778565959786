package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/types"
)

// GetActiveBadges returns the UI projection of a listing's live activations.
// Expiry is lazy: the filter on ends_at decides, not the housekeeping sweep.
func (s *Service) GetActiveBadges(ctx context.Context, listingID string) ([]types.ActiveBadge, error) {
	if badges, ok := s.cache.GetBadges(ctx, listingID); ok {
		return badges, nil
	}

	now := time.Now()
	var rows []*models.Activation
	if err := s.db.WithContext(ctx).
		Where("listing_id = ? AND status = ? AND ends_at > ?", listingID, types.ActivationStatusActive, now).
		Order("starts_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list active activations: %w", err)
	}

	badges := s.badgesOf(ctx, rows, now)
	s.cache.SetBadges(ctx, listingID, badges)
	return badges, nil
}

// badgesOf projects live activations onto badges, resolving offering data from
// the purchase-time snapshot and falling back to the current catalog.
func (s *Service) badgesOf(ctx context.Context, rows []*models.Activation, now time.Time) []types.ActiveBadge {
	live := lo.Filter(rows, func(a *models.Activation, _ int) bool {
		return a.ActiveAt(now)
	})
	return lo.Map(live, func(a *models.Activation, _ int) types.ActiveBadge {
		badge := types.ActiveBadge{Kind: a.Kind, EndsAt: a.EndsAt}
		offering := a.GetOfferingSnapshot()
		if offering == nil {
			offering, _ = s.catalog.GetOfferingAny(ctx, a.OfferingID)
		}
		if offering != nil {
			badge.OfferingName = offering.Name
			badge.BadgeText = offering.BadgeText
			badge.BadgeColor = offering.BadgeColor
		}
		return badge
	})
}

// RecordView applies one page-view signal to the listing's live activations.
// The increment is atomic in the database; there is nothing to validate beyond
// "currently active", so a listing with no live activation is a no-op.
func (s *Service) RecordView(ctx context.Context, listingID string) error {
	return s.bumpCounter(ctx, listingID, "views")
}

// RecordClick applies one click signal, same contract as RecordView.
func (s *Service) RecordClick(ctx context.Context, listingID string) error {
	return s.bumpCounter(ctx, listingID, "clicks")
}

func (s *Service) bumpCounter(ctx context.Context, listingID, column string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.Activation{}).
		Where("listing_id = ? AND status = ? AND starts_at <= ? AND ends_at > ?",
			listingID, types.ActivationStatusActive, now, now).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", column, err)
	}
	return nil
}

// Cancel early-terminates an activation before its natural expiry. Credits are
// not returned: cancellation forfeits the remaining window.
func (s *Service) Cancel(ctx context.Context, activationID, ownerID string) error {
	now := time.Now()
	var listingID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var act models.Activation
		if err := tx.WithContext(ctx).Where("id = ?", activationID).First(&act).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivationNotFound
			}
			return fmt.Errorf("failed to load activation: %w", err)
		}
		if act.OwnerID != ownerID {
			return ErrNotOwner
		}
		if !act.ActiveAt(now) {
			return ErrActivationNotFound
		}
		listingID = act.ListingID
		return tx.WithContext(ctx).Model(&models.Activation{}).
			Where("id = ?", act.ID).
			Updates(map[string]any{"status": types.ActivationStatusCancelled, "ends_at": now}).Error
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateBadges(ctx, listingID)
	logctx.FromCtx(ctx, s.log).Infow("activation cancelled", "activation_id", activationID)
	return nil
}

// CurrentActivation returns the live activation occupying one slot, or nil.
func (s *Service) CurrentActivation(ctx context.Context, listingID, typeKey string) (*models.Activation, error) {
	now := time.Now()
	var act models.Activation
	err := s.db.WithContext(ctx).
		Where("listing_id = ? AND type_key = ? AND status = ? AND ends_at > ?",
			listingID, typeKey, types.ActivationStatusActive, now).
		Order("ends_at desc").
		First(&act).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current activation: %w", err)
	}
	return &act, nil
}

// ExpireLapsed flips lapsed rows to expired. Pure housekeeping: read paths
// never depend on it and historical counters are never altered.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Activation{}).
		Where("status = ? AND ends_at <= ?", types.ActivationStatusActive, time.Now()).
		Update("status", types.ActivationStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire activations: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Infow("expired lapsed activations", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
