package renewal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

// Notifier is the external notification dispatch, fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, userID, templateKind string, payload map[string]any)
}

// Service owns auto-renewal settings and performs the periodic renewal scan.
// It is the only caller of the activation engine that acts without a direct
// user action, authenticating as the setting's owner for ledger purposes.
type Service struct {
	db          *gorm.DB
	catalog     *catalog.Service
	activations *activation.Service
	notifier    Notifier
	log         *zap.SugaredLogger

	lookahead   time.Duration
	concurrency int
}

func NewService(db *gorm.DB, cfg *config.Config, cat *catalog.Service, act *activation.Service,
	notifier Notifier, log *zap.SugaredLogger) *Service {
	return &Service{
		db:          db,
		catalog:     cat,
		activations: act,
		notifier:    notifier,
		log:         log,
		lookahead:   cfg.Scheduler.Lookahead,
		concurrency: cfg.Scheduler.Concurrency,
	}
}

type UpsertSettingRequest struct {
	ListingID     string              `json:"listing_id"`
	OfferingID    string              `json:"offering_id"`
	Enabled       bool                `json:"enabled"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
}

// UpsertSetting creates or updates the setting for one renewal slot. The
// composite key (user, listing, renewal kind, offering) makes the call
// idempotent; repeating it only rewrites the mutable fields.
func (s *Service) UpsertSetting(ctx context.Context, userID string, req *UpsertSettingRequest) (*models.AutoRenewalSetting, error) {
	offering, err := s.catalog.GetOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = types.PaymentMethodCredits
	}

	var setting models.AutoRenewalSetting
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Where("user_id = ? AND listing_id = ? AND renewal_kind = ? AND offering_id = ?",
				userID, req.ListingID, offering.TypeKey(), req.OfferingID).
			First(&setting).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load renewal setting: %w", err)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			setting = models.AutoRenewalSetting{
				ID:          tool.GenerateUUIDV7(),
				UserID:      userID,
				ListingID:   req.ListingID,
				RenewalKind: offering.TypeKey(),
				OfferingID:  req.OfferingID,
			}
		}
		setting.Enabled = req.Enabled
		setting.PaymentMethod = req.PaymentMethod
		return tx.WithContext(ctx).Save(&setting).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert renewal setting: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("renewal setting upserted",
		"user_id", userID, "listing_id", req.ListingID, "offering_id", req.OfferingID, "enabled", req.Enabled)
	return &setting, nil
}

func (s *Service) ListSettings(ctx context.Context, userID string) ([]*models.AutoRenewalSetting, error) {
	var settings []*models.AutoRenewalSetting
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to list renewal settings: %w", err)
	}
	return settings, nil
}

// RunCycle scans all enabled settings once. Settings are processed with
// bounded concurrency and fail independently: one broken row never blocks the
// rest, and the cycle itself only errors when the scan query does.
func (s *Service) RunCycle(ctx context.Context) error {
	var settings []*models.AutoRenewalSetting
	if err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to scan renewal settings: %w", err)
	}
	if len(settings) == 0 {
		return nil
	}

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, st := range settings {
		g.Go(func() error {
			if err := s.processSetting(gctx, st, now); err != nil {
				s.log.Errorw("renewal failed",
					"err", err, "user_id", st.UserID, "listing_id", st.ListingID, "offering_id", st.OfferingID)
			}
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

func (s *Service) processSetting(ctx context.Context, st *models.AutoRenewalSetting, now time.Time) error {
	current, err := s.activations.CurrentActivation(ctx, st.ListingID, st.RenewalKind)
	if err != nil {
		return err
	}
	if !renewalDue(st, current, now, s.lookahead) {
		return nil
	}

	if st.PaymentMethod == types.PaymentMethodMoney {
		// Money renewals need the owner at the gateway; nudge instead.
		return s.notifyOnce(ctx, st, now, "renewal_requires_checkout")
	}

	req := &activation.ActivateRequest{
		ListingID:  st.ListingID,
		OfferingID: st.OfferingID,
		OwnerID:    st.UserID,
		AutoRenew:  true,
	}
	if current != nil {
		req.RenewedFromID = current.ID
	}
	act, err := s.activations.Activate(ctx, req)
	if errors.Is(err, ledger.ErrInsufficientBalance) || errors.Is(err, ledger.ErrUnknownAccount) {
		// Keep the setting enabled and the gate unadvanced so the next cycle
		// retries once the owner tops up.
		return s.notifyOnce(ctx, st, now, "renewal_insufficient_balance")
	}
	if err != nil {
		return err
	}

	next := act.EndsAt.Add(-s.lookahead)
	if err := s.db.WithContext(ctx).Model(&models.AutoRenewalSetting{}).
		Where("id = ?", st.ID).
		Updates(map[string]any{
			"last_renewal_at": now,
			"next_renewal_at": next,
			"renewal_count":   gorm.Expr("renewal_count + 1"),
		}).Error; err != nil {
		return fmt.Errorf("failed to advance renewal setting: %w", err)
	}
	s.log.Infow("auto-renewed activation",
		"user_id", st.UserID, "listing_id", st.ListingID, "offering_id", st.OfferingID,
		"activation_id", act.ID, "next_renewal_at", next)
	return nil
}

// notifyOnce sends an action-required notification unless one went out within
// the backoff. The setting stays due, so the reminder repeats daily until the
// owner acts, not on every cycle.
func (s *Service) notifyOnce(ctx context.Context, st *models.AutoRenewalSetting, now time.Time, templateKind string) error {
	if !notificationDue(st.LastNotifiedAt, now) {
		return nil
	}
	s.notifier.Notify(ctx, st.UserID, templateKind, map[string]any{
		"listing_id":  st.ListingID,
		"offering_id": st.OfferingID,
	})
	if err := s.db.WithContext(ctx).Model(&models.AutoRenewalSetting{}).
		Where("id = ?", st.ID).
		Update("last_notified_at", now).Error; err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

const notifyBackoff = 24 * time.Hour

func notificationDue(last *time.Time, now time.Time) bool {
	return last == nil || !now.Before(last.Add(notifyBackoff))
}

// renewalDue is the idempotency gate. next_renewal_at is advanced only after
// a successful renewal, so re-running a cycle inside the same lookahead window
// cannot renew twice; a nil gate means the setting never renewed yet.
func renewalDue(st *models.AutoRenewalSetting, current *models.Activation, now time.Time, lookahead time.Duration) bool {
	if st.NextRenewalAt != nil && now.Before(*st.NextRenewalAt) {
		return false
	}
	if current == nil {
		return true
	}
	return !current.EndsAt.After(now.Add(lookahead))
}
