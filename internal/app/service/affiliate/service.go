package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/logctx"
	"github.com/feiralivre/monetize/pkg/tool"
	"github.com/feiralivre/monetize/pkg/types"
)

const codeAttempts = 5

// Service owns the affiliate program: enrollment, referral registration,
// commission accrual and payouts.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger

	linkBase       string
	minPayoutCents int64
}

func NewService(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{
		db:             db,
		log:            log,
		linkBase:       cfg.Affiliate.LinkBase,
		minPayoutCents: cfg.Affiliate.MinPayoutCents,
	}
}

type EnrollRequest struct {
	PixKey string `json:"pix_key"`
}

// Enroll creates the affiliate record with a fresh referral code. Enrollment
// is once per user; a second call returns ErrAlreadyEnrolled.
func (s *Service) Enroll(ctx context.Context, userID string, req *EnrollRequest) (*models.Affiliate, error) {
	var existing models.Affiliate
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	var aff *models.Affiliate
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := newReferralCode()
		aff = &models.Affiliate{
			ID:           tool.GenerateUUIDV7(),
			UserID:       userID,
			Code:         code,
			ReferralLink: s.linkBase + code,
			Tier:         types.AffiliateTierBronze,
			PixKey:       req.PixKey,
		}
		err = s.db.WithContext(ctx).Create(aff).Error
		if err == nil {
			break
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create affiliate: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create affiliate: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("affiliate enrolled", "user_id", userID, "code", aff.Code)
	return aff, nil
}

// RegisterReferral binds a newly signed-up user to the affiliate owning the
// code. A user is referred at most once; the first code wins.
func (s *Service) RegisterReferral(ctx context.Context, code, referredUserID string) (*models.AffiliateReferral, error) {
	var aff models.Affiliate
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&aff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReferralCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}
	if aff.UserID == referredUserID {
		return nil, ErrSelfReferral
	}

	ref := &models.AffiliateReferral{
		ID:             tool.GenerateUUIDV7(),
		AffiliateID:    aff.ID,
		ReferredUserID: referredUserID,
		Status:         types.ReferralStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(ref).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyReferred
		}
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("referral registered",
		"affiliate_id", aff.ID, "referred_user_id", referredUserID)
	return ref, nil
}

func (s *Service) GetByUser(ctx context.Context, userID string) (*models.Affiliate, error) {
	var aff models.Affiliate
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&aff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load affiliate: %w", err)
	}
	return &aff, nil
}

func (s *Service) ListReferrals(ctx context.Context, userID string) ([]*models.AffiliateReferral, error) {
	aff, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var refs []*models.AffiliateReferral
	if err := s.db.WithContext(ctx).
		Where("affiliate_id = ?", aff.ID).
		Order("created_at").
		Find(&refs).Error; err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return refs, nil
}

type Summary struct {
	Affiliate          *models.Affiliate `json:"affiliate"`
	TotalReferrals     int64             `json:"total_referrals"`
	ActiveReferrals    int64             `json:"active_referrals"`
	PendingPayoutCents int64             `json:"pending_payout_cents"`
}

// GetSummary returns the affiliate dashboard aggregates.
func (s *Service) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	aff, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, active, err := s.referralCounts(ctx, s.db, aff.ID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Affiliate:          aff,
		TotalReferrals:     total,
		ActiveReferrals:    active,
		PendingPayoutCents: aff.PendingPayoutCents,
	}, nil
}

func (s *Service) referralCounts(ctx context.Context, tx *gorm.DB, affiliateID string) (total, active int64, err error) {
	err = tx.WithContext(ctx).Model(&models.AffiliateReferral{}).
		Where("affiliate_id = ?", affiliateID).
		Count(&total).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	err = tx.WithContext(ctx).Model(&models.AffiliateReferral{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, types.ReferralStatusActive).
		Count(&active).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count active referrals: %w", err)
	}
	return total, active, nil
}

func (s *Service) lockAffiliate(ctx context.Context, tx *gorm.DB, id string) (*models.Affiliate, error) {
	var aff models.Affiliate
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&aff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock affiliate: %w", err)
	}
	return &aff, nil
}

// newReferralCode derives a short shareable code from random UUID bytes.
func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
