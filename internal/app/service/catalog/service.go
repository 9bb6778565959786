package catalog

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/types"
)

var (
	ErrOfferingNotFound = errors.New("offering not found")
	ErrOfferingInactive = errors.New("offering inactive")
)

// Service is the read-only registry of purchasable offerings. The catalog is
// admin-managed configuration, not user data, so it lives in the config file
// and is deployed with the service.
type Service struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, log: log}
}

// GetOffering resolves an offering for purchase. Disabled rows stay resolvable
// through GetOfferingAny for rendering history, but cannot be purchased.
func (s *Service) GetOffering(ctx context.Context, id string) (*types.Offering, error) {
	o := s.cfg.GetOfferingByID(id)
	if o == nil {
		return nil, ErrOfferingNotFound
	}
	if !o.Active {
		return nil, ErrOfferingInactive
	}
	return o, nil
}

// GetOfferingAny resolves an offering regardless of its active flag.
func (s *Service) GetOfferingAny(ctx context.Context, id string) (*types.Offering, error) {
	o := s.cfg.GetOfferingByID(id)
	if o == nil {
		return nil, ErrOfferingNotFound
	}
	return o, nil
}

// ListActive returns the purchasable catalog, optionally narrowed to one kind.
func (s *Service) ListActive(ctx context.Context, kind types.OfferingKind) []*types.Offering {
	return lo.Filter(s.cfg.Offerings, func(o *types.Offering, _ int) bool {
		if !o.Active {
			return false
		}
		return kind == "" || o.Kind == kind
	})
}
