package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/types"
)

func testCatalog() *Service {
	cfg := &config.Config{
		Offerings: []*types.Offering{
			{ID: "boost-7d", Kind: types.OfferingKindBoost, Name: "Destaque 7 dias", CreditCost: 50, DurationHours: 168, Active: true},
			{ID: "boost-30d", Kind: types.OfferingKindBoost, Name: "Destaque 30 dias", CreditCost: 150, DurationHours: 720, Active: true},
			{ID: "featured-old", Kind: types.OfferingKindPremiumService, ServiceType: "featured_listing", Name: "Vitrine (antigo)", Active: false},
			{ID: "geo-sp", Kind: types.OfferingKindGeographicBoost, Region: "sao-paulo", Name: "Destaque SP", Active: true},
		},
	}
	return NewService(cfg, zap.NewNop().Sugar())
}

func TestGetOffering(t *testing.T) {
	svc := testCatalog()
	ctx := context.Background()

	o, err := svc.GetOffering(ctx, "boost-7d")
	require.NoError(t, err)
	require.Equal(t, "Destaque 7 dias", o.Name)

	_, err = svc.GetOffering(ctx, "nope")
	require.ErrorIs(t, err, ErrOfferingNotFound)

	_, err = svc.GetOffering(ctx, "featured-old")
	require.ErrorIs(t, err, ErrOfferingInactive)
}

func TestGetOfferingAny_ResolvesInactive(t *testing.T) {
	svc := testCatalog()

	o, err := svc.GetOfferingAny(context.Background(), "featured-old")
	require.NoError(t, err)
	require.False(t, o.Active)
}

func TestListActive(t *testing.T) {
	svc := testCatalog()
	ctx := context.Background()

	all := svc.ListActive(ctx, "")
	require.Len(t, all, 3)

	boosts := svc.ListActive(ctx, types.OfferingKindBoost)
	require.Len(t, boosts, 2)

	premium := svc.ListActive(ctx, types.OfferingKindPremiumService)
	require.Empty(t, premium)
}
