package activation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/models"
	"github.com/feiralivre/monetize/pkg/config"
	"github.com/feiralivre/monetize/pkg/types"
)

func boostActivation(status types.ActivationStatus, startsAt, endsAt time.Time, offering *types.Offering) *models.Activation {
	a := &models.Activation{
		ID:        "act-1",
		ListingID: "listing-1",
		Kind:      types.OfferingKindBoost,
		Status:    status,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
	}
	if offering != nil {
		a.OfferingID = offering.ID
		a.TypeKey = offering.TypeKey()
		a.Extra = datatypes.NewJSONType(&models.ActivationExtra{OfferingSnapshot: offering})
	}
	return a
}

func TestActivation_ActiveAt(t *testing.T) {
	now := time.Now()

	live := boostActivation(types.ActivationStatusActive, now.Add(-time.Hour), now.Add(time.Hour), nil)
	require.True(t, live.ActiveAt(now))

	// A lapsed window keeps status active until the sweep runs, but is not live.
	lapsed := boostActivation(types.ActivationStatusActive, now.Add(-2*time.Hour), now.Add(-time.Minute), nil)
	require.False(t, lapsed.ActiveAt(now))

	cancelled := boostActivation(types.ActivationStatusCancelled, now.Add(-time.Hour), now.Add(time.Hour), nil)
	require.False(t, cancelled.ActiveAt(now))

	future := boostActivation(types.ActivationStatusActive, now.Add(time.Hour), now.Add(2*time.Hour), nil)
	require.False(t, future.ActiveAt(now))
}

func TestBadgesOf_ProjectsSnapshot(t *testing.T) {
	now := time.Now()
	offering := &types.Offering{
		ID:         "boost-7d",
		Kind:       types.OfferingKindBoost,
		Name:       "Destaque 7 dias",
		BadgeText:  "Destaque",
		BadgeColor: "#FFB300",
	}

	svc := &Service{}
	rows := []*models.Activation{
		boostActivation(types.ActivationStatusActive, now.Add(-time.Hour), now.Add(time.Hour), offering),
		boostActivation(types.ActivationStatusActive, now.Add(-48*time.Hour), now.Add(-time.Hour), offering),
	}

	badges := svc.badgesOf(context.Background(), rows, now)
	require.Len(t, badges, 1)
	require.Equal(t, types.OfferingKindBoost, badges[0].Kind)
	require.Equal(t, "Destaque 7 dias", badges[0].OfferingName)
	require.Equal(t, "Destaque", badges[0].BadgeText)
	require.Equal(t, "#FFB300", badges[0].BadgeColor)
	require.Equal(t, rows[0].EndsAt, badges[0].EndsAt)
}

func TestBadgesOf_CatalogFallbackWithoutSnapshot(t *testing.T) {
	now := time.Now()
	cfg := &config.Config{Offerings: []*types.Offering{{
		ID:        "boost-30d",
		Kind:      types.OfferingKindBoost,
		Name:      "Destaque 30 dias",
		BadgeText: "Destaque",
		Active:    true,
	}}}
	svc := &Service{catalog: catalog.NewService(cfg, zap.NewNop().Sugar())}

	// A row written before snapshots existed has no offering in Extra; the
	// badge resolves through the catalog on the request context.
	row := boostActivation(types.ActivationStatusActive, now.Add(-time.Hour), now.Add(time.Hour), nil)
	row.OfferingID = "boost-30d"

	badges := svc.badgesOf(context.Background(), []*models.Activation{row}, now)
	require.Len(t, badges, 1)
	require.Equal(t, "Destaque 30 dias", badges[0].OfferingName)
	require.Equal(t, "Destaque", badges[0].BadgeText)
}

func TestOfferingTypeKey_SeparatesPremiumServiceTypes(t *testing.T) {
	boost := &types.Offering{ID: "b", Kind: types.OfferingKindBoost}
	featured := &types.Offering{ID: "f", Kind: types.OfferingKindPremiumService, ServiceType: "featured_listing"}
	highlight := &types.Offering{ID: "h", Kind: types.OfferingKindPremiumService, ServiceType: "search_highlight"}

	require.Equal(t, "boost", boost.TypeKey())
	require.Equal(t, "premium_service:featured_listing", featured.TypeKey())
	require.Equal(t, "premium_service:search_highlight", highlight.TypeKey())
	require.NotEqual(t, featured.TypeKey(), highlight.TypeKey())
}

func TestIsStorageConflict(t *testing.T) {
	require.True(t, isStorageConflict(errDeadlock{}))
	require.False(t, isStorageConflict(nil))
}

type errDeadlock struct{}

func (errDeadlock) Error() string { return "ERROR: deadlock detected (SQLSTATE 40P01)" }
