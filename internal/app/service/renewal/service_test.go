package renewal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feiralivre/monetize/internal/models"
)

func TestRenewalDue_NeverRenewedWithoutActivation(t *testing.T) {
	now := time.Now()
	st := &models.AutoRenewalSetting{}
	require.True(t, renewalDue(st, nil, now, 24*time.Hour))
}

func TestRenewalDue_ActivationOutsideLookahead(t *testing.T) {
	now := time.Now()
	st := &models.AutoRenewalSetting{}
	current := &models.Activation{EndsAt: now.Add(72 * time.Hour)}
	require.False(t, renewalDue(st, current, now, 24*time.Hour))
}

func TestRenewalDue_ActivationInsideLookahead(t *testing.T) {
	now := time.Now()
	st := &models.AutoRenewalSetting{}
	current := &models.Activation{EndsAt: now.Add(12 * time.Hour)}
	require.True(t, renewalDue(st, current, now, 24*time.Hour))
}

func TestRenewalDue_GateBlocksRepeatWithinWindow(t *testing.T) {
	now := time.Now()
	lookahead := 24 * time.Hour

	// First cycle renews: the old activation ends in 12h.
	st := &models.AutoRenewalSetting{}
	current := &models.Activation{EndsAt: now.Add(12 * time.Hour)}
	require.True(t, renewalDue(st, current, now, lookahead))

	// After a successful renewal the gate advances to new end minus lookahead.
	newEnd := now.Add(12*time.Hour + 168*time.Hour)
	next := newEnd.Add(-lookahead)
	st.NextRenewalAt = &next

	// Re-running cycles inside the same window must not renew again, even
	// though the renewed activation itself keeps moving through time.
	renewed := &models.Activation{EndsAt: newEnd}
	for _, offset := range []time.Duration{time.Minute, time.Hour, 24 * time.Hour} {
		require.False(t, renewalDue(st, renewed, now.Add(offset), lookahead), "offset=%s", offset)
	}

	// Once the gate time arrives and the activation is inside lookahead, it
	// becomes due again.
	require.True(t, renewalDue(st, renewed, next.Add(time.Minute), lookahead))
}

func TestNotificationDue_ThrottlesRepeatCycles(t *testing.T) {
	now := time.Now()

	// Never notified: due immediately.
	require.True(t, notificationDue(nil, now))

	// An hourly cycle re-hitting the same action-required setting stays quiet
	// for the rest of the backoff window.
	first := now
	for _, offset := range []time.Duration{time.Hour, 6 * time.Hour, 23 * time.Hour} {
		require.False(t, notificationDue(&first, now.Add(offset)), "offset=%s", offset)
	}

	// After the backoff the reminder fires again.
	require.True(t, notificationDue(&first, now.Add(notifyBackoff)))
	require.True(t, notificationDue(&first, now.Add(48*time.Hour)))
}

func TestRenewalDue_GatePassedButActivationStillFar(t *testing.T) {
	now := time.Now()
	gate := now.Add(-time.Hour)
	st := &models.AutoRenewalSetting{NextRenewalAt: &gate}

	// A stale gate alone is not enough while a manually extended activation
	// still runs far beyond the lookahead.
	current := &models.Activation{EndsAt: now.Add(200 * time.Hour)}
	require.False(t, renewalDue(st, current, now, 24*time.Hour))
}
