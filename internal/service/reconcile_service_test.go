package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRepairsFailedEvent(t *testing.T) {
	store := newFakeLedgerStore()
	webhooks := NewWebhookService(store, NewLedgerService(store, &fakeNotifier{}, 800))
	// Negative grace puts the cutoff in the future so freshly admitted
	// events are eligible immediately.
	reconcile := NewReconcileService(store, webhooks, nil, "@every 1m", -time.Second, 100)

	// The campaign does not exist yet, so the handler fails after admission.
	body := envelopeBody(t, "evt_stuck", "checkout.session.completed", completedSession("pi_stuck"))
	admitted, err := webhooks.AdmitOnce(context.Background(), "evt_stuck", "checkout.session.completed", body)
	require.NoError(t, err)
	require.True(t, admitted)
	webhooks.Process(context.Background(), "evt_stuck", "checkout.session.completed", body)

	ev, err := store.EventByProviderID(context.Background(), "evt_stuck")
	require.NoError(t, err)
	require.Nil(t, ev.ProcessedAt)
	require.NotEmpty(t, ev.ProcessingError)

	// Operator fixes the missing campaign, then the sweep heals the event.
	seedCampaign(store)
	retried, err := reconcile.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, retried)

	ev, err = store.EventByProviderID(context.Background(), "evt_stuck")
	require.NoError(t, err)
	assert.NotNil(t, ev.ProcessedAt)

	_, err = store.DonationByPaymentRef(context.Background(), "pi_stuck")
	assert.NoError(t, err)

	// Nothing left to sweep.
	retried, err = reconcile.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, retried)
}

func TestSweepLeavesFreshEventsToInlinePath(t *testing.T) {
	store := newFakeLedgerStore()
	webhooks := NewWebhookService(store, NewLedgerService(store, &fakeNotifier{}, 800))
	reconcile := NewReconcileService(store, webhooks, nil, "@every 1m", time.Hour, 100)

	body := envelopeBody(t, "evt_fresh", "checkout.session.completed", completedSession("pi_fresh"))
	admitted, err := webhooks.AdmitOnce(context.Background(), "evt_fresh", "checkout.session.completed", body)
	require.NoError(t, err)
	require.True(t, admitted)

	retried, err := reconcile.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, retried)
}
