package tasks

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funding-core/pkg/monitor"
)

func TestMain(m *testing.M) {
	monitor.InitBusinessMetrics()
	os.Exit(m.Run())
}

type fakeDispatchLog struct {
	sent    map[string]bool
	markErr error
}

func newFakeDispatchLog() *fakeDispatchLog {
	return &fakeDispatchLog{sent: make(map[string]bool)}
}

func (f *fakeDispatchLog) key(paymentRef, channel string) string { return paymentRef + "/" + channel }

func (f *fakeDispatchLog) ChannelSent(ctx context.Context, paymentRef, channel string) (bool, error) {
	return f.sent[f.key(paymentRef, channel)], nil
}

func (f *fakeDispatchLog) MarkChannelSent(ctx context.Context, paymentRef, channel string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.sent[f.key(paymentRef, channel)] = true
	return nil
}

type fakeSender struct {
	sends []map[string]string
	err   error
}

func (f *fakeSender) Send(ctx context.Context, templateKind, recipient string, data map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, data)
	return nil
}

func payload() ReceiptPayload {
	return ReceiptPayload{
		PaymentRef:    "pi_1",
		DonationID:    1,
		Recipient:     "ada@example.com",
		DonorName:     "Ada",
		CampaignTitle: "Save the River",
		GrossAmount:   2500,
		Currency:      "usd",
	}
}

func TestDonorReceiptSentOnce(t *testing.T) {
	log := newFakeDispatchLog()
	sender := &fakeSender{}
	h := NewReceiptHandler(log, sender)

	task, err := NewDonorReceiptTask(payload())
	require.NoError(t, err)

	require.NoError(t, h.HandleDonorReceipt(context.Background(), task))
	// Task retry after a partial failure elsewhere: the dispatch log
	// suppresses the second send.
	require.NoError(t, h.HandleDonorReceipt(context.Background(), task))

	assert.Len(t, sender.sends, 1)
	assert.Equal(t, "Ada", sender.sends[0]["donor"])
	assert.Equal(t, "25.00", sender.sends[0]["amount"])
}

func TestChannelsAreIndependent(t *testing.T) {
	log := newFakeDispatchLog()
	sender := &fakeSender{}
	h := NewReceiptHandler(log, sender)

	donor, err := NewDonorReceiptTask(payload())
	require.NoError(t, err)
	organizer, err := NewOrganizerNotifyTask(payload())
	require.NoError(t, err)

	require.NoError(t, h.HandleDonorReceipt(context.Background(), donor))
	require.NoError(t, h.HandleOrganizerNotify(context.Background(), organizer))

	assert.Len(t, sender.sends, 2)
}

func TestAnonymousDonorNameMasked(t *testing.T) {
	log := newFakeDispatchLog()
	sender := &fakeSender{}
	h := NewReceiptHandler(log, sender)

	p := payload()
	p.Anonymous = true
	task, err := NewOrganizerNotifyTask(p)
	require.NoError(t, err)

	require.NoError(t, h.HandleOrganizerNotify(context.Background(), task))
	assert.Equal(t, "An anonymous donor", sender.sends[0]["donor"])
}

func TestSenderFailureIsRetryable(t *testing.T) {
	log := newFakeDispatchLog()
	sender := &fakeSender{err: errors.New("smtp unavailable")}
	h := NewReceiptHandler(log, sender)

	task, err := NewDonorReceiptTask(payload())
	require.NoError(t, err)

	err = h.HandleDonorReceipt(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	// The channel stays unmarked so the retry sends.
	sent, err := log.ChannelSent(context.Background(), "pi_1", ChannelReceipt)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	h := NewReceiptHandler(newFakeDispatchLog(), &fakeSender{})

	task := asynq.NewTask(TypeDonorReceipt, []byte("not json"))
	err := h.HandleDonorReceipt(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "25.00", FormatAmount(2500))
	assert.Equal(t, "0.99", FormatAmount(99))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "10000.05", FormatAmount(1000005))
}
