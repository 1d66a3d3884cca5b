package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"funding-core/internal/model"
	"funding-core/internal/worker/tasks"
)

// Client wraps the asynq client and implements the ledger's Notifier
// boundary.
type Client struct {
	client *asynq.Client
}

// NewClient initializes the task queue client.
// addr: "localhost:6379"
func NewClient(addr string, password string, db int) *Client {
	c := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Client{client: c}
}

// Enqueue pushes a task onto the queue.
func (c *Client) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return c.client.Enqueue(task, opts...)
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueDonorReceipt queues the donor's receipt email.
func (c *Client) EnqueueDonorReceipt(ctx context.Context, d *model.Donation, campaignTitle string) error {
	if d.DonorEmail == "" {
		return nil // anonymous donations without contact get no receipt
	}
	task, err := tasks.NewDonorReceiptTask(receiptPayload(d, campaignTitle, d.DonorEmail))
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue("default"))
	return err
}

// EnqueueOrganizerNotification queues the organizer's new-donation notice.
func (c *Client) EnqueueOrganizerNotification(ctx context.Context, d *model.Donation, campaignTitle string) error {
	task, err := tasks.NewOrganizerNotifyTask(receiptPayload(d, campaignTitle, ""))
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue("low"))
	return err
}

func receiptPayload(d *model.Donation, campaignTitle, recipient string) tasks.ReceiptPayload {
	return tasks.ReceiptPayload{
		PaymentRef:    d.ProcessorPaymentRef,
		DonationID:    d.ID,
		Recipient:     recipient,
		DonorName:     d.DonorName,
		Anonymous:     d.Anonymous,
		CampaignTitle: campaignTitle,
		GrossAmount:   d.GrossAmount,
		Currency:      d.Currency,
		DonorMessage:  d.Message,
	}
}
