package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"funding-core/internal/worker"
	"funding-core/pkg/config"
	"funding-core/pkg/logger"
)

func newNotifier() *worker.Client {
	return worker.NewClient(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
}

var replayCmd = &cobra.Command{
	Use:   "replay <event-id>",
	Short: "Re-run the handler for an admitted webhook event",
	Long: "Fetches the stored payload for the given provider event id and runs " +
		"its handler again. Ledger writes are idempotent, so replaying a " +
		"successfully processed event is a safe no-op.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		_, webhooks, store, err := setup()
		if err != nil {
			return err
		}

		ctx := context.Background()
		eventID := args[0]

		ev, err := store.EventByProviderID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("load event %s: %w", eventID, err)
		}

		webhooks.Process(ctx, ev.ProviderEventID, ev.EventKind, ev.Payload)

		// Re-read for the recorded outcome.
		ev, err = store.EventByProviderID(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.ProcessedAt != nil {
			fmt.Printf("event %s (%s) processed at %s\n", ev.ProviderEventID, ev.EventKind, ev.ProcessedAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		}
		return fmt.Errorf("event %s handler failed: %s", ev.ProviderEventID, ev.ProcessingError)
	},
}
