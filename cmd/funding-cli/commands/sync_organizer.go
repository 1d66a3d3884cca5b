package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"funding-core/internal/processor"
	"funding-core/pkg/config"
	"funding-core/pkg/logger"
)

var syncOrganizerCmd = &cobra.Command{
	Use:   "sync-organizer <organizer-id>",
	Short: "Refresh an organizer's onboarding flag from the processor",
	Long: "Fetches the connected account's capability flags directly from the " +
		"payment processor and updates the organizer's onboarding status. Use " +
		"this when an account.updated delivery was missed.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		organizerID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid organizer id %q", args[0])
		}

		_, _, store, err := setup()
		if err != nil {
			return err
		}

		ctx := context.Background()
		organizer, err := store.OrganizerByID(ctx, organizerID)
		if err != nil {
			return err
		}

		pc := processor.NewStripeClient(config.Global.Stripe.SecretKey)
		status, err := pc.Account(ctx, organizer.ProcessorAccountRef)
		if err != nil {
			return fmt.Errorf("fetch account %s: %w", organizer.ProcessorAccountRef, err)
		}

		complete := status.CanReceiveTransfers()
		if err := store.SetOrganizerOnboarded(ctx, organizer.ID, complete); err != nil {
			return err
		}

		fmt.Printf("organizer %d (%s): charges_enabled=%v payouts_enabled=%v onboarding_complete=%v\n",
			organizer.ID, organizer.ProcessorAccountRef,
			status.ChargesEnabled, status.PayoutsEnabled, complete)
		return nil
	},
}
