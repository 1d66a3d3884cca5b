package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"funding-core/internal/service"
	"funding-core/pkg/config"
	"funding-core/pkg/database"
	"funding-core/pkg/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation sweep",
	Long: "Re-runs the handler for every admitted webhook event that never " +
		"finished processing and is older than the grace period. The same " +
		"sweep runs on a schedule inside the server; this command is for " +
		"forcing a pass during incident response.",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		_, webhooks, store, err := setup()
		if err != nil {
			return err
		}

		rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		reconcile := service.NewReconcileService(
			store,
			webhooks,
			rdb,
			config.Global.Reconcile.Schedule,
			time.Duration(config.Global.Reconcile.GraceSeconds)*time.Second,
			config.Global.Reconcile.BatchSize,
		)

		repaired, err := reconcile.Sweep(context.Background())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		fmt.Printf("sweep complete: %d event(s) repaired\n", repaired)
		return nil
	},
}
