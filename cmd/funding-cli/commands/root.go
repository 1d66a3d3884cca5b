package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"funding-core/internal/service"
	"funding-core/pkg/config"
	"funding-core/pkg/database"
	"funding-core/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "funding-cli",
	Short: "Operational tooling for the funding ledger",
	Long:  "funding-cli provides operator commands for the payment ledger: replaying stuck webhook events and running the reconciliation sweep by hand.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(syncOrganizerCmd)
}

// setup connects to postgres and builds the webhook processing pipeline the
// operator commands share. Notifications go through the same asynq client as
// the server, so a replayed event enqueues receipts exactly once.
func setup() (*gorm.DB, *service.WebhookService, service.LedgerStore, error) {
	config.Init()
	logger.Init(config.Global.App.Env)

	db, err := database.ConnectPostgres(fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.Global.DB.Host, config.Global.DB.Port, config.Global.DB.User,
		config.Global.DB.Password, config.Global.DB.Name,
	))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	store := service.NewGormLedgerStore(db)
	ledger := service.NewLedgerService(store, newNotifier(), config.Global.Fees.PlatformFeeBps)
	webhooks := service.NewWebhookService(store, ledger)
	return db, webhooks, store, nil
}
