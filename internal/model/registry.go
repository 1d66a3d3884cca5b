package model

// AllModels returns every model that participates in schema migration.
// New tables only need to be added here, not in main.go.
func AllModels() []interface{} {
	return []interface{}{
		&Organizer{},
		&Campaign{},
		&RewardTier{},
		&Donation{},
		&RefundRecord{},
		&DisputeNote{},
		&FraudNote{},
		&WebhookEvent{},
		&ReceiptDispatchLog{},
		&OutboxMessage{},
	}
}
