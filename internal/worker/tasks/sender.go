package tasks

import (
	"context"

	"go.uber.org/zap"

	"funding-core/pkg/logger"
)

// LogSender is the default Sender: it records the dispatch and succeeds.
// The real delivery provider sits behind this boundary; its availability
// must never influence ledger processing.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, templateKind, recipient string, data map[string]string) error {
	logger.Info("dispatching notification",
		zap.String("template", templateKind),
		zap.String("recipient", recipient),
		zap.String("campaign", data["campaign"]),
		zap.String("amount", data["amount"]))
	return nil
}
