package payment

import (
	"context"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"go.uber.org/zap"
)

// HostedWidget hands a checkout to the provider's embedded widget. The browser renders it from the
// returned configuration, so opening only requires a public key to be configured.
type HostedWidget struct {
	publicKey string
	logger    *zap.Logger
}

func NewHostedWidget(publicKey string, logger *zap.Logger) *HostedWidget {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostedWidget{publicKey: publicKey, logger: logger}
}

func (w *HostedWidget) Open(ctx context.Context, cfg checkout.WidgetConfig) error {
	if w.publicKey == "" || cfg.APIKey == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w.logger.Info("payment widget configured",
		zap.String("order_id", cfg.OrderID),
		zap.Int64("amount", cfg.Amount))
	return nil
}
