package checkout

import (
	"context"

	"github.com/eltovar/DeiiwoCoffee/internal/locale"
)

// PaymentWidget opens the provider-hosted payment interface for an order.
type PaymentWidget interface {
	Open(ctx context.Context, cfg WidgetConfig) error
}

type WidgetFunc func(ctx context.Context, cfg WidgetConfig) error

func (f WidgetFunc) Open(ctx context.Context, cfg WidgetConfig) error {
	return f(ctx, cfg)
}

// InProgressReporter is implemented by Flow.
type InProgressReporter interface {
	InProgress() bool
}

// UnloadGuard decides whether leaving the page should be confirmed by the user.
type UnloadGuard struct {
	flow InProgressReporter
	lang func() locale.Lang
}

func NewUnloadGuard(flow InProgressReporter, lang func() locale.Lang) *UnloadGuard {
	return &UnloadGuard{flow: flow, lang: lang}
}

// Check returns the warning to show, and false when leaving is safe.
func (g *UnloadGuard) Check() (string, bool) {
	if !g.flow.InProgress() {
		return "", false
	}
	l := locale.Default
	if g.lang != nil {
		l = g.lang()
	}
	return locale.T(l, locale.MsgUnloadWarning), true
}
