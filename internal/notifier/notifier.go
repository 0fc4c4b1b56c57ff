package notifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"go.uber.org/zap"
)

const defaultSendTimeout = 30 * time.Second

// Ledger returns domain.ErrDuplicateOrder for an order it has already recorded. An order is
// marked notified only after every email for it went out.
type Ledger interface {
	RecordPaidOrder(ctx context.Context, order domain.PaidOrder) error
	MarkNotified(ctx context.Context, orderID string) error
	IsNotified(ctx context.Context, orderID string) (bool, error)
}

// Outcome describes what Handle did with a callback.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDuplicate
	OutcomeNotified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeNotified:
		return "notified"
	}
	return "unknown"
}

type Config struct {
	Sender      string
	OpsMailbox  string
	SendTimeout time.Duration
}

type Option func(*Notifier)

func WithLedger(l Ledger) Option {
	return func(n *Notifier) { n.ledger = l }
}

func WithPublisher(p Publisher) Option {
	return func(n *Notifier) { n.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

type Notifier struct {
	mailer    Mailer
	cfg       Config
	ledger    Ledger
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func New(mailer Mailer, cfg Config, logger *zap.Logger, opts ...Option) *Notifier {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.OpsMailbox == "" {
		cfg.OpsMailbox = cfg.Sender
	}
	n := &Notifier{
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle processes a normalized callback. Non-success callbacks are ignored. Side effects are
// best-effort: mail, ledger and publish failures are logged and never returned.
func (n *Notifier) Handle(ctx context.Context, cb domain.PaymentCallback) Outcome {
	if !IsSuccess(cb) {
		n.logger.Info("payment callback ignored",
			zap.String("event", cb.Event),
			zap.String("status", cb.Status),
			zap.String("order_id", cb.OrderID),
		)
		return OutcomeIgnored
	}

	order := Reconstruct(cb, n.now())
	log := n.logger.With(zap.String("order_id", order.OrderID))
	log.Info("payment confirmed", zap.Int64("amount", order.Amount))

	ctx = context.WithoutCancel(ctx)
	if n.ledger != nil {
		err := n.ledger.RecordPaidOrder(ctx, order)
		switch {
		case errors.Is(err, domain.ErrDuplicateOrder):
			// provider retry; resend only if an earlier attempt never finished mailing
			notified, nErr := n.ledger.IsNotified(ctx, order.OrderID)
			if nErr != nil {
				log.Warn("failed to read notified flag", zap.Error(nErr))
			}
			if notified || nErr != nil {
				log.Info("paid order already recorded, skipping notifications")
				return OutcomeDuplicate
			}
			log.Info("paid order recorded but never notified, resending")
		case err != nil:
			log.Warn("failed to record paid order", zap.Error(err))
		}
	}

	if n.dispatch(ctx, order, log) && n.ledger != nil {
		if err := n.ledger.MarkNotified(ctx, order.OrderID); err != nil {
			log.Warn("failed to mark order notified", zap.Error(err))
		}
	}

	if n.publisher != nil {
		if err := n.publisher.PublishOrderPaid(ctx, order); err != nil {
			log.Warn("failed to publish order event", zap.Error(err))
		}
	}
	return OutcomeNotified
}

// dispatch sends both emails concurrently and reports whether all of them went out.
func (n *Notifier) dispatch(ctx context.Context, order domain.PaidOrder, log *zap.Logger) bool {
	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.SendTimeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		failed atomic.Bool
	)
	send := func(kind string, render func() (Message, error)) {
		defer wg.Done()
		msg, err := render()
		if err != nil {
			failed.Store(true)
			log.Error("failed to render email", zap.String("kind", kind), zap.Error(err))
			return
		}
		if err := n.mailer.Send(sendCtx, msg); err != nil {
			failed.Store(true)
			log.Error("failed to send email", zap.String("kind", kind), zap.Error(err))
			return
		}
		log.Info("email sent", zap.String("kind", kind), zap.String("to", msg.To))
	}

	if order.Customer.Email != "" {
		wg.Add(1)
		go send("customer", func() (Message, error) {
			return CustomerEmail(order, n.cfg.Sender)
		})
	} else {
		log.Info("no customer email on callback, skipping confirmation")
	}

	wg.Add(1)
	go send("internal", func() (Message, error) {
		return InternalEmail(order, n.cfg.Sender, n.cfg.OpsMailbox)
	})

	wg.Wait()
	return !failed.Load()
}
