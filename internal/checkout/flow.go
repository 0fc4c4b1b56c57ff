package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/eltovar/DeiiwoCoffee/internal/shipping"
	"go.uber.org/zap"
)

// CartView is the part of the cart the checkout reads.
type CartView interface {
	Items() []domain.CartItem
	Subtotal() int64
	IsEmpty() bool
}

type QuoteEstimator interface {
	Estimate(ctx context.Context, in shipping.Input) domain.ShippingQuote
}

type FlowConfig struct {
	Origin    string
	PublicKey string
	Debounce  time.Duration
	Lang      locale.Lang
}

type FlowOption func(*Flow)

// WithQuoteListener is called whenever a fresh shipping quote is applied.
func WithQuoteListener(fn func(domain.ShippingQuote)) FlowOption {
	return func(f *Flow) { f.onQuote = fn }
}

func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) { f.now = now }
}

// Flow drives one customer through review, details and payment hand-off.
//
// Lock order: the flow never calls into the cart or the recalculator while holding mu.
type Flow struct {
	mu         sync.Mutex
	state      State
	form       Form
	quote      domain.ShippingQuote
	inProgress bool
	draft      *domain.OrderDraft
	lang       locale.Lang

	cart      CartView
	estimator QuoteEstimator
	recalc    *shipping.Recalculator
	widget    PaymentWidget
	origin    string
	publicKey string
	logger    *zap.Logger
	now       func() time.Time
	onQuote   func(domain.ShippingQuote)
}

func NewFlow(cart CartView, estimator QuoteEstimator, widget PaymentWidget, cfg FlowConfig, logger *zap.Logger, opts ...FlowOption) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = shipping.DefaultDebounce
	}
	f := &Flow{
		state:     StateDormant,
		form:      Form{Delivery: domain.DeliveryShipping},
		quote:     domain.ShippingQuote{Basis: domain.BasisPending, Reason: domain.PendingSelectCity},
		lang:      locale.Normalize(string(cfg.Lang)),
		cart:      cart,
		estimator: estimator,
		widget:    widget,
		origin:    cfg.Origin,
		publicKey: cfg.PublicKey,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.recalc = shipping.NewRecalculator(cfg.Debounce, f.computeQuote, f.applyQuote)
	return f
}

// Open starts the flow at the review step. The cart must not be empty.
func (f *Flow) Open() error {
	if f.cart.IsEmpty() {
		return ErrEmptyCart
	}

	f.mu.Lock()
	if err := f.transitionLocked(StateReview); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	f.recalc.Schedule()
	return nil
}

// Next advances REVIEW -> DETAILS, or DETAILS -> READY_TO_PAY when the form validates.
func (f *Flow) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateReview:
		return f.transitionLocked(StateDetails)
	case StateDetails:
		if err := Validate(f.form, f.lang); err != nil {
			return err
		}
		return f.transitionLocked(StateReadyToPay)
	}
	return illegal(f.state, f.nextOf())
}

func (f *Flow) nextOf() State {
	if f.state == StateReadyToPay {
		return StateHandedOff
	}
	return StateDetails
}

// Back returns to the review step.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateDetails && f.state != StateReadyToPay {
		return illegal(f.state, StateReview)
	}
	return f.transitionLocked(StateReview)
}

// Close returns the flow to dormant. The cart is left untouched.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = StateDormant
	f.inProgress = false
}

// Pay builds the order, hands it to the payment widget and returns the widget configuration.
func (f *Flow) Pay(ctx context.Context) (WidgetConfig, error) {
	f.mu.Lock()
	if f.state != StateReadyToPay {
		defer f.mu.Unlock()
		return WidgetConfig{}, illegal(f.state, StateHandedOff)
	}
	f.mu.Unlock()

	// never hand off with a quote computed from older input
	f.recalc.Trigger(ctx)
	items := f.cart.Items()
	if len(items) == 0 {
		return WidgetConfig{}, ErrEmptyCart
	}

	f.mu.Lock()
	if f.state != StateReadyToPay {
		defer f.mu.Unlock()
		return WidgetConfig{}, illegal(f.state, StateHandedOff)
	}
	if err := Validate(f.form, f.lang); err != nil {
		f.state = StateDetails
		f.mu.Unlock()
		return WidgetConfig{}, err
	}
	// a pending quote has no price yet and must never be charged as free shipping
	if f.form.isShipping() && f.quote.IsPending() {
		f.state = StateDetails
		f.mu.Unlock()
		return WidgetConfig{}, newValidationError(locale.MsgIncompleteAddress, f.lang)
	}
	draft := NewDraft(items, f.quote, f.form, f.lang, f.now())
	cfg, err := BuildWidgetConfig(draft, f.origin, f.publicKey)
	if err != nil {
		f.mu.Unlock()
		return WidgetConfig{}, err
	}
	f.state = StateHandedOff
	f.inProgress = true
	f.draft = &draft
	f.mu.Unlock()

	if err := f.widget.Open(ctx, cfg); err != nil {
		f.logger.Error("payment widget failed to open",
			zap.String("order_id", draft.OrderID),
			zap.Error(err))

		f.mu.Lock()
		f.state = StateReadyToPay
		f.inProgress = false
		f.draft = nil
		f.mu.Unlock()
		return WidgetConfig{}, fmt.Errorf("%w: %w", ErrPaymentUnavailable, err)
	}

	f.logger.Info("payment handed off",
		zap.String("order_id", draft.OrderID),
		zap.Int64("amount", cfg.Amount),
		zap.String("basis", draft.Shipping.Basis.String()))
	return cfg, nil
}

// InProgress reports whether a payment hand-off is underway.
func (f *Flow) InProgress() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inProgress
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Quote() domain.ShippingQuote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote
}

func (f *Flow) Lang() locale.Lang {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lang
}

func (f *Flow) SetLang(l locale.Lang) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lang = locale.Normalize(string(l))
}

// Draft is the order built by the last successful hand-off.
func (f *Flow) Draft() (domain.OrderDraft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return domain.OrderDraft{}, false
	}
	return *f.draft, true
}

func (f *Flow) SetCustomer(c domain.Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.Customer = c
}

func (f *Flow) AcceptTerms(accepted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.TermsAccepted = accepted
}

func (f *Flow) SetDeliveryMethod(ctx context.Context, m domain.DeliveryMethod) {
	f.UpdateDetails(ctx, func(form *Form) { form.Delivery = m })
}

func (f *Flow) SetDestination(ctx context.Context, d domain.Destination) {
	f.UpdateDetails(ctx, func(form *Form) { form.Destination = d })
}

// UpdateDetails edits the form and schedules a quote recomputation when a pricing input changed.
// Delivery and city changes recompute before returning; address edits are debounced.
func (f *Flow) UpdateDetails(ctx context.Context, edit func(*Form)) {
	f.mu.Lock()
	before := f.form
	edit(&f.form)
	after := f.form
	f.mu.Unlock()

	switch {
	case before.Delivery != after.Delivery || before.Destination.City != after.Destination.City:
		f.recalc.Trigger(ctx)
	case before.Destination.Address != after.Destination.Address:
		f.recalc.Schedule()
	}
}

func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// CartChanged is the cart's change hook; the subtotal feeds the free-shipping rule.
func (f *Flow) CartChanged() {
	f.recalc.Schedule()
}

// RefreshQuote recomputes the quote synchronously, superseding anything pending.
func (f *Flow) RefreshQuote(ctx context.Context) domain.ShippingQuote {
	if q, ok := f.recalc.Trigger(ctx); ok {
		return q
	}
	return f.Quote()
}

// Stop releases the flow's timers.
func (f *Flow) Stop() {
	f.recalc.Stop()
}

func (f *Flow) computeQuote(ctx context.Context) domain.ShippingQuote {
	subtotal := f.cart.Subtotal()

	f.mu.Lock()
	in := shipping.Input{
		Delivery: f.form.Delivery,
		City:     f.form.Destination.City,
		Address:  f.form.Destination.Address,
		Subtotal: subtotal,
	}
	f.mu.Unlock()

	return f.estimator.Estimate(ctx, in)
}

func (f *Flow) applyQuote(q domain.ShippingQuote) {
	f.mu.Lock()
	f.quote = q
	cb := f.onQuote
	f.mu.Unlock()

	if cb != nil {
		cb(q)
	}
}

func (f *Flow) transitionLocked(next State) error {
	if !f.state.CanTransitionTo(next) {
		return illegal(f.state, next)
	}
	f.logger.Debug("checkout transition",
		zap.String("from", f.state.String()),
		zap.String("to", next.String()))
	f.state = next
	return nil
}
