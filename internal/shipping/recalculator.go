package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
)

const DefaultDebounce = 800 * time.Millisecond

// Recalculator recomputes a quote when inputs change. Each request takes a new generation; a
// result is applied only if its generation is still the latest, so a slow lookup can never
// overwrite a quote produced from newer input. Superseded lookups also get their context cancelled.
//
// apply runs with the recalculator's lock held and must not call back into it.
type Recalculator struct {
	mu       sync.Mutex
	delay    time.Duration
	compute  func(ctx context.Context) domain.ShippingQuote
	apply    func(domain.ShippingQuote)
	gen      uint64
	timer    *time.Timer
	cancelFn context.CancelFunc
	stopped  bool
}

func NewRecalculator(delay time.Duration, compute func(ctx context.Context) domain.ShippingQuote, apply func(domain.ShippingQuote)) *Recalculator {
	return &Recalculator{delay: delay, compute: compute, apply: apply}
}

// Schedule starts a recomputation once input has been stable for the debounce delay.
func (r *Recalculator) Schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	gen := r.supersedeLocked()
	r.timer = time.AfterFunc(r.delay, func() {
		r.run(context.Background(), gen)
	})
}

// Trigger recomputes immediately in the caller's goroutine, superseding anything pending.
// It returns the quote and whether it was applied.
func (r *Recalculator) Trigger(ctx context.Context) (domain.ShippingQuote, bool) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return domain.ShippingQuote{}, false
	}
	gen := r.supersedeLocked()
	r.mu.Unlock()

	return r.run(ctx, gen)
}

// Generation is the token of the latest request.
func (r *Recalculator) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Stop drops any pending or in-flight result.
func (r *Recalculator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supersedeLocked()
	r.stopped = true
}

func (r *Recalculator) supersedeLocked() uint64 {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancelFn != nil {
		r.cancelFn()
		r.cancelFn = nil
	}
	r.gen++
	return r.gen
}

func (r *Recalculator) run(parent context.Context, gen uint64) (domain.ShippingQuote, bool) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return domain.ShippingQuote{}, false
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancelFn = cancel
	r.mu.Unlock()
	defer cancel()

	quote := r.compute(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return quote, false
	}
	r.cancelFn = nil
	r.apply(quote)
	return quote, true
}
