package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/cart"
	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"github.com/eltovar/DeiiwoCoffee/internal/storage"
	"go.uber.org/zap"
)

const (
	// SessionTTL is how long an idle session is kept in memory. Its cart survives in storage.
	SessionTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = time.Minute
)

// Session bundles one visitor's cart, language preference and checkout flow.
type Session struct {
	ID    string
	Cart  *cart.Store
	Flow  *Flow
	Prefs *locale.Preference
	Guard *UnloadGuard

	lastSeen time.Time
}

type SessionFactory func(ctx context.Context, id string) (*Session, error)

type SessionDeps struct {
	Storage   storage.Storage
	Estimator QuoteEstimator
	Widget    PaymentWidget
	Flow      FlowConfig
	Logger    *zap.Logger
}

// NewSessionFactory wires a session whose state lives under "session:<id>:" in storage.
func NewSessionFactory(d SessionDeps) SessionFactory {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, id string) (*Session, error) {
		st := storage.Scoped(d.Storage, "session:"+id+":")
		prefs := locale.NewPreference(st)
		log := logger.With(zap.String("session_id", id))

		var flow *Flow
		c := cart.Load(ctx, st,
			cart.WithLogger(log),
			cart.WithOnChange(func([]domain.CartItem) {
				if flow != nil {
					flow.CartChanged()
				}
			}))

		cfg := d.Flow
		cfg.Lang = prefs.Get(ctx)
		flow = NewFlow(c, d.Estimator, d.Widget, cfg, log)

		return &Session{
			ID:    id,
			Cart:  c,
			Flow:  flow,
			Prefs: prefs,
			Guard: NewUnloadGuard(flow, flow.Lang),
		}, nil
	}
}

// Registry keeps live sessions in memory and expires idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  SessionFactory
	logger   *zap.Logger

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewRegistry(factory SessionFactory, ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		factory:     factory,
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = time.Now()
		return s, nil
	}

	s, err := r.factory(ctx, id)
	if err != nil {
		return nil, err
	}
	s.lastSeen = time.Now()
	r.sessions[id] = s
	return s, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = time.Now()
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireSessions(time.Now())
		case <-r.stopCleanup:
			return
		}
	}
}

// expireSessions drops idle sessions. A session with a payment in progress is kept.
func (r *Registry) expireSessions(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) < r.ttl || s.Flow.InProgress() {
			continue
		}
		s.Flow.Stop()
		delete(r.sessions, id)
		r.logger.Debug("session expired", zap.String("session_id", id))
	}
}

// Close stops the background cleanup and waits for it to finish
func (r *Registry) Close() error {
	close(r.stopCleanup)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.Flow.Stop()
	}
	return nil
}
