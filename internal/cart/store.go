package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/eltovar/DeiiwoCoffee/internal/domain"
	"github.com/eltovar/DeiiwoCoffee/internal/storage"
	"go.uber.org/zap"
)

// StorageKey is the fixed key the serialized item list lives under.
const StorageKey = "deiiwo_cart"

var (
	ErrEmptyName    = errors.New("item name is required")
	ErrInvalidPrice = errors.New("item price must not be negative")
)

type Option func(*Store)

// WithOnChange registers the render hook called after every mutation with a copy of the items.
func WithOnChange(fn func([]domain.CartItem)) Option {
	return func(s *Store) { s.onChange = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store holds the cart line items and writes the full list through to storage on every mutation.
type Store struct {
	mu       sync.Mutex
	storage  storage.Storage
	items    []domain.CartItem
	onChange func([]domain.CartItem)
	logger   *zap.Logger
}

// Load restores the cart from st. Corrupt or malformed data never fails the load: bad elements are
// dropped and an unreadable value yields an empty cart.
func Load(ctx context.Context, st storage.Storage, opts ...Option) *Store {
	s := &Store{storage: st, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := st.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s
	case err != nil:
		s.logger.Warn("cart load failed, starting empty", zap.Error(err))
		return s
	}

	items, dropped, err := decodeItems(raw)
	if err != nil {
		s.logger.Warn("stored cart is corrupt, starting empty", zap.Error(err))
		return s
	}
	if dropped > 0 {
		s.logger.Warn("dropped malformed cart entries", zap.Int("dropped", dropped))
	}
	s.items = items
	return s
}

// decodeItems parses a stored snapshot, keeping only well-formed entries.
func decodeItems(raw []byte) ([]domain.CartItem, int, error) {
	var elems []any
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, 0, fmt.Errorf("decode cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(elems))
	index := make(map[string]int, len(elems))
	dropped := 0
	for _, e := range elems {
		item, ok := itemFromJSON(e)
		if !ok {
			dropped++
			continue
		}
		if i, dup := index[item.Name]; dup {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.Name] = len(items)
		items = append(items, item)
	}
	return items, dropped, nil
}

func itemFromJSON(v any) (domain.CartItem, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return domain.CartItem{}, false
	}
	name, ok := m["name"].(string)
	if !ok || name == "" {
		return domain.CartItem{}, false
	}
	price, ok := m["price"].(float64)
	if !ok || price < 0 || math.IsInf(price, 0) {
		return domain.CartItem{}, false
	}
	qty, ok := m["quantity"].(float64)
	if !ok || qty < 1 || qty != math.Trunc(qty) {
		return domain.CartItem{}, false
	}
	return domain.CartItem{Name: name, Price: int64(math.Round(price)), Quantity: int(qty)}, true
}

// AddItem increments the quantity of name, or appends it with quantity 1.
func (s *Store) AddItem(ctx context.Context, name string, unitPrice int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if unitPrice < 0 {
		return ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	if i := s.indexOf(name); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, domain.CartItem{Name: name, Price: unitPrice, Quantity: 1})
	}
	return s.commit(ctx, next)
}

func (s *Store) RemoveItem(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return nil
	}
	next := s.snapshot()
	return s.commit(ctx, append(next[:i], next[i+1:]...))
}

// UpdateQuantity adds delta to the item's quantity. Reaching zero or below removes the item.
func (s *Store) UpdateQuantity(ctx context.Context, name string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(name)
	if i < 0 {
		return nil
	}
	next := s.snapshot()
	next[i].Quantity += delta
	if next[i].Quantity <= 0 {
		next = append(next[:i], next[i+1:]...)
	}
	return s.commit(ctx, next)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, nil)
}

func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Subtotal() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Subtotal(s.items)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ItemCount(s.items)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

func (s *Store) indexOf(name string) int {
	for i, it := range s.items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// commit persists next and only then makes it the current item list, so a failed write leaves the
// cart unchanged. Must be called with mu held.
func (s *Store) commit(ctx context.Context, next []domain.CartItem) error {
	if next == nil {
		next = []domain.CartItem{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.storage.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
	return nil
}
