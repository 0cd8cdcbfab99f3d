package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storage"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/shopspring/decimal"
)

// ErrItemNotInCart is returned by RemoveItem when no line item has the given id.
var ErrItemNotInCart = pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")

const (
	opAdd    = "add"
	opRemove = "remove"
	opClear  = "clear"

	fallbackMissing   = "missing"
	fallbackBackend   = "backend_error"
	fallbackMalformed = "malformed"
	fallbackInvalid   = "invalid"
)

// Options carries the optional collaborators of a Store.
type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

// Store owns the cart of one session scope. Every mutation writes the full cart back
// to the slot before returning.
type Store struct {
	mu      sync.Mutex
	backend storage.Backend
	scope   string
	items   []LineItem
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	// loadErr is set when the slot could not be read. Reads see an empty cart and
	// mutations are refused so the persisted cart is never overwritten.
	loadErr error
}

// Open restores the cart of scope from backend. A slot that is absent, malformed or
// invalid opens as an empty cart. An unreachable backend opens a degraded store that
// reads as empty and rejects mutations with a dependency error.
func Open(ctx context.Context, backend storage.Backend, scope string, opts Options) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("slot backend required")
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session scope required")
	}

	s := &Store{
		backend: backend,
		scope:   scope,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	s.items = s.restore(ctx)
	return s, nil
}

func (s *Store) restore(ctx context.Context) []LineItem {
	raw, err := s.backend.Load(ctx, s.scope, SlotName)
	if errors.Is(err, storage.ErrSlotNotFound) {
		s.metrics.IncLoadFallback(fallbackMissing)
		return []LineItem{}
	}
	if err != nil {
		s.loadErr = err
		s.fallback(ctx, fallbackBackend, err)
		return []LineItem{}
	}

	items, err := decodeItems(raw)
	if err != nil {
		reason := fallbackInvalid
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			reason = fallbackMalformed
		}
		s.fallback(ctx, reason, err)
		return []LineItem{}
	}
	return items
}

func (s *Store) fallback(ctx context.Context, reason string, err error) {
	s.metrics.IncLoadFallback(reason)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"scope":  s.scope,
		"reason": reason,
		"error":  err.Error(),
	})
	s.logg.Warn(ctx, "cart.slot_load_fallback")
}

func decodeItems(raw []byte) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(items))
	for idx, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", idx, err)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// AddItem increments the quantity of product if it is in the cart, otherwise it
// appends a snapshot of product with quantity 1.
func (s *Store) AddItem(ctx context.Context, product catalog.Product) error {
	if product.ID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if product.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	next := make([]LineItem, 0, len(s.items)+1)
	found := false
	for _, item := range s.items {
		if item.ID == product.ID {
			item.Quantity++
			found = true
		}
		next = append(next, item)
	}
	if !found {
		next = append(next, snapshot(product))
	}
	s.items = next
	return s.persist(ctx, opAdd)
}

// RemoveItem decrements the quantity of the item with id, dropping it when the
// quantity reaches zero. It returns ErrItemNotInCart and writes nothing when the
// item is absent.
func (s *Store) RemoveItem(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return ErrItemNotInCart.WithDetails(map[string]any{"product_id": id})
	}

	next := make([]LineItem, 0, len(s.items))
	for i, item := range s.items {
		if i == idx {
			if item.Quantity == 1 {
				continue
			}
			item.Quantity--
		}
		next = append(next, item)
	}
	s.items = next
	return s.persist(ctx, opRemove)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	s.items = []LineItem{}
	return s.persist(ctx, opClear)
}

func (s *Store) writable() error {
	if s.loadErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, s.loadErr, "cart slot unavailable")
	}
	return nil
}

// Total returns the sum of price * quantity over all items.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Quantity returns the number of units across all items.
func (s *Store) Quantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	qty := 0
	for _, item := range s.items {
		qty += item.Quantity
	}
	return qty
}

func (s *Store) indexOf(id int) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the full cart to the slot. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, op string) error {
	s.metrics.IncMutation(op)

	raw, err := json.Marshal(s.items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.backend.Save(ctx, s.scope, SlotName, raw); err != nil {
		s.metrics.IncPersistFailure(op)
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"scope": s.scope, "op": op}), "cart.persist_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}
