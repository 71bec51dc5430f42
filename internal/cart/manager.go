// Package cart implements the client-session cart state: one active cart
// keyed by session identity, durable snapshots in a kv.Store, and a
// latest-value stream of cart changes for UI consumers.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

const guestKey = "cart_guest"

func userKey(userID int64) string {
	return fmt.Sprintf("cart_user_%d", userID)
}

// Manager owns the in-memory active cart and its durable snapshot.
// Persistence is best effort: a failing store degrades to in-memory-only
// operation, it never surfaces errors to callers.
type Manager struct {
	store  kv.Store
	logger *log.Logger

	mu        sync.Mutex
	activeKey string
	current   domain.Cart
	subs      map[int]chan domain.Cart
	countSubs map[int]chan int
	nextSub   int
}

// NewManager starts on the guest key, hydrating from any existing guest
// snapshot. Call SetActiveUser afterwards with the bootstrapped session
// identity.
func NewManager(store kv.Store, logger *log.Logger) *Manager {
	m := &Manager{
		store:     store,
		logger:    logger,
		activeKey: guestKey,
		current:   domain.EmptyCart(),
		subs:      make(map[int]chan domain.Cart),
		countSubs: make(map[int]chan int),
	}
	if stored := m.load(context.Background(), guestKey); stored != nil {
		m.current = *stored
	}
	return m
}

// SetActiveUser switches the active storage key. userID 0 means guest.
//
// Invoked exactly once per process start (with the persisted identity, if
// any), once per successful login or registration, and once per logout.
// A guest cart with items merges into the user's slot only when the user's
// own cart is absent or empty; the guest slot is reset afterwards so it
// cannot leak into a later session. On any transition to guest the guest
// slot is reset unconditionally.
func (m *Manager) SetActiveUser(ctx context.Context, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prevWasGuest := m.activeKey == guestKey
	if userID > 0 {
		m.activeKey = userKey(userID)
	} else {
		m.activeKey = guestKey
	}

	if prevWasGuest && userID > 0 {
		guest := m.load(ctx, guestKey)
		user := m.load(ctx, m.activeKey)
		if guest != nil && len(guest.Items) > 0 && (user == nil || len(user.Items) == 0) {
			m.save(ctx, m.activeKey, *guest)
			m.save(ctx, guestKey, domain.EmptyCart())
		}
	}

	if userID <= 0 {
		m.save(ctx, guestKey, domain.EmptyCart())
	}

	if next := m.load(ctx, m.activeKey); next != nil {
		m.current = *next
	} else {
		m.current = domain.EmptyCart()
	}
	m.publishLocked()
}

// CurrentCart returns a snapshot copy; mutation goes through the operations
// below, never through the returned value.
func (m *Manager) CurrentCart() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneCart(m.current)
}

// AddItem increments the existing line for the product or appends a new
// one. Quantities below 1 count as 1. Stock limits are a UI concern, no
// upper bound is enforced here.
func (m *Manager) AddItem(ctx context.Context, product domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cloneCart(m.current)
	if i := c.Find(product.ID); i >= 0 {
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, domain.CartItem{Product: product, Quantity: quantity})
	}
	m.commitLocked(ctx, c)
}

// RemoveItem drops the line for productID. The cart is republished even
// when the id was absent.
func (m *Manager) RemoveItem(ctx context.Context, productID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cloneCart(m.current)
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}
	c.Items = items
	m.commitLocked(ctx, c)
}

// UpdateQuantity sets the line to exactly quantity; quantity <= 0 removes
// the line. Silent no-op when the product is not in the cart.
func (m *Manager) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cloneCart(m.current)
	i := c.Find(productID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
	}
	m.commitLocked(ctx, c)
}

// Clear resets the active slot to an empty cart.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitLocked(ctx, domain.EmptyCart())
}

// ItemCount returns the current totalItems projection.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.TotalItems
}

// Subscribe returns a stream of cart states plus a cancel func. The current
// cart is delivered immediately; afterwards, a subscriber that falls behind
// sees only the newest state, intermediate values are conflated away.
func (m *Manager) Subscribe() (<-chan domain.Cart, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan domain.Cart, 1)
	ch <- cloneCart(m.current)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SubscribeItemCount is the lightweight badge projection of Subscribe.
func (m *Manager) SubscribeItemCount() (<-chan int, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan int, 1)
	ch <- m.current.TotalItems
	m.countSubs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.countSubs[id]; ok {
			delete(m.countSubs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// commitLocked recomputes aggregates, persists to the active key, swaps the
// in-memory cart and publishes. Callers hold m.mu.
func (m *Manager) commitLocked(ctx context.Context, c domain.Cart) {
	c.Recalculate()
	m.save(ctx, m.activeKey, c)
	m.current = c
	m.publishLocked()
}

func (m *Manager) publishLocked() {
	snapshot := cloneCart(m.current)
	for _, ch := range m.subs {
		// Drop an undelivered value so the channel always holds the
		// latest state.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
	for _, ch := range m.countSubs {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot.TotalItems
	}
}

func (m *Manager) load(ctx context.Context, key string) *domain.Cart {
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			m.logger.Printf("load %s: %v", key, err)
		}
		return nil
	}
	return decodeCart(raw)
}

func (m *Manager) save(ctx context.Context, key string, c domain.Cart) {
	raw, err := encodeCart(c)
	if err != nil {
		m.logger.Printf("encode %s: %v", key, err)
		return
	}
	if err := m.store.Set(ctx, key, raw); err != nil {
		m.logger.Printf("persist %s: %v", key, err)
	}
}
