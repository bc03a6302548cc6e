// Package cart keeps each session's cart and wishlist in the key-value store.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/kv"
	"Storefront/internal/notify"
)

const (
	CartKey     = "cart"
	WishlistKey = "wishlist"
)

const (
	MsgCartAdded          = "Product added to cart!"
	MsgWishlistAdded      = "Item Added to Wishlist"
	MsgCartSaveFailed     = "Could not save your cart. Please try again."
	MsgWishlistSaveFailed = "Could not save your wishlist. Please try again."
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidItem     = errors.New("item id is required")
	ErrSaveFailed      = errors.New("could not save")
)

// Key is the storage key of a session's collection.
func Key(session, name string) string {
	return session + ":" + name
}

type Deps struct {
	Store    kv.Store
	Notifier notify.Notifier
	Badges   *Badges
	Log      *zap.Logger
	Registry prometheus.Registerer
}

type Service struct {
	store    kv.Store
	notifier notify.Notifier
	badges   *Badges
	log      *zap.Logger
	metrics  *Metrics
}

func NewService(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		notifier: d.Notifier,
		badges:   d.Badges,
		log:      d.Log,
		metrics:  NewMetrics(d.Registry),
	}
	if s.notifier == nil {
		s.notifier = notify.ContextNotifier{Log: d.Log}
	}
	if s.badges == nil {
		s.badges = NewBadges()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *Service) Badges() *Badges { return s.badges }

// AddToCart adds qty units of it to the session's cart. A line for the same
// id gets its quantity increased; otherwise a new line is appended.
//
// When the write fails the returned Cart is the state that could not be
// saved, and the error wraps ErrSaveFailed.
func (s *Service) AddToCart(ctx context.Context, session string, it Item, qty int) (Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if strings.TrimSpace(it.ID) == "" {
		return nil, ErrInvalidItem
	}

	var next Cart
	err := s.store.Update(ctx, Key(session, CartKey), func(old []byte, found bool) ([]byte, error) {
		next = Cart(s.decode(session, CartKey, old, found)).add(it, qty)
		return json.Marshal(next)
	})
	if err != nil {
		s.saveFailed(ctx, session, CartKey, MsgCartSaveFailed, err)
		return next, fmt.Errorf("%w cart: %w", ErrSaveFailed, err)
	}

	s.metrics.CartAdds.Inc()
	s.notifier.Notify(ctx, notify.Success(MsgCartAdded))
	s.badges.set(session, len(next))
	return next, nil
}

// AddToWishlist appends it to the session's wishlist. Duplicates are kept.
func (s *Service) AddToWishlist(ctx context.Context, session string, it Item) (Wishlist, error) {
	if strings.TrimSpace(it.ID) == "" {
		return nil, ErrInvalidItem
	}

	var next Wishlist
	err := s.store.Update(ctx, Key(session, WishlistKey), func(old []byte, found bool) ([]byte, error) {
		next = Wishlist(decodeAs[WishlistEntry](s, session, WishlistKey, old, found)).add(it)
		return json.Marshal(next)
	})
	if err != nil {
		s.saveFailed(ctx, session, WishlistKey, MsgWishlistSaveFailed, err)
		return next, fmt.Errorf("%w wishlist: %w", ErrSaveFailed, err)
	}

	s.metrics.WishlistAdds.Inc()
	s.notifier.Notify(ctx, notify.Success(MsgWishlistAdded))
	return next, nil
}

// Cart returns the session's cart and refreshes its badge.
func (s *Service) Cart(ctx context.Context, session string) (Cart, error) {
	raw, found, err := s.get(ctx, Key(session, CartKey))
	if err != nil {
		return nil, err
	}

	c := Cart(s.decode(session, CartKey, raw, found))
	s.badges.set(session, len(c))
	return c, nil
}

func (s *Service) Wishlist(ctx context.Context, session string) (Wishlist, error) {
	raw, found, err := s.get(ctx, Key(session, WishlistKey))
	if err != nil {
		return nil, err
	}
	return decodeAs[WishlistEntry](s, session, WishlistKey, raw, found), nil
}

// Badge returns the session's badge count, reading the cart on first use.
func (s *Service) Badge(ctx context.Context, session string) (int, error) {
	if n, ok := s.badges.Count(session); ok {
		return n, nil
	}
	c, err := s.Cart(ctx, session)
	if err != nil {
		return 0, err
	}
	return len(c), nil
}

func (s *Service) get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, true, nil
}

func (s *Service) decode(session, name string, raw []byte, found bool) []Line {
	return decodeAs[Line](s, session, name, raw, found)
}

// decodeAs resets corrupt collections to empty. The user is not told.
func decodeAs[T any](s *Service, session, name string, raw []byte, found bool) []T {
	out, ok := decode[T](raw, found)
	if !ok {
		s.log.Warn("discarding unreadable stored collection",
			zap.String("session", session),
			zap.String("collection", name),
			zap.Int("bytes", len(raw)),
		)
	}
	return out
}

func (s *Service) saveFailed(ctx context.Context, session, name, msg string, err error) {
	s.log.Error("save collection failed",
		zap.String("session", session),
		zap.String("collection", name),
		zap.Error(err),
	)
	s.metrics.SaveFailures.WithLabelValues(name).Inc()
	s.notifier.Notify(ctx, notify.Error(msg))
}
