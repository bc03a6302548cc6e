package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/kv"
	"Storefront/internal/notify"
)

const session = "s1"

// failingStore accepts reads but refuses every write, like a full quota.
type failingStore struct {
	*kv.MemStore
	err error
}

func (f failingStore) Set(context.Context, string, []byte) error { return f.err }

func (f failingStore) Update(_ context.Context, key string, fn kv.UpdateFunc) error {
	raw, err := f.MemStore.Get(context.Background(), key)
	found := err == nil
	if _, err := fn(raw, found); err != nil {
		return err
	}
	return f.err
}

func newTestService(t *testing.T, store kv.Store) (*Service, *notify.Buffer) {
	t.Helper()

	buf := &notify.Buffer{}
	return NewService(Deps{
		Store:    store,
		Notifier: buf,
		Log:      zap.NewNop(),
	}), buf
}

func lamp() Item {
	return Item{ID: "p1", Name: "Lamp", Price: catalog.MustPrice("29.99"), Image: catalog.FallbackImage}
}

func stored(t *testing.T, s kv.Store, name string) string {
	t.Helper()
	raw, err := s.Get(context.Background(), Key(session, name))
	require.NoError(t, err)
	return string(raw)
}

func TestAddToCart_SameIDMerges(t *testing.T) {
	store := kv.NewMemStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, session, lamp(), 2)
	require.NoError(t, err)
	c, err := svc.AddToCart(ctx, session, lamp(), 5)
	require.NoError(t, err)

	require.Len(t, c, 1)
	assert.Equal(t, 7, c[0].Quantity)
	assert.JSONEq(t, `[{"id":"p1","name":"Lamp","price":29.99,"image":"/fallback.png","quantity":7}]`,
		stored(t, store, CartKey))
}

func TestAddToCart_DistinctIDs(t *testing.T) {
	svc, _ := newTestService(t, kv.NewMemStore())
	ctx := context.Background()

	rug := Item{ID: "p3", Name: "Rug", Price: catalog.MustPrice("89.50")}
	_, err := svc.AddToCart(ctx, session, rug, 1)
	require.NoError(t, err)
	c, err := svc.AddToCart(ctx, session, lamp(), 1)
	require.NoError(t, err)

	ids := []string{c[0].ID, c[1].ID}
	assert.ElementsMatch(t, []string{"p1", "p3"}, ids)
	assert.Equal(t, 2, c.TotalQuantity())
}

func TestAddToCart_PriceSnapshotKept(t *testing.T) {
	svc, _ := newTestService(t, kv.NewMemStore())
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, session, lamp(), 1)
	require.NoError(t, err)

	repriced := lamp()
	repriced.Price = catalog.MustPrice("19.99")
	c, err := svc.AddToCart(ctx, session, repriced, 1)
	require.NoError(t, err)

	assert.Equal(t, "$29.99", c[0].Price.Label())
}

func TestAddToCart_EmptyOrCorruptStorage(t *testing.T) {
	for name, seed := range map[string]*string{
		"absent":  nil,
		"corrupt": ptr(`[{"id":"p1",`),
		"object":  ptr(`{"id":"p1"}`),
	} {
		t.Run(name, func(t *testing.T) {
			store := kv.NewMemStore()
			if seed != nil {
				require.NoError(t, store.Set(context.Background(), Key(session, CartKey), []byte(*seed)))
			}
			svc, buf := newTestService(t, store)

			c, err := svc.AddToCart(context.Background(), session, lamp(), 3)
			require.NoError(t, err)

			assert.Equal(t, Cart{{ID: "p1", Name: "Lamp", Price: lamp().Price, Image: "/fallback.png", Quantity: 3}}, c)
			assert.Equal(t, []notify.Notice{notify.Success(MsgCartAdded)}, buf.Notices(), "corruption is not surfaced")
		})
	}
}

func TestAddToCart_Validation(t *testing.T) {
	svc, buf := newTestService(t, kv.NewMemStore())
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, session, lamp(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AddToCart(ctx, session, lamp(), -5)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AddToCart(ctx, session, Item{Name: "nameless"}, 1)
	assert.ErrorIs(t, err, ErrInvalidItem)

	assert.Empty(t, buf.Notices())
}

func TestAddToCart_BadgeCountsDistinctLines(t *testing.T) {
	svc, _ := newTestService(t, kv.NewMemStore())
	ctx := context.Background()

	_, ok := svc.Badges().Count(session)
	assert.False(t, ok)

	_, err := svc.AddToCart(ctx, session, lamp(), 4)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, session, lamp(), 4)
	require.NoError(t, err)

	n, ok := svc.Badges().Count(session)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	_, err = svc.AddToCart(ctx, session, Item{ID: "p2", Name: "Chair"}, 1)
	require.NoError(t, err)
	n, _ = svc.Badges().Count(session)
	assert.Equal(t, 2, n)

	other, _ := svc.Badges().Count("s2")
	assert.Zero(t, other)
}

func TestAddToCart_SaveFailure(t *testing.T) {
	quota := errors.New("quota exceeded")
	store := failingStore{MemStore: kv.NewMemStore(), err: quota}
	svc, buf := newTestService(t, store)

	c, err := svc.AddToCart(context.Background(), session, lamp(), 2)

	require.ErrorIs(t, err, ErrSaveFailed)
	assert.ErrorIs(t, err, quota)
	require.Len(t, c, 1, "unsaved cart is handed back")
	assert.Equal(t, 2, c[0].Quantity)
	assert.Equal(t, []notify.Notice{notify.Error(MsgCartSaveFailed)}, buf.Notices())

	_, ok := svc.Badges().Count(session)
	assert.False(t, ok, "badge untouched")
}

func TestAddToCart_ConcurrentSameID(t *testing.T) {
	store := kv.NewMemStore()
	svc, _ := newTestService(t, store)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddToCart(context.Background(), session, lamp(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.Cart(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, workers, c[0].Quantity)
}

func TestAddToWishlist_KeepsDuplicates(t *testing.T) {
	store := kv.NewMemStore()
	svc, buf := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.AddToWishlist(ctx, session, lamp())
	require.NoError(t, err)
	w, err := svc.AddToWishlist(ctx, session, lamp())
	require.NoError(t, err)

	assert.Len(t, w, 2)
	assert.JSONEq(t, `[
		{"id":"p1","productName":"Lamp","productImage":"/fallback.png","productPrice":29.99},
		{"id":"p1","productName":"Lamp","productImage":"/fallback.png","productPrice":29.99}
	]`, stored(t, store, WishlistKey))
	assert.Equal(t, []notify.Notice{notify.Success(MsgWishlistAdded), notify.Success(MsgWishlistAdded)}, buf.Notices())

	_, ok := svc.Badges().Count(session)
	assert.False(t, ok, "wishlist does not touch the badge")
}

func TestAddToWishlist_CorruptStorageResets(t *testing.T) {
	store := kv.NewMemStore()
	require.NoError(t, store.Set(context.Background(), Key(session, WishlistKey), []byte("not json")))
	svc, _ := newTestService(t, store)

	w, err := svc.AddToWishlist(context.Background(), session, lamp())
	require.NoError(t, err)
	assert.Len(t, w, 1)
}

func TestAddToWishlist_SaveFailure(t *testing.T) {
	store := failingStore{MemStore: kv.NewMemStore(), err: errors.New("disk full")}
	svc, buf := newTestService(t, store)

	_, err := svc.AddToWishlist(context.Background(), session, lamp())
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, []notify.Notice{notify.Error(MsgWishlistSaveFailed)}, buf.Notices())
}

func TestReadsAndBadge(t *testing.T) {
	store := kv.NewMemStore()
	seed := `[{"id":"p1","name":"Lamp","price":29.99,"image":"/fallback.png","quantity":3},
	          {"id":"p2","name":"Chair","price":149,"image":"/c.png","quantity":1}]`
	require.NoError(t, store.Set(context.Background(), Key(session, CartKey), []byte(seed)))
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	n, err := svc.Badge(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, err := svc.Cart(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, c)

	w, err := svc.Wishlist(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, w)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := NewService(Deps{Store: kv.NewMemStore(), Log: zap.NewNop(), Registry: reg})

	_, err := svc.AddToCart(context.Background(), session, lamp(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.CartAdds))
	assert.Equal(t, 0.0, testutil.ToFloat64(svc.metrics.WishlistAdds))
}

func ptr(s string) *string { return &s }
