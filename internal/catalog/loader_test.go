package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	products []Product
	err      error
	calls    atomic.Int32
	gate     chan struct{}
}

func (f *fakeStore) Query(ctx context.Context) ([]Product, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.products, f.err
}

func (f *fakeStore) Ping(context.Context) error { return f.err }

func TestLoader_Ready(t *testing.T) {
	price := MustPrice("29.99")
	store := &fakeStore{products: []Product{
		{ID: "p2", Title: "Chair"},
		{ID: "p1", Title: "Lamp", Price: &price, IsNew: true},
	}}

	res := NewLoader(store, zap.NewNop(), nil).Load(context.Background())

	require.Equal(t, StateReady, res.State)
	assert.Empty(t, res.Message)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "p2", res.Products[0].ID, "store order is kept")
	assert.Equal(t, "p1", res.Products[1].ID)
}

func TestLoader_EmptyIsNotFailure(t *testing.T) {
	res := NewLoader(&fakeStore{}, zap.NewNop(), nil).Load(context.Background())

	assert.Equal(t, StateEmpty, res.State)
	assert.Equal(t, "No products found.", res.Message)
	assert.False(t, res.Ready())
}

func TestLoader_FailureHidesCause(t *testing.T) {
	store := &fakeStore{err: errors.New("dial tcp 10.0.0.5:443: connection refused")}

	res := NewLoader(store, zap.NewNop(), nil).Load(context.Background())

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, "Failed to load products. Please try again later.", res.Message)
	assert.Empty(t, res.Products)
	assert.EqualValues(t, 1, store.calls.Load(), "no retry")
}

func TestLoader_EachActivationQueries(t *testing.T) {
	store := &fakeStore{products: []Product{{ID: "p1"}}}
	l := NewLoader(store, zap.NewNop(), nil)

	l.Load(context.Background())
	l.Load(context.Background())

	assert.EqualValues(t, 2, store.calls.Load())
}

func TestLoader_ConcurrentLoadsShareQuery(t *testing.T) {
	store := &fakeStore{products: []Product{{ID: "p1"}}, gate: make(chan struct{})}
	l := NewLoader(store, zap.NewNop(), nil)

	const callers = 5
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	results := make([]Result, callers)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i] = l.Load(context.Background())
		}(i)
	}
	started.Wait()

	// let the in-flight query pick up every waiter before releasing it
	require.Eventually(t, func() bool { return store.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	close(store.gate)
	wg.Wait()

	assert.LessOrEqual(t, store.calls.Load(), int32(callers))
	for _, r := range results {
		assert.Equal(t, StateReady, r.State)
	}
}

func TestLoader_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := NewLoader(&fakeStore{}, zap.NewNop(), reg)

	l.Load(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(l.loads.WithLabelValues(string(StateEmpty))))
	assert.Equal(t, 0.0, testutil.ToFloat64(l.loads.WithLabelValues(string(StateFailed))))
}

func TestLoader_CanceledCallerDoesNotFailSharedQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := &fakeStore{products: []Product{{ID: "p1"}}, gate: make(chan struct{})}
	l := NewLoader(store, zap.NewNop(), reg)

	ctxA, cancelA := context.WithCancel(context.Background())
	resA := make(chan Result, 1)
	go func() { resA <- l.Load(ctxA) }()
	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	resB := make(chan Result, 1)
	go func() { resB <- l.Load(context.Background()) }()

	cancelA()
	a := <-resA
	assert.Equal(t, StateCanceled, a.State)
	assert.Empty(t, a.Message)

	close(store.gate)
	b := <-resB
	assert.Equal(t, StateReady, b.State)
	require.Len(t, b.Products, 1)

	assert.Equal(t, 0.0, testutil.ToFloat64(l.loads.WithLabelValues(string(StateFailed))))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.loads.WithLabelValues(string(StateCanceled))))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.loads.WithLabelValues(string(StateReady))))
}
