package catalog

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateReady  State = "ready"
	StateEmpty  State = "empty"
	StateFailed State = "failed"

	// StateCanceled means the caller went away before the query finished.
	// It is not a content store failure.
	StateCanceled State = "canceled"
)

// sharedQueryTimeout bounds a coalesced query, which no single caller owns.
const sharedQueryTimeout = 10 * time.Second

const (
	MsgEmpty  = "No products found."
	MsgFailed = "Failed to load products. Please try again later."
)

// Result is what one view activation gets to render. Message is set for the
// empty and failed states only.
type Result struct {
	State    State     `json:"state"`
	Products []Product `json:"products"`
	Message  string    `json:"message,omitempty"`
}

func (r Result) Ready() bool { return r.State == StateReady }

// Loader issues the product query once per call. There is no retry and no
// caching; concurrent calls share the query already in flight.
type Loader struct {
	store ContentStore
	log   *zap.Logger
	loads *prometheus.CounterVec
	group singleflight.Group
}

func NewLoader(store ContentStore, log *zap.Logger, reg prometheus.Registerer) *Loader {
	if log == nil {
		log = zap.NewNop()
	}

	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_loads_total",
		Help: "Catalog loads by outcome",
	}, []string{"result"})
	if reg != nil {
		reg.MustRegister(loads)
	}

	return &Loader{store: store, log: log, loads: loads}
}

// Load waits for the in-flight query, or starts one. The query runs detached
// from ctx so a caller that goes away does not fail the others sharing it;
// that caller gets StateCanceled.
func (l *Loader) Load(ctx context.Context) Result {
	ch := l.group.DoChan("products", func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedQueryTimeout)
		defer cancel()
		return l.store.Query(qctx)
	})

	var res Result
	select {
	case <-ctx.Done():
		l.log.Debug("load products abandoned", zap.Error(ctx.Err()))
		res = Result{State: StateCanceled}
	case r := <-ch:
		res = l.classify(r.Val, r.Err)
	}

	l.loads.WithLabelValues(string(res.State)).Inc()
	return res
}

func (l *Loader) classify(v any, err error) Result {
	if err != nil {
		l.log.Error("load products failed", zap.Error(err))
		return Result{State: StateFailed, Message: MsgFailed}
	}

	products, _ := v.([]Product)
	if len(products) == 0 {
		return Result{State: StateEmpty, Message: MsgEmpty}
	}

	// the slice is shared with every caller coalesced into this query
	out := make([]Product, len(products))
	copy(out, products)
	return Result{State: StateReady, Products: out}
}
