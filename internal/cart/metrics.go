package cart

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	CartAdds     prometheus.Counter
	WishlistAdds prometheus.Counter
	SaveFailures *prometheus.CounterVec
}

// NewMetrics registers with reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CartAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_adds_total",
			Help: "Successful add-to-cart operations",
		}),
		WishlistAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_wishlist_adds_total",
			Help: "Successful add-to-wishlist operations",
		}),
		SaveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_save_failures_total",
			Help: "Cart and wishlist writes that did not persist",
		}, []string{"collection"}),
	}

	if reg != nil {
		reg.MustRegister(m.CartAdds, m.WishlistAdds, m.SaveFailures)
	}
	return m
}
