package shop

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/kv"
	"Storefront/internal/notify"
	"Storefront/pkg/kit"
)

type Server struct {
	Loader   *catalog.Loader
	Cart     *cart.Service
	Content  catalog.ContentStore
	KV       kv.Store
	Sessions *Sessions
	Log      *zap.Logger

	// WriteLimiter throttles cart and wishlist writes per client IP. Nil
	// disables throttling.
	WriteLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Group(func(r chi.Router) {
		r.Use(s.Sessions.Middleware)
		r.Use(notify.Middleware)

		r.Get("/", s.grid)
		r.Get("/shop", s.grid)
		r.Get("/shop/product", s.detail)
		r.Get("/shop/cart", s.cartPage)

		r.Get("/api/products", s.apiProducts)
		r.Get("/api/cart", s.apiCart)
		r.Get("/api/wishlist", s.apiWishlist)
		r.Get("/api/badge", s.apiBadge)

		r.Group(func(r chi.Router) {
			if s.WriteLimiter != nil {
				r.Use(s.WriteLimiter.Middleware)
			}
			r.Post("/shop/cart", s.postCart)
			r.Post("/shop/wishlist", s.postWishlist)
			r.Post("/api/cart/items", s.apiAddToCart)
			r.Post("/api/wishlist/items", s.apiAddToWishlist)
		})
	})

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"content": s.Content.Ping,
		"kv":      s.KV.Ping,
	}
	failed := map[string]string{}
	for name, ping := range checks {
		if err := ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.String("check", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", failed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HTML pages

func (s *Server) grid(w http.ResponseWriter, r *http.Request) {
	res := s.Loader.Load(r.Context())
	if res.State == catalog.StateCanceled {
		return
	}

	s.render(w, r, "grid", gridPage{
		Page:    s.page(w, r),
		Cards:   catalog.Cards(res.Products),
		Message: res.Message,
		Failed:  res.State == catalog.StateFailed,
	})
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	d, err := catalog.ParseDetail(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	qty := cart.NewQuantity()
	if v := q.Get("quantity"); v != "" {
		// invalid input resets to the default
		_ = qty.Set(v)
	}
	switch q.Get("step") {
	case "inc":
		qty.Inc()
	case "dec":
		qty.Dec()
	}

	s.render(w, r, "detail", detailPage{
		Page:     s.page(w, r),
		Product:  d,
		Quantity: qty.Value(),
		IncURL:   quantityURL(q, qty.Value(), "inc"),
		DecURL:   quantityURL(q, qty.Value(), "dec"),
		BackURL:  quantityURL(q, qty.Value(), ""),
		Min:      cart.MinQuantity,
		Max:      cart.MaxQuantity,
	})
}

// quantityURL is the detail link for q with the selector at current. A
// non-empty step applies that step on arrival.
func quantityURL(q url.Values, current int, step string) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	next.Set("quantity", strconv.Itoa(current))
	next.Del("step")
	if step != "" {
		next.Set("step", step)
	}
	return catalog.DetailPath + "?" + next.Encode()
}

// returnURL validates the detail link a form came from. Only local detail
// links are accepted.
func returnURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path != catalog.DetailPath {
		return "", false
	}
	q := u.Query()
	n, err := cart.ParseQuantity(q.Get("quantity"))
	if err != nil {
		n = cart.MinQuantity
	}
	return quantityURL(q, n, ""), true
}

func (s *Server) cartPage(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	c, err := s.Cart.Cart(r.Context(), session)
	if err != nil {
		s.logger().Error("read cart failed", zap.Error(err))
		http.Error(w, "cart unavailable", http.StatusServiceUnavailable)
		return
	}
	wl, err := s.Cart.Wishlist(r.Context(), session)
	if err != nil {
		s.logger().Error("read wishlist failed", zap.Error(err))
		http.Error(w, "wishlist unavailable", http.StatusServiceUnavailable)
		return
	}

	s.render(w, r, "cart", cartPage{
		Page:     s.page(w, r),
		Lines:    c,
		Units:    c.TotalQuantity(),
		Wishlist: wl,
	})
}

func (s *Server) postCart(w http.ResponseWriter, r *http.Request) {
	it, err := itemFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	qty, err := cart.ParseQuantity(r.PostFormValue("quantity"))
	if err != nil {
		// back to the detail view, selector unchanged
		back, ok := returnURL(r.PostFormValue("back"))
		if !ok {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		setFlash(w, []notify.Notice{notify.Error(cart.MsgInvalidQuantity)})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	_, err = s.Cart.AddToCart(r.Context(), s.session(r), it, qty)
	if err != nil && !errors.Is(err, cart.ErrSaveFailed) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	setFlash(w, notices(r))
	http.Redirect(w, r, "/shop/cart", http.StatusSeeOther)
}

func (s *Server) postWishlist(w http.ResponseWriter, r *http.Request) {
	it, err := itemFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, err = s.Cart.AddToWishlist(r.Context(), s.session(r), it)
	if err != nil && !errors.Is(err, cart.ErrSaveFailed) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	setFlash(w, notices(r))
	http.Redirect(w, r, "/shop/cart#wishlist", http.StatusSeeOther)
}

func itemFromForm(r *http.Request) (cart.Item, error) {
	it := cart.Item{
		ID:    r.PostFormValue("id"),
		Name:  r.PostFormValue("name"),
		Image: catalog.ImageOrFallback(r.PostFormValue("image")),
	}
	if v := r.PostFormValue("price"); v != "" {
		p, err := catalog.ParsePrice(v)
		if err != nil {
			return cart.Item{}, err
		}
		it.Price = p
	}
	return it, nil
}

// JSON API

type addItemRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Price    *catalog.Price `json:"price"`
	Image    string         `json:"image"`
	Quantity int            `json:"quantity"`
}

var errNegativePrice = errors.New("price must not be negative")

func (req addItemRequest) validate() error {
	if req.Price != nil && req.Price.IsNegative() {
		return errNegativePrice
	}
	return nil
}

func (req addItemRequest) item() cart.Item {
	it := cart.Item{
		ID:    req.ID,
		Name:  req.Name,
		Image: catalog.ImageOrFallback(req.Image),
	}
	if req.Price != nil {
		it.Price = *req.Price
	}
	return it
}

type cartResponse struct {
	Items         cart.Cart       `json:"items"`
	Badge         int             `json:"badge"`
	TotalQuantity int             `json:"totalQuantity"`
	Notifications []notify.Notice `json:"notifications"`
}

type wishlistResponse struct {
	Items         cart.Wishlist   `json:"items"`
	Notifications []notify.Notice `json:"notifications"`
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	res := s.Loader.Load(r.Context())
	if res.State == catalog.StateCanceled {
		return
	}
	if res.State == catalog.StateFailed {
		kit.WriteError(w, r, http.StatusBadGateway, res.Message, nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) apiCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.Cart.Cart(r.Context(), s.session(r))
	if err != nil {
		s.logger().Error("read cart failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartResponse(r, c))
}

func (s *Server) apiAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := req.validate(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Quantity < cart.MinQuantity || req.Quantity > cart.MaxQuantity {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid quantity",
			map[string]int{"min": cart.MinQuantity, "max": cart.MaxQuantity})
		return
	}

	c, err := s.Cart.AddToCart(r.Context(), s.session(r), req.item(), req.Quantity)
	if err != nil {
		s.writeAddError(w, r, err, s.cartResponse(r, c))
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartResponse(r, c))
}

func (s *Server) apiWishlist(w http.ResponseWriter, r *http.Request) {
	wl, err := s.Cart.Wishlist(r.Context(), s.session(r))
	if err != nil {
		s.logger().Error("read wishlist failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "wishlist unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, wishlistResponse{Items: nonNil(wl), Notifications: notices(r)})
}

func (s *Server) apiAddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if err := req.validate(); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	wl, err := s.Cart.AddToWishlist(r.Context(), s.session(r), req.item())
	resp := wishlistResponse{Items: nonNil(wl), Notifications: notices(r)}
	if err != nil {
		s.writeAddError(w, r, err, resp)
		return
	}
	kit.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) apiBadge(w http.ResponseWriter, r *http.Request) {
	n, err := s.Cart.Badge(r.Context(), s.session(r))
	if err != nil {
		s.logger().Error("read badge failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

// writeAddError maps cart errors to statuses. On a failed save, unsaved is
// the state the client saw before it was lost.
func (s *Server) writeAddError(w http.ResponseWriter, r *http.Request, err error, unsaved any) {
	switch {
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, cart.ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, cart.ErrSaveFailed):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "could not save", unsaved)
	default:
		s.logger().Error("add item failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) cartResponse(r *http.Request, c cart.Cart) cartResponse {
	n, _ := s.Cart.Badges().Count(s.session(r))
	return cartResponse{
		Items:         nonNil(c),
		Badge:         n,
		TotalQuantity: c.TotalQuantity(),
		Notifications: notices(r),
	}
}

func (s *Server) session(r *http.Request) string {
	id, _ := SessionFromContext(r.Context())
	return id
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func notices(r *http.Request) []notify.Notice {
	b, ok := notify.FromContext(r.Context())
	if !ok {
		return []notify.Notice{}
	}
	return b.Notices()
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
