package shop

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// Page is the chrome every HTML page shares.
type Page struct {
	Badge   int
	Notices []notify.Notice
}

type gridPage struct {
	Page
	Cards   []catalog.Card
	Message string
	Failed  bool
}

type detailPage struct {
	Page
	Product  catalog.Detail
	Quantity int
	IncURL   string
	DecURL   string
	BackURL  string
	Min, Max int
}

type cartPage struct {
	Page
	Lines    cart.Cart
	Units    int
	Wishlist cart.Wishlist
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) Page {
	p := Page{Notices: append(takeFlash(w, r), notices(r)...)}

	n, err := s.Cart.Badge(r.Context(), s.session(r))
	if err != nil {
		s.logger().Warn("badge unavailable", zap.Error(err))
	}
	p.Badge = n
	return p
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger().Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
