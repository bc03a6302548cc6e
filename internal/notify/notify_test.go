package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContextNotifier_DeliversToRequestBuffer(t *testing.T) {
	n := ContextNotifier{Log: zap.NewNop()}

	var got []Notice
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		n.Notify(r.Context(), Success("Product added to cart!"))
		n.Notify(r.Context(), Error("Could not save your cart. Please try again."))

		b, ok := FromContext(r.Context())
		require.True(t, ok)
		got = b.Notices()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []Notice{
		{Level: LevelSuccess, Message: "Product added to cart!"},
		{Level: LevelError, Message: "Could not save your cart. Please try again."},
	}, got)
}

func TestContextNotifier_NoBuffer(t *testing.T) {
	n := ContextNotifier{}
	assert.NotPanics(t, func() { n.Notify(context.Background(), Success("ok")) })

	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
