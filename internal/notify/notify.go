// Package notify carries fire-and-forget user feedback ("toasts") from the
// domain layer to whatever renders the response.
package notify

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
func Error(msg string) Notice   { return Notice{Level: LevelError, Message: msg} }

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Buffer collects notices in arrival order.
type Buffer struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *Buffer) Notify(_ context.Context, n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
}

func (b *Buffer) Notices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

type ctxKey struct{}

func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	b := &Buffer{}
	return context.WithValue(ctx, ctxKey{}, b), b
}

func FromContext(ctx context.Context) (*Buffer, bool) {
	b, ok := ctx.Value(ctxKey{}).(*Buffer)
	return b, ok
}

// Middleware gives every request its own Buffer.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := WithBuffer(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextNotifier delivers to the request's Buffer, if any. Notices outside a
// request are only logged.
type ContextNotifier struct {
	Log *zap.Logger
}

func (n ContextNotifier) Notify(ctx context.Context, notice Notice) {
	if b, ok := FromContext(ctx); ok {
		b.Notify(ctx, notice)
	}
	if n.Log != nil {
		n.Log.Debug("notice", zap.String("level", string(notice.Level)), zap.String("message", notice.Message))
	}
}
