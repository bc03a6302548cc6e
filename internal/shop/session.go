package shop

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookie  = "storefront_session"
	sessionIssuer  = "storefront"
	defaultSessTTL = 30 * 24 * time.Hour
)

var errInvalidSession = errors.New("invalid session")

// Sessions issues anonymous session ids signed into a cookie. A session is
// what scopes a visitor's cart and wishlist.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	log    *zap.Logger
}

func NewSessions(secret string, ttl time.Duration, secure bool, log *zap.Logger) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, secure: secure, log: log}
}

func (s *Sessions) New(id string) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Sessions) Parse(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer))
	if err != nil || token == nil || !token.Valid {
		return "", errInvalidSession
	}

	if _, err := uuid.Parse(c.Subject); err != nil {
		return "", errInvalidSession
	}
	return c.Subject, nil
}

// Middleware attaches the session id to the request context, starting a new
// session when the cookie is missing or does not verify.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookie); err == nil {
			if id, err := s.Parse(c.Value); err == nil {
				next.ServeHTTP(w, r.WithContext(withSession(r.Context(), id)))
				return
			}
		}

		id := uuid.NewString()
		token, err := s.New(id)
		if err != nil {
			s.log.Error("sign session failed", zap.Error(err))
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(s.ttl / time.Second),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), id)))
	})
}

type sessionKey struct{}

func withSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}
