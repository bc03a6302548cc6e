package shop

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_RoundTrip(t *testing.T) {
	s := NewSessions("0123456789abcdef0123456789abcdef", time.Hour, false, nil)

	id := uuid.NewString()
	tok, err := s.New(id)
	require.NoError(t, err)

	got, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestSessions_Rejects(t *testing.T) {
	s := NewSessions("0123456789abcdef0123456789abcdef", time.Hour, false, nil)
	other := NewSessions("ffffffffffffffffffffffffffffffff", time.Hour, false, nil)

	tok, err := other.New(uuid.NewString())
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, errInvalidSession, "wrong key")

	expired := NewSessions("0123456789abcdef0123456789abcdef", -time.Hour, false, nil)
	expired.ttl = -time.Hour
	tok, err = expired.New(uuid.NewString())
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, errInvalidSession, "expired")

	tok, err = s.New("not-a-uuid")
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, errInvalidSession, "subject")

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	tok, err = foreign.SignedString(s.secret)
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, errInvalidSession, "issuer")
}
