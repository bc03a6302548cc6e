package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantity_Stepper(t *testing.T) {
	q := NewQuantity()

	q.Dec()
	assert.Equal(t, 1, q.Value(), "decrement at 1 is a no-op")

	q.Inc()
	q.Inc()
	assert.Equal(t, 3, q.Value())

	assert.NoError(t, q.Set("100"))
	q.Inc()
	assert.Equal(t, 100, q.Value(), "increment clamps at the upper bound")

	var zero Quantity
	assert.Equal(t, 1, zero.Value())
	zero.Inc()
	assert.Equal(t, 2, zero.Value())
}

func TestQuantity_SetRejectsInvalid(t *testing.T) {
	q := NewQuantity()
	assert.NoError(t, q.Set("7"))

	for _, in := range []string{"0", "-5", "abc", "", "101", "3.5", "12abc"} {
		err := q.Set(in)
		assert.ErrorIs(t, err, ErrInvalidQuantity, in)
		assert.Equal(t, 7, q.Value(), "prior value kept after %q", in)
	}

	assert.NoError(t, q.Set(" 42 "))
	assert.Equal(t, 42, q.Value())
}

func TestParseQuantity(t *testing.T) {
	n, err := ParseQuantity("1")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ParseQuantity("100000")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
