package cart

import (
	"strconv"
	"strings"
)

const (
	MinQuantity = 1
	MaxQuantity = 100
)

const MsgInvalidQuantity = "Please enter a quantity between 1 and 100."

// Quantity is the "units to add" selector on the detail view. The zero value
// reads as MinQuantity.
type Quantity struct {
	v int
}

func NewQuantity() Quantity { return Quantity{v: MinQuantity} }

func (q Quantity) Value() int {
	if q.v < MinQuantity {
		return MinQuantity
	}
	return q.v
}

func (q *Quantity) Inc() {
	q.v = min(q.Value()+1, MaxQuantity)
}

func (q *Quantity) Dec() {
	q.v = max(q.Value()-1, MinQuantity)
}

// Set applies typed input. Invalid input leaves the current value in place.
func (q *Quantity) Set(s string) error {
	n, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	q.v = n
	return nil
}

// ParseQuantity accepts a base-10 integer in [MinQuantity, MaxQuantity].
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < MinQuantity || n > MaxQuantity {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}
