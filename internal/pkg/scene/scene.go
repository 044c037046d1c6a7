// Package scene allocates the integer scene ids embedded in login QR codes.
package scene

import (
	"errors"
	"sync"
	"time"
)

// modulus bounds scene ids so they fit a positive int32.
const modulus = 1_000_000_000

// ErrExhausted is returned when no free scene id was found within the retry budget.
var ErrExhausted = errors.New("scene id allocation exhausted")

// Allocator produces strictly positive scene ids.
type Allocator interface {
	Allocate() int32
}

// ClockAllocator derives ids from wall-clock milliseconds modulo 10^9.
// Within one process it never hands out the same id twice before wrapping:
// two calls in the same millisecond get consecutive ids.
type ClockAllocator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockAllocator() *ClockAllocator {
	return &ClockAllocator{now: time.Now}
}

func (a *ClockAllocator) Allocate() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.now().UnixMilli() % modulus
	if v <= a.last && a.last-v < modulus/2 {
		v = a.last + 1
	}
	if v >= modulus {
		v = 1
	}
	if v < 1 {
		v = 1
	}
	a.last = v
	return int32(v)
}

// AllocateUnique asks a for ids until inUse reports one as free, trying at most attempts times.
func AllocateUnique(a Allocator, inUse func(int32) bool, attempts int) (int32, error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		id := a.Allocate()
		if inUse == nil || !inUse(id) {
			return id, nil
		}
	}
	return 0, ErrExhausted
}
