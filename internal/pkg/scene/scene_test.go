package scene

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestClockAllocator_Positive(t *testing.T) {
	a := NewClockAllocator()
	for i := 0; i < 1000; i++ {
		assert.Greater(t, a.Allocate(), int32(0))
	}
}

func TestClockAllocator_ModuloFloorsToOne(t *testing.T) {
	a := &ClockAllocator{now: fixedClock(3 * modulus)}
	assert.Equal(t, int32(1), a.Allocate())
}

func TestClockAllocator_SameMillisecondYieldsDistinctIDs(t *testing.T) {
	a := &ClockAllocator{now: fixedClock(1_700_000_000_042)}
	first := a.Allocate()
	second := a.Allocate()
	third := a.Allocate()
	assert.Equal(t, int32(42), first)
	assert.Equal(t, int32(43), second)
	assert.Equal(t, int32(44), third)
}

func TestClockAllocator_WrapsAfterModulus(t *testing.T) {
	a := &ClockAllocator{now: fixedClock(modulus - 1), last: 0}
	assert.Equal(t, int32(modulus-1), a.Allocate())
	assert.Equal(t, int32(1), a.Allocate())
}

func TestClockAllocator_ConcurrentCallsAreUnique(t *testing.T) {
	a := &ClockAllocator{now: fixedClock(5_000)}
	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[int32]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := a.Allocate()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

type seqAllocator struct{ ids []int32 }

func (s *seqAllocator) Allocate() int32 {
	id := s.ids[0]
	s.ids = s.ids[1:]
	return id
}

func TestAllocateUnique_RetriesOnCollision(t *testing.T) {
	a := &seqAllocator{ids: []int32{7, 7, 8}}
	taken := map[int32]bool{7: true}
	id, err := AllocateUnique(a, func(v int32) bool { return taken[v] }, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(8), id)
}

func TestAllocateUnique_Exhausted(t *testing.T) {
	a := &seqAllocator{ids: []int32{7, 7}}
	_, err := AllocateUnique(a, func(int32) bool { return true }, 2)
	assert.ErrorIs(t, err, ErrExhausted)
}
