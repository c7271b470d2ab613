package ingest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_StartsAt(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
}

func TestClock_AdvanceToNeverMovesBack(t *testing.T) {
	c := NewClockAt(10)
	c.advanceTo(5)
	assert.Equal(t, int64(10), c.Current())
	c.advanceTo(20)
	assert.Equal(t, int64(20), c.Current())
}

func TestClock_ConcurrentUnique(t *testing.T) {
	c := NewClock()
	const n = 50

	var wg sync.WaitGroup
	seen := make(chan int64, n*n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n; j++ {
				seen <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		assert.False(t, unique[v], "duplicate seq %d", v)
		unique[v] = true
	}
	assert.Len(t, unique, n*n)
}
