package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

func TestClock_FrozenWithoutStep(t *testing.T) {
	c := NewClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())
}

func TestClock_StepsOnEveryNow(t *testing.T) {
	c := NewSteppingClock(start, time.Second)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, start.Add(2*time.Second), c.Now())
}

func TestClock_AdvanceAndSet(t *testing.T) {
	c := NewClock(start)
	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())
	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestClock_ConcurrentNow(t *testing.T) {
	c := NewSteppingClock(start, time.Millisecond)

	var wg sync.WaitGroup
	seen := make([]time.Time, 64)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = c.Now()
		}(i)
	}
	wg.Wait()

	unique := map[time.Time]bool{}
	for _, ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, len(seen))
}
