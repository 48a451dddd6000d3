package kv

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_GetSet(t *testing.T) {
	s := New[string, int]()

	s.Set("foo", 42)
	val, ok := s.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	_, ok = s.Get("bar")
	assert.False(t, ok)
}

func TestStore_Delete(t *testing.T) {
	s := New[string, string]()
	s.Set("a", "1")
	s.Set("b", "2")

	s.Delete("a", "b")

	assert.Equal(t, 0, s.Len())
}

func TestStore_GetMany(t *testing.T) {
	s := New[int, string]()
	s.SetBatch(map[int]string{1: "one", 3: "three"})

	hits, misses := s.GetMany([]int{1, 2, 3, 2, 4})

	assert.Equal(t, map[int]string{1: "one", 3: "three"}, hits)
	assert.Equal(t, []int{2, 4}, misses)
}

func TestStore_TTL(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	s := New[string, int](WithTTL(time.Minute), WithClock(clock))
	s.Set("a", 1)

	_, ok := s.Get("a")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)

	_, ok = s.Get("a")
	assert.False(t, ok, "entry should be expired")
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())
}

func TestStore_Concurrent(t *testing.T) {
	s := New[int, int]()
	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set(n, n*2)
			s.Get(n)
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 100, s.Len())
}
