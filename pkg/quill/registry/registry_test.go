package registry_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillreader/quill/pkg/quill/registry"
)

func TestRegisterGet(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("speech", 1)
	r.Register("braille", 2)

	v, ok := r.Get("speech")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Get("input")
	assert.False(t, ok)

	assert.True(t, r.Has("braille"))
	assert.Equal(t, 2, r.Len())
}

func TestRegisterOverwrites(t *testing.T) {
	r := registry.New[string, string]()
	r.Register("k", "old")
	r.Register("k", "new")

	v, _ := r.Get("k")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, r.Len())
}

func TestDelete(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("k", 1)
	r.Delete("k")
	assert.False(t, r.Has("k"))

	// Deleting a missing key is a no-op.
	r.Delete("missing")
}

func TestRangeSnapshot(t *testing.T) {
	r := registry.New[string, int]()
	for i := 0; i < 5; i++ {
		r.Register(fmt.Sprintf("k%d", i), i)
	}

	seen := 0
	r.Range(func(k string, v int) bool {
		seen++
		r.Delete(k) // safe during iteration
		return true
	})
	assert.Equal(t, 5, seen)
	assert.Equal(t, 0, r.Len())
}

func TestRangeEarlyStop(t *testing.T) {
	r := registry.New[int, int]()
	for i := 0; i < 10; i++ {
		r.Register(i, i)
	}

	seen := 0
	r.Range(func(int, int) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}

func TestGetOrCreateOnce(t *testing.T) {
	r := registry.New[string, int]()
	var created atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := r.GetOrCreate("worker", func() int {
				created.Add(1)
				return 42
			})
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "factory must run at most once per key")
}
