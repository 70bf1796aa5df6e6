package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCache_SetGet_NoTTL(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 1, c.Len())
}

func TestTTLCache_Expiry(t *testing.T) {
	base := time.Now()
	now = func() time.Time { return base }
	t.Cleanup(func() { now = time.Now })

	c := New[string, string](time.Second)
	c.Set("k", "v")
	_, ok := c.Get("k")
	require.True(t, ok)

	base = base.Add(2 * time.Second)
	_, ok = c.Get("k")
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
	require.Equal(t, []string{"v"}, c.PurgeExpired())
	require.Empty(t, c.PurgeExpired())
}

func TestTTLCache_DeleteClear(t *testing.T) {
	c := New[int, int](0)
	c.Set(1, 10)
	c.Set(2, 20)
	c.Delete(1)
	_, ok := c.Get(1)
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
	c.Clear()
	require.Equal(t, 0, c.Len())
}

func TestTTLCache_GetOrLoadSingleValue(t *testing.T) {
	c := New[string, *int](0)
	var loads atomic.Int32
	var wg sync.WaitGroup
	results := make([]*int, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad("k", func() (*int, error) {
				loads.Add(1)
				n := 7
				return &n, nil
			})
			if err != nil {
				t.Error(err)
			}
			results[i] = v
		}(i)
	}
	wg.Wait()
	require.EqualValues(t, 1, loads.Load())
	for _, r := range results {
		require.Same(t, results[0], r)
	}
}

func TestTTLCache_GetOrLoadErrorNotCached(t *testing.T) {
	c := New[string, int](0)
	_, err := c.GetOrLoad("k", func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
}
