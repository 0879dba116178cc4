package deterministicmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	t.Parallel()

	m := New[string, string]()
	m.Set("a", "b")
	require.Equal(t, 1, m.Len())

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, "b", v)

	m.Delete("a")
	require.Equal(t, 0, m.Len())
	m.Delete("a") // noop
	require.Equal(t, 0, m.Len())
}

func TestInsertionOrderPreserved(t *testing.T) {
	t.Parallel()

	m := New[string, int]()
	m.Set("gaia", 1)
	m.Set("osmosis", 2)
	m.Set("tx-chain", 3)

	var keys []string
	require.NoError(t, m.Range(func(key string, _ int) error {
		keys = append(keys, key)
		return nil
	}))
	require.Equal(t, []string{"gaia", "osmosis", "tx-chain"}, keys)
}

func TestRangeBreak(t *testing.T) {
	t.Parallel()

	m := New[int, int]()
	for i := range 5 {
		m.Set(i, i*i)
	}

	var seen []int
	err := m.Range(func(key, _ int) error {
		seen = append(seen, key)
		if key == 2 {
			return ErrBreak
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, seen)
}

func TestFromMap(t *testing.T) {
	t.Parallel()

	m := FromMap(map[string]int{"a": 1})
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}
