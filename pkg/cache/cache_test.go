package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withFrozenClock(t *testing.T, at time.Time) {
	t.Helper()
	original := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = original })
}

func TestCheckNeedsUpdate_NoCacheNeedsUpdate(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	c := New(DefaultConfig(t.TempDir()), func(context.Context, string) (string, error) {
		return "v1.2.3", nil
	})

	res, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)
	require.True(t, res.NeedsUpdate)
	require.Equal(t, "v1.2.3", res.CurrentVersion)
}

func TestCheckNeedsUpdate_FetchFailureNoCachePessimistic(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	c := New(DefaultConfig(t.TempDir()), func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	})

	res, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)
	require.True(t, res.NeedsUpdate)
}

func TestCheckNeedsUpdate_FetchFailureWithCacheUsesStale(t *testing.T) {
	base := time.Unix(0, 0)
	withFrozenClock(t, base)

	var calls int32
	c := New(DefaultConfig(t.TempDir()), func(context.Context, string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "v1.0.0", nil
		}
		return "", errors.New("timeout")
	})

	_, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)

	withFrozenClock(t, base.Add(25*time.Hour))
	res, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)
	require.False(t, res.NeedsUpdate)
	require.Equal(t, "v1.0.0", res.CachedVersion)
}

func TestCheckNeedsUpdate_WithinIntervalReturnsCachedVerdict(t *testing.T) {
	base := time.Unix(0, 0)
	withFrozenClock(t, base)

	var calls int32
	c := New(DefaultConfig(t.TempDir()), func(context.Context, string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v1.0.0", nil
	})

	_, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)

	withFrozenClock(t, base.Add(time.Hour))
	res, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)
	require.False(t, res.NeedsUpdate)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCheckNeedsUpdate_VersionChangeDetected(t *testing.T) {
	base := time.Unix(0, 0)
	withFrozenClock(t, base)

	var calls int32
	c := New(DefaultConfig(t.TempDir()), func(context.Context, string) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "v1.0.0", nil
		}
		return "v1.1.0", nil
	})

	_, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)

	withFrozenClock(t, base.Add(25*time.Hour))
	res, err := c.CheckNeedsUpdate(context.Background(), "chain-1", "tcp://rpc:26657")
	require.NoError(t, err)
	require.True(t, res.NeedsUpdate)
	require.Equal(t, "v1.1.0", res.CurrentVersion)
	require.Equal(t, "v1.0.0", res.CachedVersion)
}

func TestDescriptor_StoreAndRetrieve(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	c := New(DefaultConfig(t.TempDir()), nil)

	c.StoreDescriptor(DescriptorCacheEntry{Endpoint: "grpc.example:9090", ChainAppVersion: "v1.0.0", SchemaBlob: []byte("schema")})

	entry, ok := c.Descriptor("grpc.example:9090", "v1.0.0")
	require.True(t, ok)
	require.Equal(t, []byte("schema"), entry.SchemaBlob)
}

func TestDescriptor_StaleOnVersionMismatch(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	c := New(DefaultConfig(t.TempDir()), nil)

	c.StoreDescriptor(DescriptorCacheEntry{Endpoint: "grpc.example:9090", ChainAppVersion: "v1.0.0", SchemaBlob: []byte("schema")})

	_, ok := c.Descriptor("grpc.example:9090", "v2.0.0")
	require.False(t, ok)
}

func TestDescriptor_StaleAfterTTL(t *testing.T) {
	base := time.Unix(0, 0)
	withFrozenClock(t, base)
	c := New(DefaultConfig(t.TempDir()), nil)

	c.StoreDescriptor(DescriptorCacheEntry{Endpoint: "grpc.example:9090", ChainAppVersion: "v1.0.0", SchemaBlob: []byte("schema")})

	withFrozenClock(t, base.Add(25*time.Hour))
	_, ok := c.Descriptor("grpc.example:9090", "")
	require.False(t, ok)
}

func TestDescriptor_MissingDirIsCacheMiss(t *testing.T) {
	withFrozenClock(t, time.Unix(0, 0))
	c := New(DefaultConfig(t.TempDir()+"/does-not-exist-yet"), nil)

	_, ok := c.Descriptor("grpc.example:9090", "v1.0.0")
	require.False(t, ok)
}
