package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBackend struct {
	*MemoryBackend
	failGet    bool
	failSet    bool
	failDelete bool
	sets       int
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryBackend: NewMemoryBackend()}
}

func (f *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("storage disabled")
	}
	return f.MemoryBackend.Get(ctx, key)
}

func (f *flakyBackend) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.MemoryBackend.Set(ctx, key, value)
}

func (f *flakyBackend) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("storage disabled")
	}
	return f.MemoryBackend.Delete(ctx, key)
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoad_MissingKeyReturnsDefault(t *testing.T) {
	s := New("test", NewMemoryBackend())

	got := Load(context.Background(), s, "absent", sample{Name: "default"})

	assert.Equal(t, sample{Name: "default"}, got)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := New("session-1", backend)

	Save(ctx, s, "thing", sample{Name: "cream", Count: 2})

	assert.Equal(t, sample{Name: "cream", Count: 2}, Load(ctx, s, "thing", sample{}))

	raw, err := backend.Get(ctx, "session-1:thing")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"cream","count":2}`, string(raw))
}

func TestLoad_CorruptValueReturnsDefault(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Set(ctx, "s:thing", []byte("{not json")))
	s := New("s", backend)

	got := Load(ctx, s, "thing", []sample{})

	assert.Empty(t, got)
}

func TestLoad_BackendErrorReturnsDefault(t *testing.T) {
	backend := newFlakyBackend()
	backend.failGet = true
	s := New("s", backend)

	assert.Equal(t, 7, Load(context.Background(), s, "n", 7))
}

func TestSave_FailureDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	s := New("s", backend)

	Save(ctx, s, "cart", []string{"a"})
	require.False(t, s.Degraded())

	backend.failSet = true
	Save(ctx, s, "cart", []string{"a", "b"})

	assert.True(t, s.Degraded())
	assert.Equal(t, []string{"a", "b"}, Load(ctx, s, "cart", []string(nil)))

	backend.failSet = false
	setsBefore := backend.sets
	Save(ctx, s, "cart", []string{"c"})

	assert.Equal(t, setsBefore, backend.sets, "degraded store must not write to the backend again")
	assert.Equal(t, []string{"c"}, Load(ctx, s, "cart", []string(nil)))
}

func TestDegradedStore_FallsBackToBackendForUntouchedKeys(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	s := New("s", backend)

	Save(ctx, s, "history", []string{"visit"})
	backend.failSet = true
	Save(ctx, s, "cart", []string{"a"})
	require.True(t, s.Degraded())

	assert.Equal(t, []string{"visit"}, Load(ctx, s, "history", []string(nil)))
}

func TestDegradedStore_DeleteHidesBackendValue(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	s := New("s", backend)

	Save(ctx, s, "address", "Main street")
	backend.failSet = true
	Save(ctx, s, "cart", 1)
	require.True(t, s.Degraded())

	s.Delete(ctx, "address")

	assert.Equal(t, "", Load(ctx, s, "address", ""))

	Save(ctx, s, "address", "Second street")
	assert.Equal(t, "Second street", Load(ctx, s, "address", ""))
}

func TestDelete_FailureDegrades(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	s := New("s", backend)
	Save(ctx, s, "order", "ORD-1")

	backend.failDelete = true
	s.Delete(ctx, "order")

	assert.True(t, s.Degraded())
	assert.Equal(t, "", Load(ctx, s, "order", ""))
}

func TestSave_UnencodableValueIsSwallowed(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	s := New("s", backend)

	Save(ctx, s, "bad", map[string]any{"ch": make(chan int)})

	assert.Zero(t, backend.sets)
	assert.False(t, s.Degraded())
}
