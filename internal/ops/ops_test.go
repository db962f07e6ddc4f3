package ops

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreate_StartsAccepted(t *testing.T) {
	m := NewManager()

	rec := m.Create("scene_export", map[string]any{"path": "/tmp/out.json"})
	require.NotEmpty(t, rec.ID)
	require.Equal(t, "scene_export", rec.Kind)
	require.Equal(t, StateAccepted, rec.Status)
	require.False(t, rec.CancelRequested)
	require.Equal(t, "/tmp/out.json", rec.Metadata["path"])

	got, ok := m.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, rec.ID, got.ID)
}

func TestCreate_UniqueIDs(t *testing.T) {
	m := NewManager()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rec := m.Create("bulk", nil)
		require.False(t, seen[rec.ID])
		seen[rec.ID] = true
	}
}

func TestLifecycle_CompleteHoldsResult(t *testing.T) {
	m := NewManager()
	rec := m.Create("scene_export", nil)

	m.Start(rec.ID)
	got, _ := m.Get(rec.ID)
	require.Equal(t, StateRunning, got.Status)

	m.Complete(rec.ID, map[string]any{"objects": 3})
	got, _ = m.Get(rec.ID)
	require.Equal(t, StateCompleted, got.Status)
	require.Equal(t, 3, got.Result["objects"])
	require.Empty(t, got.Error)
}

func TestLifecycle_FailHoldsError(t *testing.T) {
	m := NewManager()
	rec := m.Create("scene_export", nil)

	m.Start(rec.ID)
	m.Fail(rec.ID, "disk full")

	got, _ := m.Get(rec.ID)
	require.Equal(t, StateFailed, got.Status)
	require.Equal(t, "disk full", got.Error)
	require.Nil(t, got.Result)
}

func TestRequestCancel_BeforeTerminal(t *testing.T) {
	m := NewManager()
	rec := m.Create("scene_export", nil)

	require.True(t, m.RequestCancel(rec.ID))

	got, _ := m.Get(rec.ID)
	require.Equal(t, StateCanceled, got.Status)
	require.True(t, got.CancelRequested)
	require.True(t, m.CancelRequested(rec.ID))
}

func TestRequestCancel_AfterTerminalKeepsStatus(t *testing.T) {
	m := NewManager()
	rec := m.Create("scene_export", nil)
	m.Complete(rec.ID, map[string]any{"objects": 1})

	require.True(t, m.RequestCancel(rec.ID))

	got, _ := m.Get(rec.ID)
	require.Equal(t, StateCompleted, got.Status)
	require.True(t, got.CancelRequested)
}

func TestRequestCancel_UnknownID(t *testing.T) {
	m := NewManager()

	require.False(t, m.RequestCancel("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	require.False(t, m.CancelRequested("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}

func TestGet_UnknownID(t *testing.T) {
	m := NewManager()

	_, ok := m.Get("missing")
	require.False(t, ok)
}

func TestGet_ReturnsCopy(t *testing.T) {
	m := NewManager()
	rec := m.Create("scene_export", nil)

	got, _ := m.Get(rec.ID)
	got.Status = "mangled"

	again, _ := m.Get(rec.ID)
	require.Equal(t, StateAccepted, again.Status)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()
	rec := m.Create("stress", nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			m.Start(rec.ID)
		}()
		go func() {
			defer wg.Done()
			m.Get(rec.ID)
		}()
		go func() {
			defer wg.Done()
			m.Create("stress", nil)
		}()
	}
	wg.Wait()

	got, ok := m.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, StateRunning, got.Status)
}
