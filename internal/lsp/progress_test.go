package lsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressTracker_Lifecycle(t *testing.T) {
	tracker := NewProgressTracker()

	tracker.Create("a")
	tracker.Create(float64(1))

	pct := uint32(50)
	state := tracker.Update(ProgressParams{
		Token: "a",
		Value: WorkDoneProgressValue{Kind: ProgressBegin, Title: "Indexing", Percentage: &pct, Cancellable: true},
	})
	require.Equal(t, "Indexing", state.Title)
	require.True(t, state.Cancellable)

	// The returned state does not alias tracker memory.
	*state.Percentage = 99
	got, ok := tracker.Get("a")
	require.True(t, ok)
	require.Equal(t, uint32(50), *got.Percentage)

	tracker.Update(ProgressParams{Token: float64(1), Value: WorkDoneProgressValue{Kind: ProgressEnd}})

	active := tracker.Active()
	require.Len(t, active, 1)
	require.Equal(t, "a", active[0].Token)

	tracker.Forget()

	_, ok = tracker.Get(float64(1))
	require.False(t, ok)

	_, ok = tracker.Get("a")
	require.True(t, ok)
}

func TestProgressTracker_UnknownToken(t *testing.T) {
	tracker := NewProgressTracker()

	state := tracker.Update(ProgressParams{Token: "client-chosen", Value: WorkDoneProgressValue{Kind: ProgressReport, Message: "1/2"}})
	require.Equal(t, "1/2", state.Message)
	require.Len(t, tracker.Active(), 1)
}

func TestProgressTracker_TokenKeys(t *testing.T) {
	require.NotEqual(t, tokenKey("1"), tokenKey(float64(1)))
	require.Equal(t, tokenKey(1), tokenKey(float64(1)))
	require.Equal(t, tokenKey(int64(1)), tokenKey(float64(1)))
}
