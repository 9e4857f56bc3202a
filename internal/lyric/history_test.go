package lyric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	s := NewStore()
	s.Add(1, "a")
	_, ok := s.Add(3, "x")
	require.True(t, ok)
	after := s.All()

	require.True(t, s.Undo())
	assert.Len(t, s.All(), 1)

	require.True(t, s.Redo())
	assert.Equal(t, after, s.All())

	assert.False(t, s.Redo())
}

func TestHistory_UndoToEmpty(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Undo())

	s.Add(1, "a")
	s.Add(2, "b")

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	require.True(t, s.Redo())
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Redo())
}

func TestHistory_NewWorkDropsRedoBranch(t *testing.T) {
	s := NewStore()
	s.Add(1, "a")
	s.Add(2, "b")

	require.True(t, s.Undo())
	s.Add(5, "c")
	assert.False(t, s.CanRedo())
	assert.False(t, s.Redo())

	texts := func() []string {
		var out []string
		for _, e := range s.All() {
			out = append(out, e.Text)
		}
		return out
	}
	assert.Equal(t, []string{"a", "c"}, texts())

	require.True(t, s.Undo())
	assert.Equal(t, []string{"a"}, texts())
	require.True(t, s.Undo())
	assert.Empty(t, texts())
	assert.False(t, s.Undo())
}

func TestHistory_RestoreIsDeepCopy(t *testing.T) {
	s := NewStore()
	a, _ := s.Add(1, "a")
	s.Update(a.ID, Patch{Text: str("changed")})

	require.True(t, s.Undo())
	got, _ := s.Get(a.ID)
	assert.Equal(t, "a", got.Text)

	// mutating after restore must not leak into the stored snapshot
	s.Update(a.ID, Patch{StartTime: f(9)})
	require.True(t, s.Undo())
	got, _ = s.Get(a.ID)
	assert.Equal(t, 1.0, got.StartTime)
	assert.Equal(t, "a", got.Text)
}

func TestHistory_EvictsOldest(t *testing.T) {
	s := NewStore()
	for i := 0; i < 60; i++ {
		_, ok := s.Add(float64(i), "line")
		require.True(t, ok)
	}
	assert.Equal(t, DefaultHistorySize, s.HistoryLen())

	undos := 0
	for s.Undo() {
		undos++
	}
	assert.Equal(t, DefaultHistorySize-1, undos)
	assert.Equal(t, 11, s.Len())
	assert.LessOrEqual(t, s.HistoryLen(), DefaultHistorySize)

	redos := 0
	for s.Redo() {
		redos++
	}
	assert.Equal(t, undos, redos)
	assert.Equal(t, 60, s.Len())
}

func TestHistory_SmallCapacity(t *testing.T) {
	s := NewStore(WithHistorySize(2))
	s.Add(0, "a")
	s.Add(1, "b")
	s.Add(2, "c")

	require.True(t, s.Undo())
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, 3, s.Len())
}

func TestHistory_CapacityFloor(t *testing.T) {
	h := newHistory(0)
	assert.Equal(t, 2, h.Cap())
}
