package lyric

// full copy of the store state
type snapshot struct {
	entries []Entry
	nextID  int
}

func (s snapshot) clone() snapshot {
	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return snapshot{entries: entries, nextID: s.nextID}
}

// History is a linear undo/redo log of store snapshots, oldest first.
//
// Snapshots are recorded before each mutation. While pos == len(snapshots)
// the live state is newer than every snapshot; otherwise the live state
// equals snapshots[pos].
type History struct {
	snapshots []snapshot
	pos       int
	max       int
}

func newHistory(max int) *History {
	if max < 2 {
		max = 2
	}
	return &History{max: max}
}

// Len returns the number of retained snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Cap returns the maximum number of retained snapshots.
func (h *History) Cap() int { return h.max }

func (h *History) canUndo() bool { return h.pos > 0 }

func (h *History) canRedo() bool { return h.pos < len(h.snapshots)-1 }

// record stores the pre-mutation state, dropping any undone branch.
func (h *History) record(s snapshot) {
	h.snapshots = h.snapshots[:h.pos]
	h.snapshots = append(h.snapshots, s.clone())
	if len(h.snapshots) > h.max {
		h.evictOldest()
	}
	h.pos = len(h.snapshots)
}

// undo returns the state to restore. live is captured first when undoing
// from the tip so that redo can come back to it.
func (h *History) undo(live snapshot) (snapshot, bool) {
	if !h.canUndo() {
		return snapshot{}, false
	}
	if h.pos == len(h.snapshots) {
		h.snapshots = append(h.snapshots, live.clone())
		if len(h.snapshots) > h.max {
			h.evictOldest()
			h.pos--
		}
		if h.pos <= 0 {
			return snapshot{}, false
		}
	}
	h.pos--
	return h.snapshots[h.pos].clone(), true
}

func (h *History) redo() (snapshot, bool) {
	if !h.canRedo() {
		return snapshot{}, false
	}
	h.pos++
	return h.snapshots[h.pos].clone(), true
}

func (h *History) evictOldest() {
	kept := make([]snapshot, len(h.snapshots)-1, h.max+1)
	copy(kept, h.snapshots[1:])
	h.snapshots = kept
}
