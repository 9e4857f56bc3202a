// Package lyric holds the timed lyric collection and its undo history.
//
// A Store keeps entries sorted by start time and derives each end time
// from the following entry, so that exported subtitles never overlap.
// Every successful mutation is recorded in a bounded history and
// announced to subscribed listeners. The store is not safe for
// concurrent use; callers that share it across goroutines serialise
// access themselves.
package lyric

import (
	"math"
	"sort"
)

// Op names the operation that changed the store.
type Op string

const (
	OpAdd    Op = "add"
	OpBulk   Op = "bulk"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
	OpUndo   Op = "undo"
	OpRedo   Op = "redo"
)

// Event is passed to listeners after a successful mutation.
type Event struct {
	Op    Op
	Count int // entries in the store after the change
}

type Listener func(Event)

type Option func(*Store)

// WithHistorySize bounds the number of retained snapshots.
func WithHistorySize(n int) Option {
	return func(s *Store) {
		s.history = newHistory(n)
	}
}

// WithListener subscribes fn at construction time.
func WithListener(fn Listener) Option {
	return func(s *Store) {
		s.Subscribe(fn)
	}
}

type subscription struct {
	fn Listener
}

type Store struct {
	entries   []Entry
	nextID    int
	history   *History
	listeners []*subscription
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		nextID:  1,
		history: newHistory(DefaultHistorySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to run after every successful mutation, in
// registration order. The returned func removes it.
func (s *Store) Subscribe(fn Listener) func() {
	sub := &subscription{fn: fn}
	s.listeners = append(s.listeners, sub)
	return func() {
		for i, v := range s.listeners {
			if v == sub {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(op Op) {
	ev := Event{Op: op, Count: len(s.entries)}
	for _, sub := range s.listeners {
		sub.fn(ev)
	}
}

func (s *Store) state() snapshot {
	return snapshot{entries: s.entries, nextID: s.nextID}
}

// restore never moves the id counter backwards, so ids handed out after
// an undo are still unique for the session.
func (s *Store) restore(snap snapshot) {
	s.entries = snap.entries
	if snap.nextID > s.nextID {
		s.nextID = snap.nextID
	}
}

func (s *Store) snapshot() {
	s.history.record(s.state())
}

// Add appends a line at start. It returns false when the trimmed text is
// empty or start is negative or not finite.
func (s *Store) Add(start float64, text string) (Entry, bool) {
	text = cleanText(text)
	if text == "" || !validStart(start) {
		return Entry{}, false
	}

	s.snapshot()

	e := Entry{ID: s.nextID, StartTime: start, Text: text}
	s.nextID++
	s.entries = append(s.entries, e)
	s.recompute()

	s.notify(OpAdd)

	added, _ := s.Get(e.ID)
	return added, true
}

// AddBulk inserts every valid item under a single history step and
// returns how many were accepted. A nil slice is not a batch: nothing is
// recorded and 0 is returned.
func (s *Store) AddBulk(raw []RawEntry) int {
	if raw == nil {
		return 0
	}

	s.snapshot()

	added := 0
	for _, r := range raw {
		text := cleanText(r.Text)
		if text == "" || !validStart(r.StartTime) {
			continue
		}

		e := Entry{ID: s.nextID, StartTime: r.StartTime, Text: text}
		if r.EndTime != nil && validEnd(r.StartTime, *r.EndTime) {
			e.EndTime = Explicit(*r.EndTime)
		}
		s.nextID++
		s.entries = append(s.entries, e)
		added++
	}

	s.recompute()
	s.notify(OpBulk)

	return added
}

// Update applies p to the entry with the given id. It returns false when
// the id is unknown, when nothing would change, or when the result would
// be an invalid entry.
func (s *Store) Update(id int, p Patch) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	cur := s.entries[idx]

	next := cur
	changed := false

	if p.StartTime != nil && *p.StartTime != cur.StartTime {
		if !validStart(*p.StartTime) {
			return false
		}
		next.StartTime = *p.StartTime
		changed = true
	}
	if p.Text != nil {
		text := cleanText(*p.Text)
		if text != cur.Text {
			if text == "" {
				return false
			}
			next.Text = text
			changed = true
		}
	}
	if p.EndTime != nil {
		v, ok := cur.EndTime.Value()
		if !ok || v != *p.EndTime {
			next.EndTime = Explicit(*p.EndTime)
			changed = true
		}
	}

	if !changed {
		return false
	}
	if p.EndTime != nil && !validEnd(next.StartTime, *p.EndTime) {
		return false
	}

	s.snapshot()

	s.entries[idx] = next
	s.recompute()
	s.notify(OpUpdate)

	return true
}

// Delete removes the entry with the given id.
func (s *Store) Delete(id int) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	s.snapshot()

	entries := make([]Entry, 0, len(s.entries)-1)
	entries = append(entries, s.entries[:idx]...)
	entries = append(entries, s.entries[idx+1:]...)
	s.entries = entries
	s.recompute()
	s.notify(OpDelete)

	return true
}

// Clear removes every entry. It is recorded even when already empty.
func (s *Store) Clear() {
	s.snapshot()
	s.entries = nil
	s.notify(OpClear)
}

func (s *Store) Undo() bool {
	snap, ok := s.history.undo(s.state())
	if !ok {
		return false
	}
	s.restore(snap)
	s.notify(OpUndo)
	return true
}

func (s *Store) Redo() bool {
	snap, ok := s.history.redo()
	if !ok {
		return false
	}
	s.restore(snap)
	s.notify(OpRedo)
	return true
}

func (s *Store) CanUndo() bool { return s.history.canUndo() }
func (s *Store) CanRedo() bool { return s.history.canRedo() }

// HistoryLen returns the number of snapshots currently retained.
func (s *Store) HistoryLen() int { return s.history.Len() }

// All returns a copy of the entries in start-time order.
func (s *Store) All() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int { return len(s.entries) }

func (s *Store) Get(id int) (Entry, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Entry{}, false
	}
	return s.entries[idx], true
}

// AtTime returns the first entry, in start order, whose span contains t.
// An entry without an end time covers everything after its start.
func (s *Store) AtTime(t float64) (Entry, bool) {
	for _, e := range s.entries {
		if e.StartTime > t {
			continue
		}
		if end, ok := e.EndTime.Value(); !ok || t <= end {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Store) indexOf(id int) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// recompute sorts the entries and rederives end times. Ties on start
// time are never treated as the next entry.
func (s *Store) recompute() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].StartTime < s.entries[j].StartTime
	})

	// index of the first entry with a strictly later start
	next := len(s.entries)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if i+1 < len(s.entries) && s.entries[i+1].StartTime > s.entries[i].StartTime {
			next = i + 1
		}

		e := &s.entries[i]
		if next < len(s.entries) {
			e.EndTime = Derived(math.Max(
				e.StartTime+MinDuration,
				s.entries[next].StartTime-EndTimeOffset,
			))
			continue
		}

		if v, ok := e.EndTime.Value(); ok && e.EndTime.IsExplicit() && validEnd(e.StartTime, v) {
			continue
		}
		e.EndTime = Derived(e.StartTime + DefaultTailDuration)
	}
}
