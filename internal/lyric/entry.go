package lyric

import (
	"encoding/json"
	"math"
	"strings"
)

const (
	// gap left before the next entry's start when deriving an end time
	EndTimeOffset = 0.01

	// smallest allowed distance between start and end
	MinDuration = 0.01

	// end time given to the last entry when nothing pins it
	DefaultTailDuration = 1.0

	DefaultHistorySize = 50
)

type endKind uint8

const (
	endUnset endKind = iota
	endDerived
	endExplicit
)

// EndTime is an optional end time that remembers whether it was pinned
// by the user (or an import) or derived from the next entry.
type EndTime struct {
	kind    endKind
	seconds float64
}

func Unset() EndTime { return EndTime{} }

func Explicit(seconds float64) EndTime {
	return EndTime{kind: endExplicit, seconds: seconds}
}

func Derived(seconds float64) EndTime {
	return EndTime{kind: endDerived, seconds: seconds}
}

func (e EndTime) IsSet() bool      { return e.kind != endUnset }
func (e EndTime) IsExplicit() bool { return e.kind == endExplicit }

// Value returns the end time in seconds and whether one is set.
func (e EndTime) Value() (float64, bool) {
	return e.seconds, e.kind != endUnset
}

// Or returns the end time, or fallback when unset.
func (e EndTime) Or(fallback float64) float64 {
	if e.kind == endUnset {
		return fallback
	}
	return e.seconds
}

func (e EndTime) MarshalJSON() ([]byte, error) {
	if e.kind == endUnset {
		return []byte("null"), nil
	}
	return json.Marshal(e.seconds)
}

// Entry is one timed lyric line.
type Entry struct {
	ID        int     `json:"id"`
	StartTime float64 `json:"startTime"`
	EndTime   EndTime `json:"endTime"`
	Text      string  `json:"text"`
}

// End returns the end time, defaulting to one second after start.
func (e Entry) End() float64 {
	return e.EndTime.Or(e.StartTime + DefaultTailDuration)
}

// RawEntry is an unvalidated entry handed to AddBulk by importers.
type RawEntry struct {
	StartTime float64
	EndTime   *float64
	Text      string
}

// Patch lists the fields Update should change. Nil fields are left alone.
type Patch struct {
	StartTime *float64
	Text      *string
	EndTime   *float64
}

func validStart(t float64) bool {
	return !math.IsNaN(t) && !math.IsInf(t, 0) && t >= 0
}

// validEnd reports whether end leaves at least MinDuration after start.
func validEnd(start, end float64) bool {
	return finite(end) && end >= start+MinDuration
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cleanText(s string) string {
	return strings.TrimSpace(s)
}
