// Package subtitle imports and exports timed lyric lines as subtitle
// files.
package subtitle

import (
	"errors"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/mgpai22/kashi/internal/lyric"
)

// ErrParse is wrapped by every top-level import failure.
var ErrParse = errors.New("parse error")

// represents single timed line, times in seconds
type Entry struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
}

// end time, or one second after start when missing or not after start
func (e Entry) end() float64 {
	if e.EndTime <= e.StartTime || math.IsNaN(e.EndTime) || math.IsInf(e.EndTime, 0) {
		return e.StartTime + lyric.DefaultTailDuration
	}
	return e.EndTime
}

// represents supported formats
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatASS  Format = "ass"
	FormatJSON Format = "json"
)

// interface for serializing entries
type Writer interface {
	Write(w io.Writer, entries []Entry) error
}

// interface for parsing file contents into entries
type Parser interface {
	Parse(data []byte) ([]Entry, error)
}

// FromLyrics converts store entries for export.
func FromLyrics(entries []lyric.Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{
			StartTime: e.StartTime,
			EndTime:   e.End(),
			Text:      e.Text,
		})
	}
	return out
}

// ToRaw converts parsed entries into store input.
func ToRaw(entries []Entry) []lyric.RawEntry {
	out := make([]lyric.RawEntry, 0, len(entries))
	for _, e := range entries {
		end := e.EndTime
		out = append(out, lyric.RawEntry{
			StartTime: e.StartTime,
			EndTime:   &end,
			Text:      e.Text,
		})
	}
	return out
}

// keep appends e when it is a usable line.
func keep(out []Entry, e Entry) []Entry {
	e.Text = strings.TrimSpace(e.Text)
	if e.Text == "" || !(e.StartTime >= 0) || math.IsInf(e.StartTime, 0) {
		return out
	}
	if !(e.EndTime > e.StartTime) || math.IsInf(e.EndTime, 0) {
		return out
	}
	return append(out, e)
}

func sortEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})
	return sorted
}
