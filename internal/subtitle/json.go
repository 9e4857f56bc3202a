package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// JSON array of {startTime, endTime, text}
type JSONWriter struct{}

type JSONParser struct{}

// leading decimal number of a string such as "12.5s"
var jsonNumericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

func (w *JSONWriter) Write(out io.Writer, entries []Entry) error {
	sorted := sortEntries(entries)
	for i := range sorted {
		sorted[i].EndTime = sorted[i].end()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sorted); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	_, err := out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return err
}

// Parse accepts a top-level array. Items that are not objects, lack a
// usable startTime or have empty text are skipped. A missing or unusable
// endTime becomes startTime + 1.
func (p *JSONParser) Parse(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace([]byte(normalizeText(data)))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty JSON input", ErrParse)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON array: %v", ErrParse, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrParse)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}

		start, ok := jsonNumber(obj["startTime"])
		if !ok {
			continue
		}
		end, ok := jsonNumber(obj["endTime"])
		if !ok || !(end > start) {
			end = start + 1
		}

		entries = keep(entries, Entry{
			StartTime: start,
			EndTime:   end,
			Text:      jsonText(obj["text"]),
		})
	}

	return sortEntries(entries), nil
}

// jsonNumber reads a finite number. Strings are accepted when they start
// with a decimal number, and anything after it is ignored.
func jsonNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		num := jsonNumericPrefix.FindString(strings.TrimSpace(s))
		if num == "" {
			return 0, false
		}
		v, err = strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// jsonText returns strings as is and other scalars in their literal form.
func jsonText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	lit := string(bytes.TrimSpace(raw))
	if lit == "null" || strings.HasPrefix(lit, "{") || strings.HasPrefix(lit, "[") {
		return ""
	}
	return lit
}
