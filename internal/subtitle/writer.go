package subtitle

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "Kashi Lyrics",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	case FormatJSON:
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatSRT:
		return &SRTParser{}, nil
	case FormatVTT:
		return &VTTParser{}, nil
	case FormatASS:
		return &ASSParser{}, nil
	case FormatJSON:
		return &JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Marshal serializes entries in the given format.
func Marshal(format Format, entries []Entry) ([]byte, error) {
	w, err := NewWriter(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := w.Write(&buf, entries); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses data in the given format.
func Unmarshal(format Format, data []byte) ([]Entry, error) {
	p, err := NewParser(format)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// seconds to a duration rounded to the millisecond
func toDuration(seconds float64) time.Duration {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return 0
	}
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}

func formatSRTTime(seconds float64) string {
	d := toDuration(seconds)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

func formatVTTTime(seconds float64) string {
	d := toDuration(seconds)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}

func formatASSTime(seconds float64) string {
	d := toDuration(seconds)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ParseFormat accepts a format name or extension such as "srt" or ".SRT".
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// format based on file extension
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot determine format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// file extension for a format
func ExtensionFor(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatJSON:
		return ".json"
	default:
		return ".srt"
	}
}
