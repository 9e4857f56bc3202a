package subtitle

import (
	"fmt"
	"os"

	"github.com/mgpai22/kashi/internal/charset"
)

// Open reads a subtitle file of any supported format, converting it to
// UTF-8 first. The format is chosen by extension.
func Open(path string) ([]Entry, Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err = charset.ToUTF8(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	entries, err := Unmarshal(format, data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return entries, format, nil
}

// Save writes entries to path, creating parent directories.
func Save(path string, format Format, entries []Entry) error {
	data, err := Marshal(format, entries)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
