// Package editor ties a lyric store to files, audio and translation for
// one editing session.
package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/kashi/internal/logging"
	"github.com/mgpai22/kashi/internal/lyric"
	"github.com/mgpai22/kashi/internal/media"
	"github.com/mgpai22/kashi/internal/subtitle"
)

const defaultOutputName = "lyrics"

// ErrNoEntries is returned when an import yields no usable lines.
var ErrNoEntries = errors.New("no lyric lines found")

// ErrNoAudio is returned by operations that need a loaded audio file.
var ErrNoAudio = errors.New("no audio loaded")

type Options struct {
	HistorySize  int
	ProbeTimeout time.Duration
	Logger       *logging.Logger
}

type probeFunc func(ctx context.Context, path string, timeout time.Duration) (*media.Info, error)

type clipFunc func(ctx context.Context, in, out string, start, end float64) error

// Session is not safe for concurrent use.
type Session struct {
	ID string

	store        *lyric.Store
	logger       *logging.Logger
	outputName   string
	format       subtitle.Format // of the last imported file
	audio        *media.Info
	position     float64
	probeTimeout time.Duration

	probe probeFunc
	clip  clipFunc
}

func NewSession(opts Options) *Session {
	historySize := opts.HistorySize
	if historySize == 0 {
		historySize = lyric.DefaultHistorySize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	id := uuid.NewString()
	return &Session{
		ID:           id,
		store:        lyric.NewStore(lyric.WithHistorySize(historySize)),
		logger:       logger.With("session", id),
		outputName:   defaultOutputName,
		probeTimeout: opts.ProbeTimeout,
		probe:        media.Probe,
		clip:         media.ExtractClip,
	}
}

// Store exposes the underlying lyric store.
func (s *Session) Store() *lyric.Store { return s.store }

// OutputName is the base name used for exports without an explicit path.
func (s *Session) OutputName() string { return s.outputName }

// Import parses data and adds its lines. The store is cleared first when
// replace is set or when it is empty. It returns the number of lines
// added.
func (s *Session) Import(data []byte, format subtitle.Format, replace bool) (int, error) {
	entries, err := subtitle.Unmarshal(format, data)
	if err != nil {
		return 0, err
	}
	return s.load(entries, format, replace)
}

// ImportFile is Import for a file on disk; the file's base name becomes
// the default output name.
func (s *Session) ImportFile(path string, replace bool) (int, error) {
	entries, format, err := subtitle.Open(path)
	if err != nil {
		return 0, err
	}

	n, err := s.load(entries, format, replace)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	s.outputName = baseName(path)
	s.format = format
	return n, nil
}

func (s *Session) load(entries []subtitle.Entry, format subtitle.Format, replace bool) (int, error) {
	if len(entries) == 0 {
		return 0, ErrNoEntries
	}

	if replace || s.store.Len() == 0 {
		s.store.Clear()
	}
	added := s.store.AddBulk(subtitle.ToRaw(entries))

	s.logger.Infow("Imported lyrics",
		"format", format,
		"parsed", len(entries),
		"added", added,
		"replace", replace,
		"total", s.store.Len(),
	)
	return added, nil
}

// Export serializes the current lines.
func (s *Session) Export(format subtitle.Format) ([]byte, error) {
	return subtitle.Marshal(format, subtitle.FromLyrics(s.store.All()))
}

// ExportFile writes the current lines and returns the path written. An
// empty path uses the output name; a missing extension is appended. An
// empty format is taken from the path, or from the last imported file
// when the path has no extension.
func (s *Session) ExportFile(path string, format subtitle.Format) (string, error) {
	if path == "" {
		path = s.outputName
	}
	if format == "" && filepath.Ext(path) == "" && s.format != "" {
		format = s.format
	}
	if format == "" {
		f, err := subtitle.FormatFromPath(path)
		if err != nil {
			return "", err
		}
		format = f
	}

	ext := subtitle.ExtensionFor(format)
	if !strings.EqualFold(filepath.Ext(path), ext) {
		path += ext
	}

	if err := subtitle.Save(path, format, subtitle.FromLyrics(s.store.All())); err != nil {
		return "", err
	}

	s.logger.Infow("Exported lyrics",
		"path", path,
		"format", format,
		"entries", s.store.Len(),
	)
	return path, nil
}

// LoadAudio probes an audio or video file and makes it the session's
// timing reference.
func (s *Session) LoadAudio(ctx context.Context, path string) (*media.Info, error) {
	if err := media.CheckMediaFile(path); err != nil {
		return nil, err
	}

	info, err := s.probe(ctx, path, s.probeTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio: %w", err)
	}
	if info.Path == "" {
		info.Path = path
	}

	s.audio = info
	s.position = 0
	s.outputName = baseName(path)

	s.logger.Infow("Loaded audio",
		"path", path,
		"duration", info.Duration,
		"format", info.FormatName,
	)
	return info, nil
}

// Audio returns the loaded audio metadata, or nil.
func (s *Session) Audio() *media.Info { return s.audio }

func (s *Session) Position() float64 { return s.position }

// Seek moves the playhead, clamped to the audio length when audio is
// loaded and to zero otherwise.
func (s *Session) Seek(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if s.audio != nil && t > s.audio.Duration {
		t = s.audio.Duration
	}
	s.position = t
	return t
}

// SeekRelative moves the playhead by delta seconds.
func (s *Session) SeekRelative(delta float64) float64 {
	return s.Seek(s.position + delta)
}

// Clip cuts the audio under one line to out. An empty out names the clip
// after the output name and entry id.
func (s *Session) Clip(ctx context.Context, id int, out string) (string, error) {
	if s.audio == nil {
		return "", ErrNoAudio
	}
	e, ok := s.store.Get(id)
	if !ok {
		return "", fmt.Errorf("no lyric with id %d", id)
	}

	start, end := e.StartTime, e.End()
	if end > s.audio.Duration {
		end = s.audio.Duration
	}
	if start >= end {
		return "", fmt.Errorf("lyric %d starts after the audio ends (%.3fs)", id, s.audio.Duration)
	}

	if out == "" {
		out = fmt.Sprintf("%s_%03d.wav", s.outputName, id)
	}
	if err := s.clip(ctx, s.audio.Path, out, start, end); err != nil {
		return "", err
	}

	s.logger.Debugw("Extracted clip", "id", id, "path", out, "start", start, "end", end)
	return out, nil
}

func baseName(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" && len(name) > len(ext) {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return defaultOutputName
	}
	return name
}
