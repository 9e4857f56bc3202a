package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/kashi/internal/media"
	"github.com/mgpai22/kashi/internal/subtitle"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,000
first line

2
00:00:04,000 --> 00:00:06,500
second line
`

func withAudio(t *testing.T, s *Session, duration float64) {
	t.Helper()
	s.probe = func(ctx context.Context, path string, timeout time.Duration) (*media.Info, error) {
		return &media.Info{Path: path, Duration: duration, FormatName: "mp3", HasAudio: true}, nil
	}
	_, err := s.LoadAudio(context.Background(), "/music/Night Drive.mp3")
	require.NoError(t, err)
}

func texts(s *Session) []string {
	var out []string
	for _, e := range s.Store().All() {
		out = append(out, e.Text)
	}
	return out
}

func TestNewSession(t *testing.T) {
	a := NewSession(Options{})
	b := NewSession(Options{HistorySize: 5})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "lyrics", a.OutputName())
	assert.Zero(t, a.Store().Len())
}

func TestImport_EmptyStoreIsCleared(t *testing.T) {
	s := NewSession(Options{})
	n, err := s.Import([]byte(sampleSRT), subtitle.FormatSRT, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first line", "second line"}, texts(s))

	// clear + bulk are separate history steps
	require.True(t, s.Store().Undo())
	assert.Zero(t, s.Store().Len())
}

func TestImport_MergeOrReplace(t *testing.T) {
	s := NewSession(Options{})
	s.Store().Add(10, "existing")

	_, err := s.Import([]byte(sampleSRT), subtitle.FormatSRT, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"first line", "second line", "existing"}, texts(s))

	_, err = s.Import([]byte(`[{"startTime": 2, "text": "only"}]`), subtitle.FormatJSON, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, texts(s))
}

func TestImport_Errors(t *testing.T) {
	s := NewSession(Options{})
	s.Store().Add(1, "keep me")

	_, err := s.Import([]byte("[]"), subtitle.FormatJSON, true)
	assert.ErrorIs(t, err, ErrNoEntries)

	_, err = s.Import([]byte("{"), subtitle.FormatJSON, true)
	assert.ErrorIs(t, err, subtitle.ErrParse)

	// a failed import leaves the store alone
	assert.Equal(t, []string{"keep me"}, texts(s))
}

func TestImportFile_SetsOutputName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Blue Hour.srt")
	require.NoError(t, os.WriteFile(path, []byte(sampleSRT), 0644))

	s := NewSession(Options{})
	n, err := s.ImportFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Blue Hour", s.OutputName())
}

func TestExportFile_DefaultsAndExtension(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	s := NewSession(Options{})
	s.Store().Add(1, "hello")

	path, err := s.ExportFile("", subtitle.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "lyrics.json", path)

	path, err = s.ExportFile(filepath.Join(dir, "out", "take2"), subtitle.FormatSRT)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "take2.srt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:02,000\nhello\n\n", string(data))

	path, err = s.ExportFile(filepath.Join(dir, "final.VTT"), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "final.VTT"), path)

	_, err = s.ExportFile(filepath.Join(dir, "noext"), "")
	assert.Error(t, err)
}

func TestExportFile_DefaultsToImportedFormat(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("night.srt", []byte(sampleSRT), 0o644))

	s := NewSession(Options{})
	_, err := s.ImportFile("night.srt", true)
	require.NoError(t, err)

	path, err := s.ExportFile("", "")
	require.NoError(t, err)
	assert.Equal(t, "night.srt", path)

	path, err = s.ExportFile("copy", "")
	require.NoError(t, err)
	assert.Equal(t, "copy.srt", path)

	path, err = s.ExportFile("copy.json", "")
	require.NoError(t, err)
	assert.Equal(t, "copy.json", path)
}

func TestExport_Empty(t *testing.T) {
	s := NewSession(Options{})
	data, err := s.Export(subtitle.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestLoadAudio(t *testing.T) {
	s := NewSession(Options{})
	withAudio(t, s, 180)

	require.NotNil(t, s.Audio())
	assert.Equal(t, 180.0, s.Audio().Duration)
	assert.Equal(t, "Night Drive", s.OutputName())

	_, err := s.LoadAudio(context.Background(), "notes.txt")
	assert.ErrorIs(t, err, media.ErrNotMedia)

	s.probe = func(context.Context, string, time.Duration) (*media.Info, error) {
		return nil, errors.New("ffprobe exploded")
	}
	_, err = s.LoadAudio(context.Background(), "other.mp3")
	assert.ErrorContains(t, err, "ffprobe exploded")
	assert.Equal(t, "Night Drive", s.OutputName())
}

func TestSeek_Clamps(t *testing.T) {
	s := NewSession(Options{})
	assert.Equal(t, 0.0, s.Seek(-3))
	assert.Equal(t, 500.0, s.Seek(500))

	withAudio(t, s, 120)
	assert.Equal(t, 0.0, s.Position())
	assert.Equal(t, 120.0, s.Seek(500))
	assert.Equal(t, 115.0, s.SeekRelative(-5))
	assert.Equal(t, 120.0, s.SeekRelative(5.5))
}

func TestClip(t *testing.T) {
	s := NewSession(Options{})
	a, _ := s.Store().Add(10, "a")
	b, _ := s.Store().Add(119.5, "b")

	_, err := s.Clip(context.Background(), a.ID, "")
	assert.ErrorIs(t, err, ErrNoAudio)

	withAudio(t, s, 120)

	type call struct {
		in, out    string
		start, end float64
	}
	var calls []call
	s.clip = func(ctx context.Context, in, out string, start, end float64) error {
		calls = append(calls, call{in, out, start, end})
		return nil
	}

	out, err := s.Clip(context.Background(), a.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Night Drive_001.wav", out)

	_, err = s.Clip(context.Background(), b.ID, "tail.wav")
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, "/music/Night Drive.mp3", calls[0].in)
	assert.Equal(t, "Night Drive_001.wav", calls[0].out)
	assert.Equal(t, 10.0, calls[0].start)
	assert.InDelta(t, 119.49, calls[0].end, 1e-9)
	// end is clamped to the audio length
	assert.Equal(t, 120.0, calls[1].end)

	_, err = s.Clip(context.Background(), 999, "")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	s := NewSession(Options{})
	assert.Equal(t, Stats{}, s.Stats())

	s.Store().Add(2, "I walked along the empty street tonight")
	s.Store().Add(5, "Thinking of the words you never said to me")
	s.Store().Add(130, "And every light was fading into grey")
	withAudio(t, s, 120)

	st := s.Stats()
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 2.0, st.FirstTime)
	assert.Equal(t, 131.0, st.LastTime)
	assert.True(t, st.Detected)
	assert.Equal(t, "eng", st.Language.Code)
	assert.Equal(t, 120.0, st.AudioDuration)
	assert.Equal(t, 1, st.PastAudioEnd)
	assert.True(t, st.CanUndo)
	assert.False(t, st.CanRedo)
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"/a/b/song.mp3":   "song",
		"song.final.srt":  "song.final",
		"noext":           "noext",
		".hidden":         ".hidden",
		"/":               "lyrics",
		"dir/with space.": "with space",
	}
	for in, want := range tests {
		t.Run(strings.ReplaceAll(in, "/", "_"), func(t *testing.T) {
			assert.Equal(t, want, baseName(in))
		})
	}
}
