// Package media probes audio files and cuts preview clips with ffmpeg.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const DefaultProbeTimeout = 30 * time.Second

// audio/video file information
type Info struct {
	Path       string
	Duration   float64 // seconds
	FormatName string
	BitRate    int64
	HasAudio   bool
	HasVideo   bool
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Probe reads the container metadata of path with the located ffprobe.
// The timeout is shortened to the context deadline when that comes first.
func Probe(ctx context.Context, path string, timeout time.Duration) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bins, err := Locate()
	if err != nil {
		return nil, err
	}
	return runProbe(ctx, bins.FFprobe, path, timeout)
}

func runProbe(ctx context.Context, ffprobePath, path string, timeout time.Duration) (*Info, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := probeCommand(ctx, ffprobePath, path)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffprobe failed: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffprobe failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbe(out.Bytes())
	if err != nil {
		return nil, err
	}
	info.Path = path
	return info, nil
}

func probeCommand(ctx context.Context, ffprobePath, path string) *exec.Cmd {
	return exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
}

func parseProbe(data []byte) (*Info, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}

	info := &Info{
		Duration:   duration,
		FormatName: probe.Format.FormatName,
	}
	if probe.Format.BitRate != "" {
		info.BitRate, _ = strconv.ParseInt(probe.Format.BitRate, 10, 64)
	}
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "audio":
			info.HasAudio = true
		case "video":
			info.HasVideo = true
		}
	}
	return info, nil
}

// ExtractClip copies the [start, end) span of the input's audio track to
// outputPath, re-encoding by the output extension.
func ExtractClip(ctx context.Context, inputPath, outputPath string, start, end float64) error {
	if start < 0 || end <= start {
		return fmt.Errorf("invalid clip range %.3f-%.3f", start, end)
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	bins, err := Locate()
	if err != nil {
		return err
	}

	cmd := clipStream(inputPath, outputPath, start, end, bins.FFmpeg).Compile()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("clip extraction failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		_ = os.Remove(outputPath)
		return ctx.Err()
	}
}

func clipStream(inputPath, outputPath string, start, end float64, ffmpegPath string) *ffmpeg.Stream {
	kwargs := ffmpeg.KwArgs{
		"t":  strconv.FormatFloat(end-start, 'f', 3, 64),
		"vn": "", // No video
	}

	return ffmpeg.Input(inputPath, ffmpeg.KwArgs{"ss": strconv.FormatFloat(start, 'f', 3, 64)}).
		Output(outputPath, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath)
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".m4a":  true,
	".wma":  true,
	".aiff": true,
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// checks if the file is either audio or video
func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

// ErrNotMedia is returned for files whose extension is not a known
// audio or video type.
var ErrNotMedia = errors.New("not an audio or video file")

// CheckMediaFile returns ErrNotMedia unless path looks like audio or video.
func CheckMediaFile(path string) error {
	if !IsMediaFile(path) {
		return fmt.Errorf("%w: %s", ErrNotMedia, filepath.Base(path))
	}
	return nil
}
