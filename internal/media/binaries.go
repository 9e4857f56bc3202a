package media

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Binaries holds resolved ffmpeg and ffprobe executables.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

var (
	locateOnce sync.Once
	located    Binaries
	locateErr  error
)

// Locate resolves ffmpeg and ffprobe once per process. KASHI_FFMPEG_PATH
// and KASHI_FFPROBE_PATH take precedence over PATH lookup.
func Locate() (Binaries, error) {
	locateOnce.Do(func() {
		located, locateErr = locate(os.Getenv, exec.LookPath)
	})
	return located, locateErr
}

func locate(
	getenv func(string) string,
	lookPath func(string) (string, error),
) (Binaries, error) {
	var bins Binaries
	var err error

	if bins.FFmpeg, err = resolve("ffmpeg", getenv("KASHI_FFMPEG_PATH"), lookPath); err != nil {
		return Binaries{}, err
	}
	if bins.FFprobe, err = resolve("ffprobe", getenv("KASHI_FFPROBE_PATH"), lookPath); err != nil {
		return Binaries{}, err
	}
	return bins, nil
}

func resolve(name, override string, lookPath func(string) (string, error)) (string, error) {
	if override != "" {
		return override, nil
	}
	path, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH (set KASHI_%s_PATH): %w",
			name, strings.ToUpper(name), err)
	}
	return path, nil
}
