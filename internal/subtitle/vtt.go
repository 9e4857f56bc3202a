package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/asticode/go-astisub"
)

// WebVTT format
type VTTWriter struct{}

type VTTParser struct{}

// writes entries with a WEBVTT header and numbered cues
func (w *VTTWriter) Write(out io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(out)

	// VTT header
	bw.WriteString("WEBVTT\n\n")

	for i, entry := range sortEntries(entries) {
		// optional cue identifier
		fmt.Fprintf(bw, "%d\n", i+1)

		// timestamps: 00:00:00.000 --> 00:00:00.000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.end()))

		// text
		bw.WriteString(entry.Text)
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

func (p *VTTParser) Parse(data []byte) ([]Entry, error) {
	content := normalizeText(data)
	s, err := astisub.ReadFromWebVTT(bytes.NewReader([]byte(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid WebVTT: %v", ErrParse, err)
	}
	return fromAstisub(s), nil
}
