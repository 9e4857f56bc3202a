package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/asticode/go-astisub"
)

// Advanced SubStation Alpha format
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

type ASSParser struct{}

var assOverrideTags = regexp.MustCompile(`{[^}]*}`)

// writes entries as Dialogue events under a single Default style
func (w *ASSWriter) Write(out io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(out)

	// script info section
	bw.WriteString("[Script Info]\n")
	fmt.Fprintf(bw, "Title: %s\n", w.Title)
	bw.WriteString("ScriptType: v4.00+\n")
	bw.WriteString("Collisions: Normal\n")
	bw.WriteString("PlayDepth: 0\n\n")

	// v4+ styles section
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	// events section
	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, entry := range sortEntries(entries) {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(entry.StartTime),
			formatASSTime(entry.end()),
			escapeASSText(entry.Text))
	}
	return bw.Flush()
}

func (p *ASSParser) Parse(data []byte) ([]Entry, error) {
	content := normalizeText(data)
	s, err := astisub.ReadFromSSA(bytes.NewReader([]byte(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid SSA/ASS: %v", ErrParse, err)
	}
	return fromAstisub(s), nil
}

func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}

// fromAstisub flattens cue lines into newline separated text, dropping
// SSA override blocks.
func fromAstisub(s *astisub.Subtitles) []Entry {
	var entries []Entry
	for _, item := range s.Items {
		var lines []string
		for _, l := range item.Lines {
			text := assOverrideTags.ReplaceAllString(l.String(), "")
			text = strings.ReplaceAll(text, `\N`, "\n")
			text = strings.ReplaceAll(text, `\n`, "\n")
			lines = append(lines, strings.TrimSpace(text))
		}

		entries = keep(entries, Entry{
			StartTime: item.StartAt.Seconds(),
			EndTime:   item.EndAt.Seconds(),
			Text:      strings.Join(lines, "\n"),
		})
	}
	return sortEntries(entries)
}
