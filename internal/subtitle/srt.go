package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// SubRip format
type SRTWriter struct{}

type SRTParser struct{}

var (
	srtBlockSep  = regexp.MustCompile(`\n\s*\n`)
	srtTimeRange = regexp.MustCompile(
		`(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`,
	)
)

// writes entries as numbered SRT blocks
func (w *SRTWriter) Write(out io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(out)
	for i, entry := range sortEntries(entries) {
		// index (1-based)
		fmt.Fprintf(bw, "%d\n", i+1)

		// timestamps: 00:00:00,000 --> 00:00:00,000
		fmt.Fprintf(bw, "%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.end()))

		// text
		bw.WriteString(entry.Text)
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

// Parse reads blank-line separated blocks. Blocks with fewer than three
// lines or a malformed time range are skipped.
func (p *SRTParser) Parse(data []byte) ([]Entry, error) {
	content := normalizeText(data)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty SRT input", ErrParse)
	}

	var entries []Entry
	for _, block := range srtBlockSep.Split(strings.TrimSpace(content), -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		m := srtTimeRange.FindStringSubmatch(lines[1])
		if m == nil {
			continue
		}
		start, err := parseSRTTimestamp(m[1], m[2], m[3], m[4])
		if err != nil {
			continue
		}
		end, err := parseSRTTimestamp(m[5], m[6], m[7], m[8])
		if err != nil {
			continue
		}

		entries = keep(entries, Entry{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(lines[2:], "\n"),
		})
	}

	return sortEntries(entries), nil
}

func parseSRTTimestamp(hours, minutes, seconds, millis string) (float64, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}

	return float64(h*3600+m*60+s) + float64(ms)/1000, nil
}

// strips a UTF-8 BOM and normalises line endings
func normalizeText(data []byte) string {
	s := strings.TrimPrefix(string(data), "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
