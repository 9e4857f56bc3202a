package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kashi/internal/editor"
	"github.com/mgpai22/kashi/internal/lyric"
	"github.com/mgpai22/kashi/internal/subtitle"
)

var editCmd = &cobra.Command{
	Use:   "edit [lyrics_file]",
	Short: "Edit lyric timings interactively",
	Long: `Open a line-oriented lyric editor on standard input.

An optional lyrics file is imported first and an optional audio file
sets the timing reference for seek and clip. Times may be written as
seconds (12.5), mm:ss.mmm or hh:mm:ss,mmm. A line's text may contain
\n for a line break. Type "help" for the list of commands.

Examples:
  kashi edit song.srt
  kashi edit --audio song.mp3
  kashi edit song.json --audio song.flac`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().
		StringP("audio", "a", "", "Audio or video file to time against")
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	audioPath, _ := cmd.Flags().GetString("audio")

	sess := newSession()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		n, err := sess.ImportFile(args[0], true)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", args[0], err)
		}
		fmt.Fprintf(out, "Loaded %d lines from %s\n", n, args[0])
	}
	if audioPath != "" {
		info, err := sess.LoadAudio(ctx, audioPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Audio: %s (%s)\n", audioPath, formatClock(info.Duration))
	}

	r := &repl{ctx: ctx, sess: sess, out: out}
	return r.run(cmd.InOrStdin())
}

var errQuit = errors.New("quit")

type repl struct {
	ctx  context.Context
	sess *editor.Session
	out  io.Writer

	// set while reading lines for "bulk"
	bulk []lyric.RawEntry
	// true while a bulk block is open
	inBulk bool
}

func (r *repl) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	r.prompt()
	for scanner.Scan() {
		err := r.exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		r.prompt()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (r *repl) prompt() {
	if r.inBulk {
		fmt.Fprint(r.out, "... ")
		return
	}
	fmt.Fprint(r.out, "> ")
}

func (r *repl) exec(line string) error {
	if r.inBulk {
		return r.bulkLine(line)
	}

	name, rest := cut(line)
	store := r.sess.Store()

	switch strings.ToLower(name) {
	case "":
		return nil

	case "add":
		at, text := cut(rest)
		start, err := r.timeArg(at)
		if err != nil {
			return err
		}
		e, ok := store.Add(start, unescape(text))
		if !ok {
			return fmt.Errorf("line needs text and a non-negative start time")
		}
		fmt.Fprintf(r.out, "added %d at %s\n", e.ID, formatClock(e.StartTime))

	case "bulk":
		r.inBulk = true
		r.bulk = []lyric.RawEntry{}
		fmt.Fprintln(r.out, `enter "<time> <text>" lines, finish with "."`)

	case "update":
		return r.update(rest)

	case "delete", "rm":
		id, err := idArg(rest)
		if err != nil {
			return err
		}
		if !store.Delete(id) {
			return fmt.Errorf("no lyric with id %d", id)
		}
		fmt.Fprintf(r.out, "deleted %d\n", id)

	case "clear":
		store.Clear()
		fmt.Fprintln(r.out, "cleared")

	case "undo":
		if !store.Undo() {
			return fmt.Errorf("nothing to undo")
		}
		fmt.Fprintf(r.out, "undone, %d lines\n", store.Len())

	case "redo":
		if !store.Redo() {
			return fmt.Errorf("nothing to redo")
		}
		fmt.Fprintf(r.out, "redone, %d lines\n", store.Len())

	case "at":
		t := r.sess.Position()
		if rest != "" {
			v, err := parseClock(rest)
			if err != nil {
				return err
			}
			t = v
		}
		e, ok := store.AtTime(t)
		if !ok {
			fmt.Fprintf(r.out, "nothing at %s\n", formatClock(t))
			return nil
		}
		printEntry(r.out, e)

	case "list", "ls":
		entries := store.All()
		if len(entries) == 0 {
			fmt.Fprintln(r.out, "no lines")
		}
		for _, e := range entries {
			printEntry(r.out, e)
		}

	case "seek":
		return r.seek(rest)

	case "export":
		format, err := subtitle.ParseFormat(strings.TrimSpace(rest))
		if err != nil {
			return err
		}
		data, err := r.sess.Export(format)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, strings.TrimRight(string(data), "\n"))

	case "save":
		path, err := r.sess.ExportFile(strings.TrimSpace(rest), "")
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "saved %s\n", path)

	case "clip":
		idStr, out := cut(rest)
		id, err := idArg(idStr)
		if err != nil {
			return err
		}
		path, err := r.sess.Clip(r.ctx, id, strings.TrimSpace(out))
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "clip written to %s\n", path)

	case "help", "?":
		fmt.Fprint(r.out, editHelp)

	case "quit", "exit", "q":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (type help)", name)
	}
	return nil
}

func (r *repl) bulkLine(line string) error {
	if strings.TrimSpace(line) == "." {
		raw := r.bulk
		r.inBulk = false
		r.bulk = nil
		n := r.sess.Store().AddBulk(raw)
		fmt.Fprintf(r.out, "added %d of %d lines\n", n, len(raw))
		return nil
	}

	at, text := cut(line)
	if at == "" {
		return nil
	}
	start, err := parseClock(at)
	if err != nil {
		return err
	}
	r.bulk = append(r.bulk, lyric.RawEntry{StartTime: start, Text: unescape(text)})
	return nil
}

func (r *repl) update(args string) error {
	idStr, rest := cut(args)
	id, err := idArg(idStr)
	if err != nil {
		return err
	}
	field, value := cut(rest)

	var p lyric.Patch
	switch strings.ToLower(field) {
	case "start":
		v, err := r.timeArg(value)
		if err != nil {
			return err
		}
		p.StartTime = &v
	case "end":
		v, err := r.timeArg(value)
		if err != nil {
			return err
		}
		p.EndTime = &v
	case "text":
		text := unescape(value)
		p.Text = &text
	default:
		return fmt.Errorf("usage: update <id> start|end|text <value>")
	}

	if _, ok := r.sess.Store().Get(id); !ok {
		return fmt.Errorf("no lyric with id %d", id)
	}
	if !r.sess.Store().Update(id, p) {
		return fmt.Errorf("update is invalid or changes nothing")
	}
	e, _ := r.sess.Store().Get(id)
	printEntry(r.out, e)
	return nil
}

func (r *repl) seek(arg string) error {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		fmt.Fprintf(r.out, "at %s\n", formatClock(r.sess.Position()))
		return nil
	}

	var pos float64
	if arg[0] == '+' || arg[0] == '-' {
		delta, err := parseClock(arg[1:])
		if err != nil {
			return err
		}
		if arg[0] == '-' {
			delta = -delta
		}
		pos = r.sess.SeekRelative(delta)
	} else {
		t, err := parseClock(arg)
		if err != nil {
			return err
		}
		pos = r.sess.Seek(t)
	}
	fmt.Fprintf(r.out, "at %s\n", formatClock(pos))
	return nil
}

// timeArg parses a time, where "." or an empty value means the playhead.
func (r *repl) timeArg(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return r.sess.Position(), nil
	}
	return parseClock(s)
}

const editHelp = `commands:
  add <time> <text>               add a line (time "." uses the playhead)
  bulk                            add many "<time> <text>" lines as one step
  update <id> start|end|text <v>  change one field of a line
  delete <id>                     remove a line
  clear                           remove every line
  undo, redo                      step through history
  at [time]                       show the line playing at time
  list                            show every line
  seek [time|+sec|-sec]           move the playhead
  export <format>                 print as srt, vtt, ass or json
  save [path]                     write to a file (format from extension)
  clip <id> [path]                cut the audio under a line
  help                            show this help
  quit                            leave the editor
`

func printEntry(w io.Writer, e lyric.Entry) {
	end := formatClock(e.End())
	if e.EndTime.IsExplicit() {
		end += "*"
	}
	text := strings.ReplaceAll(e.Text, "\n", `\n`)
	fmt.Fprintf(w, "%4d  %s --> %-10s  %s\n", e.ID, formatClock(e.StartTime), end, text)
}

// cut splits off the first whitespace separated word.
func cut(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func idArg(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// parseClock reads seconds, mm:ss(.fff) or hh:mm:ss(.fff). A comma may
// stand in for the decimal point.
func parseClock(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, fmt.Errorf("missing time")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if i < len(parts)-1 && v != float64(int(v)) {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

// formatClock renders seconds as mm:ss.mmm, with hours when needed.
func formatClock(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	sec := (ms % 60000) / 1000
	ms %= 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, sec, ms)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, sec, ms)
}
