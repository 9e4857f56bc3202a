package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kashi/internal/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input_file] [output_file]",
	Short: "Convert lyrics between subtitle formats",
	Long: `Convert a timed lyric file to another format.

Input formats are detected from the file extension (srt, vtt, ass/ssa,
json). The output format follows the output extension unless --format
is given. Lines are sorted by start time and end times are derived from
the following line, so the output never overlaps.

Examples:
  kashi convert song.srt song.json
  kashi convert song.ass song.vtt
  kashi convert song.json lyrics --format srt`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass, json)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]
	formatStr, _ := cmd.Flags().GetString("format")

	var format subtitle.Format
	if formatStr != "" {
		f, err := subtitle.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		format = f
	}

	sess := newSession()

	n, err := sess.ImportFile(inputPath, true)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", inputPath, err)
	}

	written, err := sess.ExportFile(outputPath, format)
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(written)
	fmt.Fprintf(cmd.OutOrStdout(), "Lyrics converted successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", n)
	return nil
}
