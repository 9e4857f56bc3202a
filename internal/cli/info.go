package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [lyrics_file]",
	Short: "Show a summary of a lyrics file",
	Long: `Print the number of lines, the time span and the detected language
of a lyrics file. With --audio the lines are checked against the audio
length.

Examples:
  kashi info song.srt
  kashi info song.json --audio song.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().
		StringP("audio", "a", "", "Audio or video file to compare against")
}

func runInfo(cmd *cobra.Command, args []string) error {
	audioPath, _ := cmd.Flags().GetString("audio")

	sess := newSession()
	if _, err := sess.ImportFile(args[0], true); err != nil {
		return fmt.Errorf("failed to import %s: %w", args[0], err)
	}
	if audioPath != "" {
		if _, err := sess.LoadAudio(context.Background(), audioPath); err != nil {
			return err
		}
	}

	st := sess.Stats()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "File: %s\n", args[0])
	fmt.Fprintf(out, "  Lines: %d\n", st.Count)
	fmt.Fprintf(out, "  Span: %s --> %s\n", formatClock(st.FirstTime), formatClock(st.LastTime))
	if st.Detected {
		reliable := ""
		if !st.Language.Reliable {
			reliable = ", low confidence"
		}
		fmt.Fprintf(out, "  Language: %s (%s%s)\n", st.Language.Name, st.Language.Code, reliable)
	}
	if audioPath != "" {
		fmt.Fprintf(out, "  Audio: %s\n", formatClock(st.AudioDuration))
		if st.PastAudioEnd > 0 {
			fmt.Fprintf(out, "  Lines past the end of the audio: %d\n", st.PastAudioEnd)
		}
	}
	return nil
}
