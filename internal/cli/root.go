package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kashi/internal/config"
	"github.com/mgpai22/kashi/internal/editor"
	"github.com/mgpai22/kashi/internal/logging"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kashi",
	Short: "Lyric timing editor and subtitle converter",
	Long: `Kashi is a CLI tool for timing song lyrics against audio.

It keeps timed lyric lines with undo/redo history, imports and exports
SRT, WebVTT, ASS and JSON, and can serve an editing session over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c

		l, err := logging.New(logging.Options{
			Verbose: verbose,
			File:    cfg.LogFile,
		})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default kashi.yaml if present)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language of the lyrics (e.g., english, ja)")
}

// newSession builds an editing session from the loaded config.
func newSession() *editor.Session {
	return editor.NewSession(editor.Options{
		HistorySize:  cfg.HistorySize,
		ProbeTimeout: time.Duration(cfg.Media.ProbeTimeoutSeconds) * time.Second,
		Logger:       logger,
	})
}
