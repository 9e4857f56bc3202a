package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kashi/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve [lyrics_file]",
	Short: "Serve an editing session over HTTP",
	Long: `Start an HTTP API over a lyric editing session.

Every change to the lyrics is pushed to WebSocket clients on /ws. With
--watch the given file is imported and reloaded whenever it is saved.

Examples:
  kashi serve
  kashi serve song.srt --addr :8787
  kashi serve --watch song.json --audio song.mp3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("addr", "", "Listen address (default from config, 127.0.0.1:8787)")
	serveCmd.Flags().
		StringP("watch", "w", "", "Lyrics file to import and reload on change")
	serveCmd.Flags().
		StringP("audio", "a", "", "Audio or video file to time against")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	watchPath, _ := cmd.Flags().GetString("watch")
	audioPath, _ := cmd.Flags().GetString("audio")

	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := newSession()

	paths := append([]string{}, args...)
	for _, path := range append(paths, watchPath) {
		if path == "" {
			continue
		}
		n, err := sess.ImportFile(path, true)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		logger.Infow("Loaded lyrics", "path", path, "entries", n)
	}

	if audioPath != "" {
		if _, err := sess.LoadAudio(ctx, audioPath); err != nil {
			return err
		}
	}

	srv := server.New(sess, logger)

	if watchPath != "" {
		go func() {
			if err := srv.Watch(ctx, watchPath); err != nil {
				logger.Errorw("File watcher stopped", "path", watchPath, "error", err)
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving lyrics on http://%s (session %s)\n", addr, sess.ID)
	return srv.ListenAndServe(ctx, addr)
}
