package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"scribe/internal/download"
	"scribe/internal/media"
	"scribe/internal/pipeline"
	"scribe/internal/services/ytdlp"
)

func newDownloadCommand(cctx *commandContext) *cobra.Command {
	var format string
	var destDir string
	var onDuplicate string

	cmd := &cobra.Command{
		Use:   "download <url> [url ...]",
		Short: "Download media without transcribing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePolicy("on-duplicate", onDuplicate); err != nil {
				return err
			}

			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := cctx.ensureLogger()

			dest := destDir
			if dest == "" {
				dest = cfg.DownloadDir
			}
			prefs := media.FormatPrefs{Format: format}
			if prefs.Format == "" {
				prefs.Format = cfg.Fetch.Format
			}

			bar := progressbar.NewOptions(100,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("downloading"),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
			fetcher, err := ytdlp.New(cfg.YtdlpBinary, cfg.Fetch.TimeoutSeconds,
				ytdlp.WithProgress(func(percent float64) { _ = bar.Set(int(percent)) }),
			)
			if err != nil {
				return fmt.Errorf("configure fetcher: %w", err)
			}

			frontend := newRunFrontend(cmd.OutOrStdout(), cmd.InOrStdin(), "ask", onDuplicate)
			token := pipeline.NewToken()
			rendezvous := pipeline.NewRendezvous(frontend, token, rendezvousTimeout(cfg.Workflow.RendezvousTimeoutSeconds))
			frontend.decider = rendezvousDecider{rendezvous}

			resolver := download.New(fetcher, rendezvous, token, logger)

			var failed int
			for _, rawURL := range args {
				path, err := resolver.Download(cmd.Context(), rawURL, dest, prefs)
				_ = bar.Finish()
				switch {
				case errors.Is(err, download.ErrSkipped):
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s\n", rawURL)
				case err != nil:
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed %s: %v\n", rawURL, err)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s (%s)\n", path, fileSize(path))
				}
				bar.Reset()
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "yt-dlp format selector (defaults to the configured format)")
	cmd.Flags().StringVarP(&destDir, "dest", "d", "", "Destination directory (defaults to the configured download_dir)")
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", "ask", "Existing download policy: ask, skip, or overwrite")
	return cmd
}

// rendezvousDecider routes frontend answers straight to a standalone
// rendezvous, outside any orchestrator run.
type rendezvousDecider struct {
	rendezvous *pipeline.Rendezvous
}

func (d rendezvousDecider) DecideConflict(decision pipeline.ConflictDecision) bool {
	return d.rendezvous.DecideConflict(decision)
}

func (d rendezvousDecider) DecideDuplicate(decision pipeline.DuplicateDecision) bool {
	return d.rendezvous.DecideDuplicate(decision)
}

func rendezvousTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = 15
	}
	return time.Duration(seconds) * time.Second
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(info.Size()))
}
