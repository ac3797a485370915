package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/catalog"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/runlock"
	"scribe/internal/services/textfmt"
	"scribe/internal/services/whisper"
	"scribe/internal/services/ytdlp"
)

func newRunCommand(cctx *commandContext) *cobra.Command {
	var onConflict string
	var onDuplicate string
	var keepDownloads bool

	cmd := &cobra.Command{
		Use:   "run [url|file|folder ...]",
		Short: "Transcribe media files, folders, and URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePolicy("on-conflict", onConflict); err != nil {
				return err
			}
			if err := validatePolicy("on-duplicate", onDuplicate); err != nil {
				return err
			}

			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("keep-downloads") {
				cfg.KeepDownloads = keepDownloads
			}
			logger := cctx.ensureLogger()

			lock := runlock.New(cfg)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("failed to release run lock", logging.Error(err))
				}
			}()

			var recorder pipeline.RunRecorder
			if cfg.History.Enabled {
				store, err := catalog.Open(cfg)
				if err != nil {
					return fmt.Errorf("open history catalog: %w", err)
				}
				defer store.Close()
				recorder = store
			}

			fetcher, err := ytdlp.New(cfg.YtdlpBinary, cfg.Fetch.TimeoutSeconds)
			if err != nil {
				return fmt.Errorf("configure fetcher: %w", err)
			}

			frontend := newRunFrontend(cmd.OutOrStdout(), cmd.InOrStdin(), onConflict, onDuplicate)
			orch, err := pipeline.New(pipeline.Deps{
				Config:      cfg,
				Fetcher:     fetcher,
				Transcriber: whisper.NewService(cfg),
				Formatter:   textfmt.New(),
				Recorder:    recorder,
				Events:      frontend,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			frontend.decider = orch

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)
			go func() {
				if _, ok := <-signals; ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelling; finishing current work...")
					orch.Cancel()
				}
			}()

			summary, err := orch.Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			if summary.Done > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Transcripts written to %s\n", summary.OutputDir)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d items failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&onConflict, "on-conflict", "ask", "Existing output policy: ask, skip, or overwrite")
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", "ask", "Existing download policy: ask, skip, or overwrite")
	cmd.Flags().BoolVar(&keepDownloads, "keep-downloads", false, "Keep media fetched from URLs after transcription")
	return cmd
}

func validatePolicy(flag, value string) error {
	switch value {
	case "ask", "skip", "overwrite":
		return nil
	default:
		return errors.New("--" + flag + " must be ask, skip, or overwrite")
	}
}
