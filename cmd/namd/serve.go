package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"namd/internal/host"
	"namd/internal/httpapi"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		tone       float64
		headless   bool
		saveOnExit bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and the HTTP control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, tone, headless, saveOnExit)
		},
	}
	cmd.Flags().Float64Var(&tone, "tone", 0, "Feed a sine of this frequency in Hz instead of silence")
	cmd.Flags().BoolVar(&headless, "headless", envBool("NAMD_HEADLESS", false), "Do not open an audio device")
	cmd.Flags().BoolVar(&saveOnExit, "save-on-exit", false, "Save state to the configured state file on shutdown")
	return cmd
}

func runServe(ctx context.Context, opts *options, tone float64, headless, saveOnExit bool) error {
	cfg := opts.cfg
	log := opts.log
	st, err := opts.buildStack()
	if err != nil {
		return err
	}
	defer st.eng.Close()

	var src host.Source = host.Silence{}
	if tone > 0 {
		src = host.NewSine(tone, 0.25, float64(cfg.SampleRate))
	}
	var dst host.Sink = host.Discard{}
	if !headless {
		dev, err := host.NewDeviceSink(cfg.SampleRate, cfg.BlockSize)
		if err != nil {
			log.Warn().Err(err).Msg("audio device unavailable; discarding output")
		} else {
			defer dev.Close()
			dst = dev
		}
	}
	if err := st.eng.Start(ctx, src, dst); err != nil {
		return err
	}
	st.restoreOrDefault(opts)
	if cfg.WatchModel {
		if err := st.eng.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("model watcher disabled")
		}
	}

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetBaseContext(ctx)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{"GET", "PUT", "POST", "OPTIONS"},
			[]string{"Content-Type", "X-Log-Level"})
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(st.mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("namd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	if saveOnExit {
		if file, err := st.mgr.SaveState(""); err != nil {
			log.Error().Err(err).Msg("save state failed")
		} else {
			log.Info().Str("file", file).Msg("state saved")
		}
	}
	return nil
}
