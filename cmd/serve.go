package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizdoc/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := openDeps(ctx, cmd)
		if err != nil {
			return err
		}
		defer d.close()

		addr := d.cfg.HTTP.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}

		opts := api.Options{
			Importer:       d.importer,
			Quizzes:        d.store.QuizRepo(),
			CORSOrigins:    d.cfg.HTTP.CORSOrigins,
			RequestTimeout: d.cfg.HTTP.RequestTimeout,
			MaxBodyBytes:   int64(d.cfg.Parser.MaxInputBytes) * 2,
			Log:            d.log,
		}
		if d.cfg.HTTP.RequireAuth {
			opts.Auth = api.NewAuth(d.cfg.HTTP.JWTSecret)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			d.log.Info("listening", "addr", addr, "auth", opts.Auth != nil, "generation", d.importer.CanGenerate())
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		d.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
