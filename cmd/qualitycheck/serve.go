package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/api"
	"github.com/RobinCoderZhao/newsquality/internal/scheduler"
	"github.com/RobinCoderZhao/newsquality/internal/store"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	var interval time.Duration
	var schedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, optionally running the pipeline on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			cfg := a.cfg
			if addr != "" {
				cfg.API.Addr = addr
			}
			if cmd.Flags().Changed("interval") {
				cfg.Pipeline.Interval = interval
				schedule = true
			}

			ctx := cmd.Context()
			st, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if schedule && cfg.Pipeline.Interval > 0 {
				p, err := buildPipeline(cfg, st, a.logger)
				if err != nil {
					return err
				}
				sched := scheduler.New(cfg.Pipeline.Interval, a.logger)
				sched.Add(scheduler.Job{Name: "quality-pipeline", Fn: func(ctx context.Context) error {
					_, err := p.Run(ctx)
					return err
				}})
				go func() {
					if err := sched.Start(ctx); err != nil {
						a.logger.Error("scheduler stopped", "error", err)
					}
				}()
				defer sched.Stop()
			}

			if cfg.API.JWTSecret == "" {
				a.logger.Warn("api.jwt_secret is empty, serving without authentication")
			}
			server := api.NewServer(st, api.Config{
				JWTSecret:    cfg.API.JWTSecret,
				Clients:      cfg.API.Clients,
				TokenTTL:     cfg.API.TokenTTL,
				MaxBodyBytes: cfg.API.MaxBodyBytes,
			}, a.logger)

			srv := &http.Server{
				Addr:              cfg.API.Addr,
				Handler:           server.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("starting API server", "addr", cfg.API.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("server forced to shutdown", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides api.addr")
	cmd.Flags().DurationVar(&interval, "interval", 0, "run the pipeline at this interval (0 disables)")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "run the pipeline at pipeline.interval")
	return cmd
}
