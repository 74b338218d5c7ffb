package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"spendly/internal/backend"
	"spendly/internal/cli"
	"spendly/internal/config"
	apphttp "spendly/internal/http"
	applog "spendly/internal/log"
	"spendly/internal/profile"
	"spendly/internal/store"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	st, err := store.Open(ctx, res.Persister, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("Store close failed", applog.FieldError, err)
		}
	}()

	profiles := profile.New(res.Identity, res.Documents, profile.WithLogger(logger))
	startCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
	if err := profiles.Start(startCtx); err != nil {
		// The app stays usable without a profile; sign-in can retry.
		logger.Warn("Profile sync start failed", applog.FieldError, err)
	}
	cancel()
	defer profiles.Close()

	srv := apphttp.NewServer(":"+cfg.Port, st, profiles,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(res.Ready),
		apphttp.WithRemoteTimeout(cfg.RemoteTimeout))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendly server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"data_backend", cfg.DataBackend,
			"auth_backend", cfg.AuthBackend,
			"notifications", cfg.NotificationsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
