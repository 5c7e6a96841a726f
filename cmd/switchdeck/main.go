package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/switchdeck/switchdeck/internal/catalog"
	"github.com/switchdeck/switchdeck/internal/server"
	"github.com/switchdeck/switchdeck/internal/services"
	"github.com/switchdeck/switchdeck/internal/store"
	"github.com/switchdeck/switchdeck/internal/version"
	pkgcatalog "github.com/switchdeck/switchdeck/pkg/catalog"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("SwitchDeck server starting", zap.String("version", version.Short()))

	config, err := server.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	st, err := store.New(config.GetString("store.path"))
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := services.NewSQLiteCatalogRepository(ctx, st)
	if err != nil {
		logger.Fatal("failed to initialize catalogue repository", zap.Error(err))
	}

	defaults := pkgcatalog.NewDefaults()
	if config.GetBool("catalog.seed_defaults") {
		if err := seedDefaults(ctx, repo, defaults, logger); err != nil {
			logger.Fatal("failed to seed built-in catalogue", zap.Error(err))
		}
	}

	handler := catalog.NewHandler(repo, defaults, logger)

	addr := config.GetString("server.host") + ":" + config.GetString("server.port")
	srv := server.New(addr, logger, handler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("SwitchDeck server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	timeout := config.GetDuration("server.shutdown_timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("SwitchDeck server stopped")
}

// seedDefaults loads the built-in catalogue when no catalogue is active yet.
// An already-loaded catalogue, built-in or uploaded, is left alone.
func seedDefaults(ctx context.Context, repo services.CatalogRepository, defaults *pkgcatalog.Defaults, logger *zap.Logger) error {
	_, err := repo.Status(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return err
	}

	entries, err := defaults.Entries()
	if err != nil {
		return err
	}
	status, err := repo.Replace(ctx, entries, services.SourceBuiltin)
	if err != nil {
		return err
	}
	logger.Info("seeded built-in catalogue",
		zap.Int("count", status.Count),
		zap.String("revision", status.Revision),
	)
	return nil
}
