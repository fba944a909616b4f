package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sarrafio/api/internal/api"
	"github.com/sarrafio/api/internal/gateway/shahkar"
	"github.com/sarrafio/api/internal/gateway/zarinpal"
	"github.com/sarrafio/api/internal/infra/logging"
	"github.com/sarrafio/api/internal/infra/pgutils"
	"github.com/sarrafio/api/internal/infra/redisutils"
	"github.com/sarrafio/api/internal/services/auth"
	"github.com/sarrafio/api/internal/services/identity"
	"github.com/sarrafio/api/internal/services/payment"
	"github.com/sarrafio/api/internal/services/upload"
	"github.com/sarrafio/api/internal/services/wallet"
	"github.com/sarrafio/api/internal/services/withdraw"
	"github.com/sarrafio/api/pkg/envconf"
	"github.com/sarrafio/api/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return db.Close()
	})

	rdb, err := redisutils.Open(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		return rdb.Close()
	})

	store, err := upload.NewDiskStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		return fmt.Errorf("init upload store: %w", err)
	}

	// --- Services ---
	gateway := zarinpal.New(cfg.ZarinPal)
	matcher := shahkar.New(cfg.Shahkar)

	handler := api.NewHandler(
		payment.New(db, gateway, cfg.ZarinPal.CallbackURL),
		withdraw.New(db),
		wallet.New(db),
		auth.New(db, rdb, auth.LogNotifier{}, cfg.Auth),
		identity.New(db, matcher),
		upload.New(store),
	)

	// --- HTTP server ---
	router := api.NewRouter(handler, []byte(cfg.Auth.JWTSecret), rdb)
	srv := api.NewServer(cfg.Port, router)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
