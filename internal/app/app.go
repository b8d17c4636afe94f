package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/config"
	"github.com/vidhive/backend/internal/db"
	"github.com/vidhive/backend/internal/handlers"
	"github.com/vidhive/backend/internal/httpserver"
	"github.com/vidhive/backend/internal/logging"
	"github.com/vidhive/backend/internal/middleware"
	"github.com/vidhive/backend/internal/repositories"
	"github.com/vidhive/backend/internal/storage"
	"github.com/vidhive/backend/internal/videos"
)

// Run bootstraps the vidhive backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, sweep, or backfill-ids")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, flush, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      logFormat(cfg),
		File:        cfg.LogFile,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	defer flush()
	slog.SetDefault(logger)

	ctx = logging.WithLogger(ctx, logger)

	switch args[0] {
	case "serve":
		return serve(ctx, cfg, logger)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:])
	case "sweep":
		return runSweep(ctx, cfg, logger)
	case "backfill-ids":
		return runBackfill(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func logFormat(cfg config.Config) string {
	if cfg.LogFormat != "" {
		return cfg.LogFormat
	}
	if cfg.IsDevelopment() {
		return "text"
	}
	return "json"
}

// stores is an open metadata backend.
type stores struct {
	set    repositories.Set
	health handlers.Pinger
	close  func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return stores{}, err
	}

	if cfg.Database.Driver == config.DriverMongo {
		client, err := db.ConnectMongo(ctx, cfg.Database.MongoURI)
		if err != nil {
			return stores{}, err
		}
		database := client.Database(cfg.Database.MongoName)
		if err := repositories.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, err
		}
		return stores{
			set:    repositories.NewMongoSet(database),
			health: mongoPinger{client: client},
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return stores{}, err
	}
	return stores{
		set:    repositories.NewPostgresSet(pool),
		health: pool,
		close:  pool.Close,
	}, nil
}

func openMediaStore(ctx context.Context, cfg config.Config) (*storage.MediaStore, error) {
	prober := storage.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout)
	return storage.NewMediaStore(ctx, cfg.ObjectStore, prober)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	if dir := cfg.HTTP.UploadTempDir; dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create upload directory: %w", err)
		}
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	media, err := openMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := buildServices(cfg, st.set, media, logger)
	deps := buildDependencies(cfg, st.set, svc, st.health)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.Chain(mux,
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.HTTP.CORSOrigin),
		middleware.BodyLimit(cfg.HTTP.BodyLimitBytes, cfg.HTTP.MaxUploadBytes),
		middleware.Authenticate(svc.Sessions),
	)

	srv := httpserver.New(cfg.AppPort, handler, cfg.HTTP.WriteTimeout)

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go svc.Janitor.Run(bgCtx, cfg.Janitor.SweepInterval)
	go purgeSessions(bgCtx, svc.Sessions, cfg.Janitor.SweepInterval, logger)

	logger.Info("starting http server", "port", cfg.AppPort, "driver", cfg.Database.Driver)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	stopBackground()
	if err := svc.Janitor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("janitor did not drain before shutdown", slog.Any("error", err))
	}

	return runErr
}

// purgeSessions drops expired refresh tokens every interval.
func purgeSessions(ctx context.Context, sessions *auth.Manager, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Error("purge expired sessions", slog.Any("error", err))
				continue
			}
			if purged > 0 {
				logger.Info("expired sessions purged", slog.Int64("count", purged))
			}
		}
	}
}

func runSweep(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	media, err := openMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	janitor := newJanitor(cfg, st.set, media, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		_ = janitor.Shutdown(shutdownCtx)
	}()

	report, err := janitor.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("swept %d pending uploads: %d resolved, %d reclaimed, %d failed\n",
		report.Scanned, report.Resolved, report.Reclaimed, report.Failed)

	sessions := auth.NewManager(auth.NewJWTSigner(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, st.set.Sessions)
	purged, err := sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("purged %d expired sessions\n", purged)
	return nil
}

func runBackfill(ctx context.Context, cfg config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	svc := &videos.Service{Videos: st.set.Videos}
	report, err := svc.BackfillStoredIDs(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("backfilled %d of %d videos (%d skipped)\n", report.Updated, report.Scanned, report.Skipped)
	return nil
}

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

func runMigrations(ctx context.Context, cfg config.Config, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	if cfg.Database.Driver == config.DriverMongo {
		if command != "up" {
			return fmt.Errorf("migrate %s is not supported for the mongo driver", command)
		}
		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		st.close()
		fmt.Println("mongo indexes ensured")
		return nil
	}

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return withMigrationRetry(ctx, command, func(ctx context.Context) error {
		return db.Migrate(ctx, pool, command)
	})
}

// withMigrationRetry reruns op with exponential backoff while it fails with a
// transient database error.
func withMigrationRetry(ctx context.Context, name string, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !shouldRetryMigration(err) {
			return err
		}
		logging.FromContext(ctx).Warn("transient migration error",
			slog.String("command", name),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
	}

	return fmt.Errorf("migrate %s: exceeded max retries (%d): %w", name, migrationMaxRetries, err)
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgErrorCodes[pgErr.Code]; ok {
			return true
		}
	}

	return errors.Is(err, pgx.ErrTxClosed)
}
