package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	commonaws "partner-onboarding/internal/common/aws"
	"partner-onboarding/internal/common/config"
	"partner-onboarding/internal/common/database"
	"partner-onboarding/internal/common/identity"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/notify"
	"partner-onboarding/internal/onboarding"
	"partner-onboarding/internal/onboarding/state"
	"partner-onboarding/internal/onboarding/submit"
	"partner-onboarding/internal/onboarding/upload"
	"partner-onboarding/internal/onboarding/verify"
	"partner-onboarding/internal/server"
	"partner-onboarding/internal/store"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting onboarding service",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- PostgreSQL with retry ---
	var pg *sql.DB
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "postgres connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("postgres connected")

	// --- Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("redis connected")

	// --- AWS clients ---
	s3Client, err := commonaws.NewS3Client(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("s3 client init failed", zap.Error(err))
	}
	sesClient, err := commonaws.NewSESClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client init failed", zap.Error(err))
	}
	snsClient, err := commonaws.NewSNSClient(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client init failed", zap.Error(err))
	}

	// --- Shared collaborators ---
	idClient := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.Realm, cfg.Identity.ClientID, cfg.Identity.ClientSecret)
	applications := store.NewApplicationStore(pg, log)
	profiles := store.NewProfileStore(pg, log)
	mailer := notify.NewMailer(sesClient, cfg.AWS.SenderEmail, log)
	smsSender := verify.NewSNSSender(snsClient, cfg.AWS.SMSSenderID)
	surface := notify.NewLogSurface(log)

	// --- Per-applicant session factory ---
	factory := func(applicantID string) *onboarding.Session {
		progress := state.NewRedisProgressStore(
			rdb.Client, cfg.Onboarding.ProgressKeyPrefix, applicantID, cfg.Onboarding.ProgressTTL)
		saver := state.NewAutosaver(progress, cfg.Onboarding.AutosaveDebounce, log)
		saga := submit.NewSaga(idClient, applications, profiles, surface, mailer, cfg.Onboarding.RedirectAfter, log)

		return onboarding.NewSession(onboarding.Deps{
			Progress: progress,
			Saver:    saver,
			Uploads:  upload.NewOrchestrator(s3Client, cfg.AWS.UploadBucket, applicantID, log),
			Phones:   verify.NewPhoneVerifier(smsSender, log),
			Saga:     saga,
			Surface:  surface,
			Log:      log,
			OTPTTL:   cfg.Onboarding.OTPTTL,
		})
	}

	router := server.NewRouter(server.NewManager(factory), log)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("stopped")
}
