package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio-gallery-backend/internal/clock"
	"studio-gallery-backend/internal/config"
	"studio-gallery-backend/internal/handlers"
	"studio-gallery-backend/internal/middleware"
	"studio-gallery-backend/internal/repository"
	"studio-gallery-backend/internal/services"
	"studio-gallery-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// "mint-token [admin-id]" prints a bearer token for the /api/v1/admin
	// routes and exits.
	if len(os.Args) > 1 && os.Args[1] == "mint-token" {
		adminID := "admin"
		if len(os.Args) > 2 {
			adminID = os.Args[2]
		}
		token, err := middleware.MintAdminToken(cfg.JWT.Secret, adminID, 30*24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to mint admin token")
		}
		fmt.Println(token)
		return
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// External clients, constructed once and injected everywhere
	objectStore, err := storage.NewS3Store(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object store")
	}

	clk := clock.System()

	var urlSigner storage.URLSigner
	if cfg.CloudFront.Enabled() {
		signer, err := storage.NewCloudFrontSigner(
			cfg.CloudFront.Domain,
			cfg.CloudFront.KeyPairID,
			cfg.CloudFront.PrivateKey,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create URL signer")
		}
		urlSigner = signer
	} else {
		log.Warn().Msg("CloudFront not configured, presigning URLs against S3 directly")
		urlSigner = storage.NewS3URLSigner(objectStore, cfg.AWS.S3Bucket, clk)
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.Mail.Enabled() {
		notifier = services.NewMailNotifier(
			cfg.Mail.Host, cfg.Mail.Port,
			cfg.Mail.Username, cfg.Mail.Password,
			cfg.Mail.From, cfg.Mail.To,
		)
	}

	// Initialize repositories
	galleryRepo := repository.NewGalleryRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	// Initialize services
	unlockService := services.NewUnlockService(
		galleryRepo, sessionRepo, attemptRepo, notifier, clk,
		cfg.Gallery.SessionTTL.Std(), cfg.Gallery.RateLimitWindow.Std(), cfg.Gallery.RateLimitMax,
	)
	galleryService := services.NewGalleryService(
		galleryRepo, sessionRepo, photoRepo, urlSigner, clk,
		cfg.Gallery.ViewURLTTL.Std(),
	)
	deliveryService := services.NewDeliveryService(
		galleryRepo, sessionRepo, photoRepo, objectStore, urlSigner, notifier, clk,
		cfg.Gallery.ViewURLTTL.Std(), cfg.Gallery.DownloadURLTTL.Std(), cfg.Gallery.BundleFetchTimeout.Std(),
	)
	hub := services.NewGalleryHub()
	adminService := services.NewAdminService(
		galleryRepo, photoRepo, objectStore, hub, clk,
		cfg.AWS.S3Bucket, cfg.Gallery.UploadURLTTL.Std(),
	)

	// Initialize handlers
	galleryHandler := handlers.NewGalleryHandler(
		unlockService, galleryService, deliveryService, cfg.Server.SecureCookies,
	)
	adminHandler := handlers.NewAdminHandler(adminService)
	wsHandler := handlers.NewWebSocketHandler(hub, galleryService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Client-facing gallery routes
	r.Route("/gallery", func(r chi.Router) {
		r.Post("/{token}/unlock", galleryHandler.Unlock)
		r.Get("/{token}", galleryHandler.View)
		r.Get("/{token}/download-all", galleryHandler.DownloadAll)
		r.Get("/{token}/events", wsHandler.HandleGalleryEvents)
		r.Get("/photos/{photoId}", galleryHandler.SignPhoto)
	})

	// Operator routes
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT.Secret))
		r.Post("/galleries", adminHandler.CreateGallery)
		r.Post("/galleries/{id}/pin", adminHandler.SetPin)
		r.Post("/galleries/{id}/activate", adminHandler.SetActive)
		r.Post("/galleries/upload", adminHandler.RequestUpload)
		r.Post("/galleries/upload/{photoId}/confirm", adminHandler.ConfirmUpload)
		r.Delete("/photos/{photoId}", adminHandler.DeletePhoto)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // bundle responses can be large
		IdleTimeout:  60 * time.Second,
	}

	// Periodic cleanup of expired sessions and aged-out attempt entries
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go runJanitor(janitorCtx, sessionRepo, attemptRepo, clk, cfg.Gallery.RateLimitWindow.Std())

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// runJanitor prunes expired sessions and stale attempt ledger entries once
// an hour. Both are already ignored by queries; this bounds table growth.
func runJanitor(
	ctx context.Context,
	sessions *repository.SessionRepository,
	attempts *repository.AttemptRepository,
	clk clock.Clock,
	rateWindow time.Duration,
) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := clk.Now()
			if n, err := sessions.DeleteExpired(ctx, now); err != nil {
				log.Error().Err(err).Msg("Failed to prune expired sessions")
			} else if n > 0 {
				log.Info().Int64("sessions", n).Msg("Pruned expired sessions")
			}
			if n, err := attempts.DeleteBefore(ctx, now.Add(-rateWindow)); err != nil {
				log.Error().Err(err).Msg("Failed to prune pin attempts")
			} else if n > 0 {
				log.Info().Int64("attempts", n).Msg("Pruned stale pin attempts")
			}
		}
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
