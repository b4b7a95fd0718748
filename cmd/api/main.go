package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/hospital-site/cmd/mainconfig"
	"github.com/wolfman30/hospital-site/internal/api/router"
	"github.com/wolfman30/hospital-site/internal/appointments"
	"github.com/wolfman30/hospital-site/internal/chat"
	"github.com/wolfman30/hospital-site/internal/cms"
	appconfig "github.com/wolfman30/hospital-site/internal/config"
	"github.com/wolfman30/hospital-site/internal/forms"
	"github.com/wolfman30/hospital-site/internal/notify"
	"github.com/wolfman30/hospital-site/internal/observability/metrics"
	"github.com/wolfman30/hospital-site/internal/render"
	"github.com/wolfman30/hospital-site/internal/site"
	"github.com/wolfman30/hospital-site/internal/uploads"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hospital site server",
		"env", cfg.Env,
		"port", cfg.Port,
		"cms", cfg.CMSAPIURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsHandler, cmsMetrics, siteMetrics := setupMetrics()
	healthChecks := map[string]router.HealthCheck{}

	// CMS client with optional Redis response cache
	cmsOpts := []cms.Option{
		cms.WithHTTPClient(&http.Client{Timeout: cfg.CMSTimeout}),
		cms.WithToken(cfg.CMSAPIToken),
		cms.WithMetrics(cmsMetrics),
	}
	if redisClient := connectRedis(ctx, cfg, logger); redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cmsOpts = append(cmsOpts, cms.WithCache(cms.NewRedisCache(redisClient), cfg.CMSCacheTTL))
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	cmsClient := cms.NewClient(cfg.CMSAPIURL, logger.Component("cms"), cmsOpts...)

	renderer, err := render.New()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	// Appointment storage
	var apptRepo appointments.Repository = appointments.NewInMemoryRepository()
	if pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger); pool != nil {
		defer pool.Close()
		apptRepo = appointments.NewPostgresRepository(pool)
		healthChecks["postgres"] = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set; appointments are kept in memory")
	}

	awsCfg := mainconfig.LazyAWS(cfg, logger)
	uploadStore := setupUploads(ctx, cfg, awsCfg, logger)
	emailSender := setupEmail(ctx, cfg, awsCfg, logger)
	notifier := notify.NewNotifier(emailSender, notify.Recipients{
		HR:        cfg.HREmail,
		Reception: cfg.ReceptionEmail,
	}, logger.Component("notify"))

	// Initialize handlers
	siteHandler := site.NewHandler(site.Deps{
		CMS:      cmsClient,
		Resolver: cms.NewResolver(cfg.CMSAssetURL),
		Renderer: renderer,
		Actions: chat.NewResolver(chat.Config{
			EmergencyPhone: cfg.EmergencyPhone,
			HREmail:        cfg.HREmail,
		}),
		Metrics:       siteMetrics,
		PublicBaseURL: cfg.PublicBaseURL,
		Debounce:      cfg.SearchDebounce,
		Logger:        logger.Component("site"),
	})
	formsHandler := forms.NewHandler(forms.Deps{
		CMS:          cmsClient,
		Appointments: apptRepo,
		Uploads:      uploadStore,
		Notifier:     notifier,
		Renderer:     renderer,
		Metrics:      siteMetrics,
		HREmail:      cfg.HREmail,
		Logger:       logger.Component("forms"),
	})

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		Site:               siteHandler,
		Forms:              formsHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		HealthChecks:       healthChecks,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

func setupMetrics() (http.Handler, *metrics.CMSMetrics, *metrics.SiteMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return handler, metrics.NewCMSMetrics(reg), metrics.NewSiteMetrics(reg)
}

func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The cache is optional; run uncached rather than fail startup.
		logger.Warn("redis unavailable; CMS cache disabled", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return client
}

func connectPostgresPool(ctx context.Context, dbURL string, logger *logging.Logger) *pgxpool.Pool {
	if dbURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")
	return pool
}

func setupUploads(ctx context.Context, cfg *appconfig.Config, awsCfg mainconfig.AWSSource, logger *logging.Logger) uploads.Store {
	if cfg.UploadsBucket == "" {
		logger.Warn("UPLOADS_BUCKET not set; application files are kept in memory")
		return uploads.NewMemoryStore()
	}
	loaded, ok := awsCfg(ctx)
	if !ok {
		return uploads.NewMemoryStore()
	}
	return uploads.NewS3Store(mainconfig.NewS3Client(loaded, cfg), cfg.UploadsBucket, logger.Component("uploads"))
}

// setupEmail picks the notification transport. "auto" prefers SendGrid when
// an API key is present and otherwise logs messages instead of sending them.
func setupEmail(ctx context.Context, cfg *appconfig.Config, awsCfg mainconfig.AWSSource, logger *logging.Logger) notify.EmailSender {
	emailLogger := logger.Component("email")
	switch cfg.EmailProvider {
	case "sendgrid", "auto", "":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, emailLogger)
		if sender != nil {
			return sender
		}
		if cfg.EmailProvider == "sendgrid" {
			logger.Warn("SENDGRID_API_KEY not set; email notifications disabled")
		}
	case "ses":
		if loaded, ok := awsCfg(ctx); ok {
			return notify.NewSESSender(mainconfig.NewSESClient(loaded), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, emailLogger)
		}
	}
	return notify.NewStubEmailSender(emailLogger)
}
