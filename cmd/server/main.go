package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fimeg/partnernotice/internal/api/handlers"
	"github.com/Fimeg/partnernotice/internal/api/middleware"
	"github.com/Fimeg/partnernotice/internal/authz"
	"github.com/Fimeg/partnernotice/internal/config"
	"github.com/Fimeg/partnernotice/internal/database"
	"github.com/Fimeg/partnernotice/internal/database/queries"
	"github.com/Fimeg/partnernotice/internal/installer"
	"github.com/Fimeg/partnernotice/internal/logging"
	"github.com/Fimeg/partnernotice/internal/nonce"
	"github.com/Fimeg/partnernotice/internal/notice"
	"github.com/Fimeg/partnernotice/internal/userflags"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

const version = "v0.1.0"

func main() {
	// Parse command line flags
	var migrate bool
	var showVersion bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations only")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("partnernotice %s\n", version)
		fmt.Printf("Partner notice and companion installer for admin screens\n")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if migrate {
		log.Info().Msg("database migrations completed")
		return
	}

	// Initialize queries
	userQueries := queries.NewUserQueries(db.DB)
	extensionQueries := queries.NewExtensionQueries(db.DB)

	if cfg.Admin.Password != "" {
		if err := userQueries.EnsureAdminUser(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal().Err(err).Msg("failed to create admin user")
		}
	}

	flags, closeFlags, err := userflags.Open(ctx, cfg.Database.RedisURL, queries.NewUserOptionQueries(db.DB))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up user flag store")
	}
	defer closeFlags()

	authorizer := authz.NewRoleAuthorizer()

	// Install pipeline
	if err := os.MkdirAll(cfg.Partner.PluginDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Partner.PluginDir).Msg("failed to create extension directory")
	}
	upgrader := installer.NewPluginUpgrader(cfg.Partner.PluginDir, extensionQueries,
		installer.WithHTTPClient(&http.Client{Timeout: cfg.Partner.DownloadTimeout}))
	coordinator := installer.NewCoordinator(
		extensionQueries,
		upgrader,
		installer.NewRegistryActivator(extensionQueries, cfg.Partner.PluginDir),
		authorizer,
		installer.WithMultisite(cfg.Partner.Multisite),
		installer.WithDownloadHost(cfg.Partner.DownloadHost),
	)

	// Partner notice
	tag, err := language.Parse(cfg.Partner.Language)
	if err != nil {
		log.Warn().Err(err).Str("language", cfg.Partner.Language).Msg("unknown notice language, using English")
		tag = language.English
	}
	var labels notice.Labels
	if cfg.Partner.LabelsFile != "" {
		if labels, err = notice.LoadLabels(cfg.Partner.LabelsFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load notice labels")
		}
	}
	nonces := nonce.NewManager(cfg.Admin.NonceSecret, nonce.DefaultLifetime)
	partnerNotice, err := notice.New(notice.Options{
		Project: cfg.Partner.Project,
		Brand:   cfg.Partner.CompanionName,
		Screens: cfg.Partner.Screens,
		Image: notice.Image{
			Markup: cfg.Partner.ImageMarkup,
			URL:    cfg.Partner.ImageURL,
		},
		Labels:     labels,
		Language:   tag,
		TextDomain: cfg.Partner.TextDomain,
	}, flags, nonces, extensionQueries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create partner notice")
	}

	active, err := partnerNotice.StandaloneActive(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not check companion extension, registering notice")
	}
	var notices []*notice.Notice
	if active {
		log.Info().Str("text_domain", cfg.Partner.TextDomain).Msg("companion extension already active, notice not registered")
	} else {
		notices = append(notices, partnerNotice)
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.Admin.JWTSecret, userQueries)
	noticeHandler := handlers.NewNoticeHandler(notices, nonces, coordinator, cfg.Partner.CompanionSlug, "/api/v1/admin/ajax")
	extensionHandler := handlers.NewExtensionHandler(extensionQueries)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "notices": len(notices)})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", rateLimiter.RateLimit(middleware.LimitLogin, middleware.KeyByIP), authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)

		dashboard := api.Group("/")
		dashboard.Use(authHandler.WebAuthMiddleware())
		{
			dashboard.GET("/auth/verify", authHandler.VerifyToken)

			admin := dashboard.Group("/admin")
			{
				admin.GET("/screens/:screen", rateLimiter.RateLimit(middleware.LimitAdminOperations, middleware.KeyByUserID), noticeHandler.RenderScreen)
				admin.POST("/ajax", rateLimiter.RateLimit(middleware.LimitNoticeActions, middleware.KeyByUserID), noticeHandler.Ajax)
				admin.GET("/extensions", rateLimiter.RateLimit(middleware.LimitAdminOperations, middleware.KeyByUserID), extensionHandler.ListExtensions)

				// Rate Limit Management
				limits := admin.Group("/rate-limits", handlers.RequireCapability(authorizer, authz.ManageNetwork))
				limits.GET("", rateLimitHandler.GetRateLimitSettings)
				limits.PUT("", rateLimitHandler.UpdateRateLimitSettings)
				limits.POST("/reset", rateLimitHandler.ResetRateLimitSettings)
				limits.POST("/cleanup", rateLimitHandler.CleanupRateLimitEntries)
			}
		}
	}

	// Drop idle rate limit entries in the background
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := rateLimiter.CleanupExpiredEntries(); removed > 0 {
					log.Debug().Int("removed", removed).Msg("rate limit entries cleaned up")
				}
			}
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("project", cfg.Partner.Project).Msg("partnernotice server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
