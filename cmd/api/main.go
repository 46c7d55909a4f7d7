package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"liblend/internal/config"
	"liblend/internal/database"
	"liblend/internal/domain"
	"liblend/internal/events"
	"liblend/internal/middleware"
	"liblend/internal/modules/library"
	"liblend/internal/modules/session"
	"liblend/internal/pkg/response"
	"liblend/internal/pkg/token"
	"liblend/internal/repository"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Book{},
		&domain.BorrowedBook{},
		&domain.RefreshToken{},
		&domain.BlacklistedToken{},
	); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)
	borrowRepo := repository.NewBorrowRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	blacklistRepo := repository.NewBlacklistRepository(db)

	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	bus := events.NewBus(64)

	sessionService := session.NewService(userRepo, refreshRepo, blacklistRepo, codec, bus, log)
	libraryService := library.NewService(bookRepo, borrowRepo, userRepo, bus)

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(make(chan struct{}), 5*time.Minute)

	cache := middleware.NewResponseCache(cfg.CacheSize, cfg.CacheTTL)

	sessionHandler := session.NewHandler(sessionService)
	libraryHandler := library.NewHandler(libraryService, cache)
	streamHandler := events.NewStreamHandler(bus, log)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.CORS(),
		metrics.Handler(),
		limiter.Handler(),
	)

	router.GET("/", welcome)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	sessionHandler.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.Auth(sessionService))
	sessionHandler.RegisterProtectedRoutes(protected)
	protected.GET("/events/stream", middleware.AdminOnly(), streamHandler.Stream)
	libraryHandler.RegisterRoutes(protected)

	log.WithField("addr", cfg.Addr).Info("liblend API listening")
	if err := router.Run(cfg.Addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func welcome(c *gin.Context) {
	response.Success(c, http.StatusOK, "Library lending API", gin.H{
		"name":    "liblend",
		"version": "v1",
	}, response.Links{
		"self":    {Href: "/", Method: "GET"},
		"login":   {Href: "/api/v1/auth/login", Method: "POST"},
		"books":   {Href: "/api/v1/books", Method: "GET"},
		"metrics": {Href: "/metrics", Method: "GET"},
	}, nil)
}
