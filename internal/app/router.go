package app

import (
	"context"
	"net/http"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/logger"
	"inkwell/internal/middleware"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/util"
	"inkwell/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Infra holds the backing services a router is built on. Only DB and Hub are
// required; the rest degrade features when nil.
type Infra struct {
	DB         *gorm.DB
	Redis      *util.RedisClient
	RabbitMQ   *util.RabbitMQClient
	Cloudinary *util.CloudinaryClient
	Hub        *websocket.Hub
}

// Server is the HTTP engine plus the background jobs that belong to it.
type Server struct {
	Engine        *gin.Engine
	ViewService   service.ViewService
	CommentWorker *service.CommentWorker
	Hub           *websocket.Hub
	infra         Infra
}

// NewServer connects to Postgres, Redis, RabbitMQ and Cloudinary and builds the
// router. Postgres is the only hard dependency.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := initDB(cfg)
	if err != nil {
		return nil, err
	}

	registry := model.DefaultRegistry()
	if err := db.AutoMigrate(model.Models(registry)...); err != nil {
		return nil, err
	}

	infra := Infra{
		DB:       db,
		Redis:    initRedisWithRetry(cfg),
		RabbitMQ: initRabbitMQWithRetry(cfg),
		Hub:      websocket.NewHub(),
	}

	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		infra.Cloudinary, err = util.NewCloudinaryClient(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize Cloudinary, cover uploads disabled")
		} else {
			logger.Info().Msg("Cloudinary initialized")
		}
	} else {
		logger.Info().Msg("Cloudinary credentials not configured, cover uploads disabled")
	}

	return NewServerWithInfra(cfg, registry, infra), nil
}

// NewServerWithInfra builds the router on already connected infrastructure.
func NewServerWithInfra(cfg *config.Config, registry *model.Registry, infra Infra) *Server {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(corsMiddleware(cfg.ClientURL))

	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		logger.Info().Int("rps", cfg.RateLimitRPS).Int("burst", cfg.RateLimitBurst).Msg("rate limiting enabled")
	}

	identity := middleware.NewIdentityResolver(cfg.JWTSecret, cfg.SessionCookieName, cfg.SessionMaxAge, !cfg.IsDevelopment())
	r.Use(identity.Middleware())

	// nil clients must reach the services as nil interfaces
	var (
		viewCache service.ViewCache
		publisher service.EventPublisher
		uploader  service.ImageUploader
	)
	if infra.Redis != nil {
		viewCache = infra.Redis
	}
	if infra.RabbitMQ != nil {
		publisher = infra.RabbitMQ
	}
	if infra.Cloudinary != nil {
		uploader = infra.Cloudinary
	}

	// Repositories
	contentRepo := repository.NewContentRepository(infra.DB)
	reactionRepo := repository.NewReactionRepository(infra.DB)
	commentRepo := repository.NewCommentRepository(infra.DB, infra.Redis)
	userRepo := repository.NewUserRepository(infra.DB)
	contactRepo := repository.NewContactRepository(infra.DB)

	// Services
	viewService := service.NewViewService(contentRepo, registry, viewCache, cfg.ViewDedupWindow, infra.Hub)
	reactionService := service.NewReactionService(reactionRepo, registry, infra.Hub)
	contentService := service.NewContentService(contentRepo, registry, viewService, reactionService, commentRepo, uploader)
	commentService := service.NewCommentService(commentRepo, contentRepo, registry, publisher, infra.Hub)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	contactService := service.NewContactService(contactRepo)

	// Handlers
	contentHandler := NewContentHandler(contentService)
	reactionHandler := NewReactionHandler(reactionService, identity)
	commentHandler := NewCommentHandler(commentService, identity)
	authHandler := NewAuthHandler(authService)
	contactHandler := NewContactHandler(contactService)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetMe)
		}

		content := api.Group("/content/:variant")
		{
			content.GET("", contentHandler.List)
			content.GET("/:id", contentHandler.Get)

			staff := content.Group("", middleware.RequireStaff())
			{
				staff.POST("", contentHandler.Create)
				staff.PUT("/:id", contentHandler.Update)
				staff.DELETE("/:id", contentHandler.Delete)
				staff.POST("/:id/cover", contentHandler.UploadCover)
			}
		}

		api.GET("/search", contentHandler.Search)
		api.GET("/categories", contentHandler.Categories)

		api.POST("/reactions/toggle", reactionHandler.Toggle)

		comments := api.Group("/comments")
		{
			comments.GET("", commentHandler.GetComments)
			comments.POST("", commentHandler.CreateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
		}

		contact := api.Group("/contact")
		{
			contact.POST("", contactHandler.Submit)
			contact.GET("", middleware.RequireStaff(), contactHandler.List)
		}
	}

	// WebSocket route
	upgrader := websocket.NewUpgrader(cfg.ClientURL)
	r.GET("/ws", gin.WrapF(websocket.ServeWS(infra.Hub, registry, upgrader)))

	r.GET("/health", healthHandler(infra))

	return &Server{
		Engine:        r,
		ViewService:   viewService,
		CommentWorker: service.NewCommentWorker(infra.RabbitMQ, infra.Hub),
		Hub:           infra.Hub,
		infra:         infra,
	}
}

// Start runs the hub, the comment worker and the daily view reset until ctx ends.
func (s *Server) Start(ctx context.Context) {
	go s.Hub.Run(ctx)
	go s.ViewService.RunDailyReset(ctx)

	if s.infra.RabbitMQ == nil {
		logger.Warn().Msg("comment worker not started, RabbitMQ unavailable; comments are broadcast directly")
		return
	}
	if err := s.CommentWorker.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to start comment worker")
		return
	}
	go func() {
		<-ctx.Done()
		s.CommentWorker.Stop()
	}()
}

// Close releases the backing connections.
func (s *Server) Close() {
	if s.infra.RabbitMQ != nil {
		_ = s.infra.RabbitMQ.Close()
	}
	if s.infra.Redis != nil {
		_ = s.infra.Redis.Close()
	}
	if sqlDB, err := s.infra.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func healthHandler(infra Infra) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "disabled", "rabbitmq": "disabled"}

		if sqlDB, err := infra.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		}
		if infra.Redis != nil {
			checks["redis"] = "ok"
			if err := infra.Redis.Ping(ctx); err != nil {
				checks["redis"] = "down"
			}
		}
		if infra.RabbitMQ != nil {
			checks["rabbitmq"] = "ok"
			if infra.RabbitMQ.GetChannel() == nil {
				checks["rabbitmq"] = "down"
			}
		}

		checks["status"] = "ok"
		if status != http.StatusOK {
			checks["status"] = "degraded"
		}
		c.JSON(status, checks)
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
}

// retry calls connect with exponential backoff, returning nil after the last failure.
func retry[T any](name string, connect func() (*T, error)) *T {
	const maxRetries = 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		client, err := connect()
		if err == nil {
			logger.Info().Str("backend", name).Int("attempt", attempt).Msg("connected")
			return client
		}

		if attempt == maxRetries {
			logger.Warn().Err(err).Str("backend", name).Int("attempts", maxRetries).Msg("giving up, continuing without it")
			break
		}

		delay := initialDelay * time.Duration(1<<uint(attempt-1))
		if delay > maxDelay {
			delay = maxDelay
		}
		logger.Warn().Err(err).Str("backend", name).Int("attempt", attempt).Dur("retry_in", delay).Msg("connection failed")
		time.Sleep(delay)
	}
	return nil
}

// initRedisWithRetry returns nil when Redis stays down. Views are then counted
// without dedup and comment threads are not cached.
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	return retry("redis", func() (*util.RedisClient, error) {
		return util.NewRedisClient(cfg)
	})
}

// initRabbitMQWithRetry returns nil when RabbitMQ stays down. Comments are then
// broadcast directly.
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	return retry("rabbitmq", func() (*util.RabbitMQClient, error) {
		return util.NewRabbitMQClient(cfg)
	})
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	allowedOrigins := map[string]bool{
		clientURL:               true,
		"http://localhost:3000": true,
		"http://localhost:5173": true,
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
