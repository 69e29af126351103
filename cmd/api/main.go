package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/embassy-gov/portal-api/api/swagger"
	"github.com/embassy-gov/portal-api/internal/handler"
	"github.com/embassy-gov/portal-api/internal/middleware"
	"github.com/embassy-gov/portal-api/internal/models"
	"github.com/embassy-gov/portal-api/internal/ratelimit"
	"github.com/embassy-gov/portal-api/internal/repository"
	"github.com/embassy-gov/portal-api/internal/service"
	"github.com/embassy-gov/portal-api/pkg/cache"
	"github.com/embassy-gov/portal-api/pkg/config"
	"github.com/embassy-gov/portal-api/pkg/database"
	"github.com/embassy-gov/portal-api/pkg/logger"
	"github.com/embassy-gov/portal-api/pkg/mailer"
	corsmiddleware "github.com/embassy-gov/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/embassy-gov/portal-api/pkg/middleware/requestid"
)

// @title Embassy Portal API
// @version 1.0.0
// @description Public embassy website backend with admin back-office
// @BasePath /api/v1
// @schemes http

const (
	actionLogin   = "login"
	actionContact = "contact"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
	}

	var limiterStore ratelimit.Store
	if cfg.RateLimit.UseRedis && redisClient != nil {
		limiterStore = ratelimit.NewRedisStore(redisClient)
	} else {
		memStore := ratelimit.NewMemoryStore(cfg.RateLimit.SweepInterval)
		defer memStore.Stop()
		limiterStore = memStore
	}
	limiter := ratelimit.New(limiterStore, logr,
		ratelimit.Rule{Action: actionLogin, Max: cfg.RateLimit.LoginMax, Window: cfg.RateLimit.LoginWindow},
		ratelimit.Rule{Action: actionContact, Max: cfg.RateLimit.ContactMax, Window: cfg.RateLimit.ContactWindow},
	)

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTP(cfg.SMTP)
	}

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	tokenSvc := service.NewTokenService(cfg.JWT)
	authSvc := service.NewAuthService(userRepo, tokenSvc, mail, validate, logr, cfg.Admin.Email)
	userSvc := service.NewUserService(userRepo, logr)
	postSvc := service.NewPostService(postRepo, cacheRepo, metricsSvc, validate, logr, cfg.Posts.CacheTTL)
	messageSvc := service.NewMessageService(messageRepo, validate, logr)

	secureCookies := cfg.Env == config.EnvProduction
	authHandler := handler.NewAuthHandler(authSvc, tokenSvc, secureCookies)
	userHandler := handler.NewUserHandler(userSvc)
	postHandler := handler.NewPostHandler(postSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Session(tokenSvc))

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", middleware.RateLimit(limiter, actionLogin, metricsSvc), authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/logout-all", middleware.RequireRoles(models.RoleAdmin), authHandler.LogoutAll)
		auth.GET("/me", middleware.RequireRoles(), authHandler.Me)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	api.GET("/posts", postHandler.PublicList)
	api.GET("/posts/:slug", postHandler.PublicGet)
	api.POST("/contact", middleware.RateLimit(limiter, actionContact, metricsSvc), messageHandler.Submit)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/posts", postHandler.AdminList)
		admin.POST("/posts", postHandler.Create)
		admin.PUT("/posts/:id", postHandler.Update)
		admin.DELETE("/posts/:id", postHandler.Delete)

		admin.GET("/messages", messageHandler.List)
		admin.GET("/messages/export", messageHandler.Export)
		admin.POST("/messages/:id/read", messageHandler.MarkRead)
		admin.DELETE("/messages/:id", messageHandler.Delete)

		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.POST("/users/:id/deactivate", userHandler.Deactivate)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
