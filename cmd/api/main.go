package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrollcall/internal/attendance"
	"qrollcall/internal/auth"
	"qrollcall/internal/cloudinary"
	"qrollcall/internal/config"
	"qrollcall/internal/handler"
	"qrollcall/internal/httpmiddleware"
	"qrollcall/internal/queue"
	"qrollcall/internal/store"
	"qrollcall/internal/token"
	"qrollcall/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var (
		db        *store.DB
		attStore  attendance.Store
		userStore user.Store
	)
	if cfg.StoreBackend == "memory" {
		log.Println("using in-memory stores (STORE_BACKEND=memory)")
		attStore = attendance.NewMemoryStore()
		userStore = user.NewMemoryStore()
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		attStore = attendance.NewRepository(db.Client)
		userStore = user.NewRepository(db.Client)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var mailQ queue.Queue
	if cfg.QueueBackend == "memory" {
		mailQ = queue.NewInMemory(64)
	} else {
		mailQ = queue.NewRedisQueue(redisClient.Client, "qrollcall:mail")
	}

	users := user.NewService(userStore, cfg.MaxLoginAttempts, cfg.LockoutWindow)
	registry := attendance.NewService(attStore)
	codec := token.NewCodec(cfg.QRTokenSecret, cfg.JWTIssuer)
	marker := attendance.NewMarker(codec, attStore)

	// Cloudinary client (nil when not configured)
	var cdnClient *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdnClient = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	h := handler.New(users, registry, marker, codec, cdnClient, mailQ, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.LoginTTL)

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitBackend == "redis" {
		limiter = httpmiddleware.NewRedisLimiter(redisClient.Client, cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil || cfg.StoreBackend == "memory"
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	v1 := r.Group("/v1")
	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/verify", h.VerifyEmail)

	authed := v1.Group("", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	authed.GET("/users/me", h.Me)
	authed.PUT("/users/me", h.UpdateProfile)
	authed.DELETE("/users/me", h.DeleteAccount)

	authed.POST("/attendance/mark", auth.RequireRole(auth.RoleStudent), h.MarkAttendance)

	lecturer := authed.Group("/attendance", auth.RequireRole(auth.RoleLecturer))
	lecturer.POST("/generate", h.GenerateSession)
	lecturer.POST("/stop/:sessionId", h.StopSession)
	lecturer.DELETE("/session/:sessionId", h.DeleteSession)
	lecturer.GET("/report/:sessionId", h.SessionReport)
	lecturer.GET("/trend", h.Trend)
	lecturer.GET("/lecture", h.ListSessions)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
