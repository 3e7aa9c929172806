package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	nrgin "github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iiskills/backend-access/access"
	"github.com/iiskills/backend-access/config"
	"github.com/iiskills/backend-access/controllers"
	"github.com/iiskills/backend-access/delivery"
	"github.com/iiskills/backend-access/helpers"
	"github.com/iiskills/backend-access/middleware"
	"github.com/iiskills/backend-access/models"
	"github.com/iiskills/backend-access/otp"
)

func main() {
	// Load environment variables
	mode := os.Getenv("GIN_MODE")
	if mode != "release" {
		gin.SetMode(gin.DebugMode)
		if err := godotenv.Load(); err != nil {
			log.Fatalln("Error loading .env file")
		}
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database connection
	db, err := models.Connect(dsnFromEnv())
	if err != nil {
		log.Fatalln(err)
	}

	// Construct every client once here and inject it; nothing below relies on
	// package-level initialization.
	otpStore := models.NewOTPStore(db)
	entitlementStore := models.NewEntitlementStore(db)

	emailSender := delivery.NewSMTPSender(delivery.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	})
	smsSender := delivery.NewTwilioSender(
		os.Getenv("TWILIO_ACCOUNT_SID"),
		os.Getenv("TWILIO_AUTH_TOKEN"),
		os.Getenv("TWILIO_FROM"),
	)

	otpService := otp.NewService(otpStore, emailSender, smsSender)
	registry := config.Default()
	checker := access.NewChecker(registry)

	// Redis-backed dispatch limiter; absent configuration disables limiting.
	var limiter *helpers.RateLimiter
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		limiter = helpers.NewRateLimiter(rdb, 15*time.Minute, 5, 60*time.Second)
	}

	// NATS eventing; absent configuration disables it.
	events, err := helpers.ConnectEvents(os.Getenv("NATS_URL"), otpService)
	if err != nil {
		log.Fatalln(err)
	}

	h := &controllers.Handler{
		OTP:          otpService,
		Registry:     registry,
		Access:       checker,
		Entitlements: entitlementStore,
		Writer:       entitlementStore,
		Limiter:      limiter,
		Events:       events,
	}

	// Initialize Gin server
	server := gin.New()
	server.Use(middleware.Recover())
	server.Use(gzip.Gzip(gzip.DefaultCompression))
	server.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"https://*.iiskills.cloud", "https://iiskills.cloud"},
		AllowWildcard: true,
		AllowMethods:  []string{"GET", "POST", "PUT"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:        12 * time.Hour,
	}))

	// New Relic APM when licensed
	if os.Getenv("RELIC_LICENSE_KEY") != "" {
		app, err := helpers.NewRelicConfig()
		if err != nil {
			log.Fatalln(err)
		}
		server.Use(nrgin.Middleware(app))
	}

	// Prometheus metrics
	helpers.CollectHTTPMetrics()
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Set api version group
	v1 := server.Group("/v1/api")
	v1.Use(middleware.Timeout(10 * time.Second))

	// v1 routes
	v1.GET("/health", h.HealthCheck)
	v1.POST("/otp/new", h.NewOTP)
	v1.POST("/otp/verify", h.CheckOTP)
	v1.GET("/otp/status", h.OTPStatus)
	v1.GET("/otp/stats", h.OTPStats)
	v1.POST("/access/check", h.CheckAccess)
	v1.GET("/access/status/:user_id", h.AccessStatus)
	v1.POST("/access/grant", h.GrantAccess)

	// initialize server
	s := &http.Server{
		Handler:      server,
		Addr:         os.Getenv("PORT"),
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	// start server
	go func() {
		log.Printf("Server is running on port %s", os.Getenv("PORT"))
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln(err)
		}
	}()

	// shut down on SIGINT/SIGTERM, draining NATS first
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := events.Drain(ctx); err != nil {
		log.Printf("NATS drain failed: %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
}

// dsnFromEnv builds the postgres DSN from the environment.
func dsnFromEnv() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable TimeZone=GMT",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)
}
