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
	"github.com/gin-gonic/gin/binding"
	pbvalidator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/config"
	"github.com/yourorg/trade-approval/internal/events"
	"github.com/yourorg/trade-approval/internal/handler"
	"github.com/yourorg/trade-approval/internal/middleware"
	"github.com/yourorg/trade-approval/internal/repository"
	"github.com/yourorg/trade-approval/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Register custom binding rules
	if err := registerValidations(); err != nil {
		logger.Fatal("Failed to register binding rules", zap.Error(err))
	}

	// Initialize repository
	tradeRepo := repository.NewTradeRepository(logger)

	// Initialize audit publisher when enabled
	var publisher service.AuditPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Initialize services
	tradeService := service.NewTradeService(tradeRepo, publisher, logger)

	// Initialize handlers
	tradeHandler := handler.NewTradeHandler(tradeService, logger)

	// Set up HTTP server with Gin
	router := setupRouter(tradeHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// registerValidations adds the currency-code rule used by the binding tags
func registerValidations() error {
	v, ok := binding.Validator.Engine().(*pbvalidator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("currency", func(fl pbvalidator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) != 3 {
			return false
		}
		for _, r := range code {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	})
}

func setupRouter(tradeHandler *handler.TradeHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		trades := v1.Group("/trades")
		trades.Use(middleware.AuthMiddleware(logger))
		{
			trades.POST("", tradeHandler.CreateDraft)
			trades.GET("", tradeHandler.ListTrades)
			trades.GET("/:id", tradeHandler.GetTrade)
			trades.POST("/:id/actions", tradeHandler.SubmitAction)

			// Audit history endpoints
			trades.GET("/:id/history", tradeHandler.GetHistory)
			trades.GET("/:id/versions/:seq", tradeHandler.GetVersion)
			trades.GET("/:id/diff", tradeHandler.GetDiff)
		}
	}

	return router
}
