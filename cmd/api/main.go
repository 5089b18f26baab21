package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "go-auth-api/docs" // Swagger docs (generated)
	"go-auth-api/internal/auth"
	"go-auth-api/internal/config"
	"go-auth-api/internal/database"
	"go-auth-api/internal/email"
	httpServer "go-auth-api/internal/http"
	"go-auth-api/internal/logging"
	"go-auth-api/internal/ratelimit"
	"go-auth-api/internal/token"
	"go-auth-api/internal/user"
)

// @title           Go Auth API
// @version         1.0
// @description     A REST API with token-based authentication, role-based authorization and user management.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_codec", cfg.Token.Codec,
		"token_store", cfg.Token.Store,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateTables(context.Background(), db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize token subsystem
	codec, err := token.NewCodec(cfg.Token.Codec, cfg.Token.Secret)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	var tokenStore token.Store
	switch cfg.Token.Store {
	case config.StoreRedis:
		tokenStore = token.NewRedisStore(redisClient)
	default:
		tokenStore = token.NewRepository(db)
	}

	tokenService := token.NewService(tokenStore, codec, token.Durations{
		Access:        cfg.Token.AccessDuration,
		Refresh:       cfg.Token.RefreshDuration,
		ResetPassword: cfg.Token.ResetPasswordDuration,
		VerifyEmail:   cfg.Token.VerifyEmailDuration,
	})

	// Initialize user management
	permissions := auth.DefaultPermissions()
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService, logger, auth.RoleChangeAuthorizer(permissions))

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	// Initialize auth service
	authService := auth.NewService(userRepo, tokenService, emailService, logger)

	// Initialize HTTP handlers and middleware
	authHandler := auth.NewHandler(
		authService,
		rateLimiter,
		logger,
		!cfg.Server.IsDevelopment(), // isProduction
		cfg.Token.AccessDuration,
		cfg.Token.RefreshDuration,
	)
	authorizer := auth.NewAuthorizer(codec, userRepo, permissions)
	authMiddleware := auth.NewMiddleware(authorizer)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, userHandler, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
