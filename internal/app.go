package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	token_adapter "github.com/Thebloodraccoon/car-parser/internal/adapters/jwt"
	logger_adapter "github.com/Thebloodraccoon/car-parser/internal/adapters/logger"
	postgres_adapter "github.com/Thebloodraccoon/car-parser/internal/adapters/postgres"
	"github.com/Thebloodraccoon/car-parser/internal/adapters/rabbitmq"
	"github.com/Thebloodraccoon/car-parser/internal/adapters/rest"
	"github.com/Thebloodraccoon/car-parser/internal/adapters/sites"
	"github.com/Thebloodraccoon/car-parser/internal/configs"
	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
	"github.com/Thebloodraccoon/car-parser/internal/core/usecase"
	"github.com/Thebloodraccoon/car-parser/pkg/fluentlogger"
	"github.com/Thebloodraccoon/car-parser/pkg/postgres"
)

// App – структура приложения
type App struct {
	config    *configs.AppConfig
	dbPool    *pgxpool.Pool
	apiServer *rest.Server

	amqpConn      *amqp.Connection
	tasksConsumer *rabbitmq.TasksConsumer

	fluentClient *fluent.Fluent
	logger       port.LoggerPort
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Debug("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Debug("Successfully connected to PostgreSQL pool!", nil)

	carStorage := postgres_adapter.NewCarStorageAdapter(dbPool)
	userRepository := postgres_adapter.NewUserRepositoryAdapter(dbPool)

	tokenAdapter, err := token_adapter.NewTokenService(appConfig.JWT.SigningKey)
	if err != nil {
		appLogger.Error("Failed to create token service", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to create token adapter: %w", err)
	}

	retryPolicy := httpclient.DefaultRetryPolicy()
	retryPolicy.MaxAttempts = appConfig.Scraper.RetryMaxAttempts
	retryPolicy.Delay = appConfig.Scraper.RetryDelay

	fetchClient, err := httpclient.NewClient(httpclient.Config{
		Policy:   retryPolicy,
		ProxyURL: appConfig.Scraper.ProxyURL,
		Timeout:  appConfig.Scraper.RequestTimeout,
	})
	if err != nil {
		appLogger.Error("Failed to create HTTP client", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	siteFactory := sites.NewFactory(fetchClient)
	appLogger.Debug("All persistence and service adapters initialized.", nil)

	// --- 3. USE CASES ---
	ingestCarUseCase := usecase.NewIngestCarUseCase(carStorage)
	runParserUseCase := usecase.NewRunParserUseCase(siteFactory, ingestCarUseCase)
	loginUseCase := usecase.NewLoginUserUseCase(userRepository, tokenAdapter, appConfig.JWT.TTL)
	validateTokenUseCase := usecase.NewValidateTokenUseCase(tokenAdapter)
	appLogger.Debug("All use cases initialized.", nil)

	// Дефолтный админ, чтобы API был доступен сразу после первого запуска
	if appConfig.DefaultAdmin.Email != "" && appConfig.DefaultAdmin.Password != "" {
		seedCtx := contextkeys.ContextWithLogger(context.Background(), baseLogger)
		if err := seedDefaultAdmin(seedCtx, userRepository, appConfig.DefaultAdmin); err != nil {
			appLogger.Error("Failed to seed default admin", err, nil)
			dbPool.Close()
			return nil, fmt.Errorf("failed to seed default admin: %w", err)
		}
	}

	// --- 4. REST API Server ---
	apiHandlers := rest.NewCarHandler(carStorage, runParserUseCase, loginUseCase)
	apiServer := rest.NewServer(appConfig.HTTP.Port, apiHandlers, validateTokenUseCase, baseLogger)
	appLogger.Debug("REST API server configured.", nil)

	// --- 5. RabbitMQ (опционален) ---
	var amqpConn *amqp.Connection
	var tasksConsumer *rabbitmq.TasksConsumer
	if appConfig.RabbitMQ.Enabled {
		amqpConn, err = amqp.Dial(appConfig.RabbitMQ.URL)
		if err != nil {
			appLogger.Error("Failed to connect to RabbitMQ", err, nil)
			dbPool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}

		reporter, err := rabbitmq.NewRunReportsPublisher(amqpConn)
		if err != nil {
			appLogger.Error("Failed to create run reports publisher", err, nil)
			amqpConn.Close()
			dbPool.Close()
			return nil, err
		}

		tasksConsumer, err = rabbitmq.NewTasksConsumer(amqpConn, runParserUseCase, reporter, baseLogger)
		if err != nil {
			appLogger.Error("Failed to create tasks consumer", err, nil)
			amqpConn.Close()
			dbPool.Close()
			return nil, err
		}
		appLogger.Debug("RabbitMQ consumer configured.", nil)
	}

	application := &App{
		config:    appConfig,
		dbPool:    dbPool,
		apiServer: apiServer,

		amqpConn:      amqpConn,
		tasksConsumer: tasksConsumer,

		fluentClient: fluentClient,
		logger:       appLogger,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Debug("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := a.apiServer.Stop(shutdownCtx); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
			cancel()
		}

		if a.amqpConn != nil {
			if err := a.amqpConn.Close(); err != nil {
				a.logger.Error("Error closing RabbitMQ connection", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Debug("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Логируем в stdout, так как fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Debug("Starting HTTP server...", port.Fields{"port": a.config.HTTP.Port})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	if a.tasksConsumer != nil {
		go func() {
			if err := a.tasksConsumer.Run(appCtx); err != nil && appCtx.Err() == nil {
				serverErrors <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Debug("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
	}

	cancelApp()

	return nil
}

// seedDefaultAdmin создает администратора из конфига, если его еще нет.
func seedDefaultAdmin(ctx context.Context, users port.UserRepositoryPort, cfg configs.DefaultAdminConfig) error {
	_, err := users.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin := &domain.User{
		Email:        cfg.Email,
		PasswordHash: string(passwordHash),
		Role:         "admin",
	}

	if err := users.Create(ctx, admin); err != nil && !errors.Is(err, domain.ErrUserAlreadyExists) {
		return err
	}

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
