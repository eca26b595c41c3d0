package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	logger_adapter "github.com/Thebloodraccoon/car-parser/internal/adapters/logger"
	postgres_adapter "github.com/Thebloodraccoon/car-parser/internal/adapters/postgres"
	"github.com/Thebloodraccoon/car-parser/internal/adapters/sites"
	"github.com/Thebloodraccoon/car-parser/internal/configs"
	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
	"github.com/Thebloodraccoon/car-parser/internal/core/usecase"
	"github.com/Thebloodraccoon/car-parser/pkg/postgres"
)

// Разовый запуск парсера из командной строки, без REST и RabbitMQ.
func main() {
	siteID := flag.String("site", "", "site to parse (autoria, autobazar)")
	concurrency := flag.Int("concurrency", 0, "number of brands processed in parallel (default from config)")
	makes := flag.String("makes", "", "comma-separated list of makes to parse, empty means full catalog")
	flag.Parse()

	if *siteID == "" {
		fmt.Fprintln(os.Stderr, "usage: scrape -site <site> [-concurrency N] [-makes toyota,bmw]")
		os.Exit(2)
	}

	appConfig, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		IsJSON:   false,
		UseColor: true,
	}).WithFields(port.Fields{"service_name": appConfig.AppName})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = contextkeys.ContextWithLogger(ctx, logger)

	dbPool, err := postgres.NewClient(ctx, postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	retryPolicy := httpclient.DefaultRetryPolicy()
	retryPolicy.MaxAttempts = appConfig.Scraper.RetryMaxAttempts
	retryPolicy.Delay = appConfig.Scraper.RetryDelay

	fetchClient, err := httpclient.NewClient(httpclient.Config{
		Policy:   retryPolicy,
		ProxyURL: appConfig.Scraper.ProxyURL,
		Timeout:  appConfig.Scraper.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create HTTP client: %v", err)
	}

	ingestCarUseCase := usecase.NewIngestCarUseCase(postgres_adapter.NewCarStorageAdapter(dbPool))
	runParserUseCase := usecase.NewRunParserUseCase(sites.NewFactory(fetchClient), ingestCarUseCase)

	runConcurrency := *concurrency
	if runConcurrency < 1 {
		runConcurrency = appConfig.Scraper.Concurrency
	}

	var preferredMakes []string
	for _, name := range strings.Split(*makes, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			preferredMakes = append(preferredMakes, trimmed)
		}
	}

	stats := runParserUseCase.Run(ctx, *siteID, runConcurrency, preferredMakes)

	fmt.Printf("site=%s processed=%d saved=%d errors=%d\n", *siteID, stats.Processed, stats.Saved, stats.Errors)
	if stats.Errors > 0 {
		os.Exit(1)
	}
}
