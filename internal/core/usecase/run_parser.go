package usecase

import (
	"context"
	"sync"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
	usecases_port "github.com/Thebloodraccoon/car-parser/internal/core/port/usecases"
)

// RunParserUseCase — оркестратор одного запуска: разбивает марки на
// чанки, обходит их горутинами под общим семафором и сводит статистику.
type RunParserUseCase struct {
	factory  port.SiteFactoryPort
	ingestUC usecases_port.IngestCarPort
}

// NewRunParserUseCase - конструктор
func NewRunParserUseCase(factory port.SiteFactoryPort, ingestUC usecases_port.IngestCarPort) *RunParserUseCase {
	return &RunParserUseCase{
		factory:  factory,
		ingestUC: ingestUC,
	}
}

// Run выполняет запуск по сайту. Ошибки внутри запуска превращаются в
// счетчик Errors; сама операция ошибку не возвращает никогда.
func (uc *RunParserUseCase) Run(ctx context.Context, siteID string, concurrency int, preferredBrands []string) domain.RunStats {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "RunParserUseCase",
		"site":      siteID,
	})

	if concurrency < 1 {
		concurrency = 1
	}

	site, err := uc.factory.Create(siteID)
	if err != nil {
		logger.Error("Unknown site requested", err, nil)
		return domain.RunStats{Errors: 1}
	}

	brands, err := site.ListBrands(ctx, preferredBrands)
	if err != nil {
		logger.Error("Failed to list brands", err, nil)
		return domain.RunStats{Errors: 1}
	}
	if len(brands) == 0 {
		logger.Warn("No brands resolved for run", port.Fields{"preferred": len(preferredBrands)})
		return domain.RunStats{}
	}

	logger.Info("Starting parser run", port.Fields{
		"brands":      len(brands),
		"concurrency": concurrency,
	})

	// Марки делятся на непрерывные чанки, по горутине на чанк. Внутри
	// чанка обход последовательный, общий семафор ограничивает число
	// марок в обработке в любой момент времени.
	chunkSize := (len(brands) + concurrency - 1) / concurrency
	sem := make(chan struct{}, concurrency)
	statsChan := make(chan domain.RunStats, concurrency)

	var wg sync.WaitGroup
	for start := 0; start < len(brands); start += chunkSize {
		end := start + chunkSize
		if end > len(brands) {
			end = len(brands)
		}

		wg.Add(1)
		go func(chunk []domain.BrandTarget) {
			defer wg.Done()

			var chunkStats domain.RunStats
			for _, brand := range chunk {
				chunkStats.Add(uc.processBrand(ctx, site, brand, sem))
			}
			statsChan <- chunkStats
		}(brands[start:end])
	}

	wg.Wait()
	close(statsChan)

	var total domain.RunStats
	for chunkStats := range statsChan {
		total.Add(chunkStats)
	}

	logger.Info("Parser run finished", port.Fields{
		"processed": total.Processed,
		"saved":     total.Saved,
		"errors":    total.Errors,
	})

	return total
}

// processBrand обрабатывает одну марку под семафором: загрузка страницы,
// разбор и прогон каждого объявления через воронку сохранения.
func (uc *RunParserUseCase) processBrand(ctx context.Context, site port.SiteParserPort, brand domain.BrandTarget, sem chan struct{}) domain.RunStats {
	sem <- struct{}{}
	defer func() { <-sem }()

	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "RunParserUseCase",
		"site":      site.SiteName(),
		"brand":     brand.Title,
	})

	var stats domain.RunStats

	payload, err := site.FetchContent(ctx, brand, 1)
	if err != nil {
		logger.Error("Failed to fetch brand page", err, nil)
		stats.Errors++
		return stats
	}
	if payload == nil {
		logger.Warn("No content for brand", nil)
		return stats
	}

	items := site.Parse(ctx, payload, brand)
	stats.Processed = len(items)

	for _, raw := range items {
		saved, err := uc.ingestUC.Ingest(ctx, raw, site.BaseURL(), site.SiteName())
		if err != nil {
			logger.Error("Failed to ingest item", err, nil)
			stats.Errors++
			continue
		}
		if saved {
			stats.Saved++
		}
	}

	return stats
}
