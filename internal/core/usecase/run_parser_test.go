package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// stubSite - управляемый адаптер сайта для тестов оркестратора.
type stubSite struct {
	name        string
	brands      []domain.BrandTarget
	brandsErr   error
	itemsPer    int
	fetchErrFor map[string]error
	emptyFor    map[string]bool

	fetchCalls  atomic.Int32
	lastPage    atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	fetchDelay  time.Duration
}

func (s *stubSite) SiteName() string { return s.name }
func (s *stubSite) BaseURL() string  { return "https://example.com" }

func (s *stubSite) ListBrands(context.Context, []string) ([]domain.BrandTarget, error) {
	if s.brandsErr != nil {
		return nil, s.brandsErr
	}
	return s.brands, nil
}

func (s *stubSite) FetchContent(_ context.Context, brand domain.BrandTarget, page int) (domain.RawPayload, error) {
	s.fetchCalls.Add(1)
	s.lastPage.Store(int32(page))

	current := s.inFlight.Add(1)
	for {
		peak := s.maxInFlight.Load()
		if current <= peak || s.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	if s.fetchDelay > 0 {
		time.Sleep(s.fetchDelay)
	}
	s.inFlight.Add(-1)

	if err, ok := s.fetchErrFor[brand.ID]; ok {
		return nil, err
	}
	if s.emptyFor[brand.ID] {
		return nil, nil
	}
	return domain.RawPayload(brand.ID), nil
}

func (s *stubSite) Parse(_ context.Context, payload domain.RawPayload, brand domain.BrandTarget) []domain.RawCarData {
	items := make([]domain.RawCarData, 0, s.itemsPer)
	for i := 0; i < s.itemsPer; i++ {
		items = append(items, domain.RawCarData{
			"make":  brand.Title,
			"model": "Model-" + strconv.Itoa(i),
			"year":  2015,
		})
	}
	return items
}

// stubFactory отдает один и тот же адаптер на любой известный siteID.
type stubFactory struct {
	site *stubSite
}

func (f *stubFactory) Create(siteID string) (port.SiteParserPort, error) {
	if f.site == nil || siteID != f.site.name {
		return nil, fmt.Errorf("site %q: %w", siteID, domain.ErrUnknownSite)
	}
	return f.site, nil
}

// stubIngest считает вызовы и решает судьбу элемента по модели.
type stubIngest struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]bool
	dupFor  map[string]bool
}

func (s *stubIngest) Ingest(_ context.Context, raw domain.RawCarData, _, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	model, _ := raw["model"].(string)
	if s.failFor[model] {
		return false, errors.New("ingest failed")
	}
	if s.dupFor[model] {
		return false, nil
	}
	return true, nil
}

func makeBrands(n int) []domain.BrandTarget {
	brands := make([]domain.BrandTarget, 0, n)
	for i := 0; i < n; i++ {
		id := "brand-" + strconv.Itoa(i)
		brands = append(brands, domain.BrandTarget{ID: id, Title: id})
	}
	return brands
}

func TestRunUnknownSite(t *testing.T) {
	site := &stubSite{name: "autoria", brands: makeBrands(3)}
	uc := NewRunParserUseCase(&stubFactory{site: site}, &stubIngest{})

	stats := uc.Run(context.Background(), "no-such-site", 2, nil)

	assert.Equal(t, domain.RunStats{Errors: 1}, stats)
	// До сети дело не доходит
	assert.Zero(t, site.fetchCalls.Load())
}

func TestRunListBrandsFailure(t *testing.T) {
	site := &stubSite{name: "autoria", brandsErr: errors.New("catalog unavailable")}
	uc := NewRunParserUseCase(&stubFactory{site: site}, &stubIngest{})

	stats := uc.Run(context.Background(), "autoria", 2, nil)

	assert.Equal(t, domain.RunStats{Errors: 1}, stats)
}

func TestRunEmptyBrandList(t *testing.T) {
	site := &stubSite{name: "autoria"}
	uc := NewRunParserUseCase(&stubFactory{site: site}, &stubIngest{})

	stats := uc.Run(context.Background(), "autoria", 2, []string{"nonexistent"})

	assert.Equal(t, domain.RunStats{}, stats)
}

func TestRunCountsPerOutcome(t *testing.T) {
	site := &stubSite{
		name:     "autoria",
		brands:   makeBrands(4),
		itemsPer: 2,
		fetchErrFor: map[string]error{
			"brand-1": errors.New("fetch exhausted"),
		},
		emptyFor: map[string]bool{"brand-2": true},
	}
	ingest := &stubIngest{
		dupFor:  map[string]bool{"Model-1": true},
		failFor: map[string]bool{},
	}
	uc := NewRunParserUseCase(&stubFactory{site: site}, ingest)

	stats := uc.Run(context.Background(), "autoria", 2, nil)

	// brand-1 падает на загрузке, brand-2 пустой; у brand-0 и brand-3
	// по два элемента, из которых Model-1 дубликат
	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 4, ingest.calls)
}

func TestRunIngestErrorsAreCounted(t *testing.T) {
	site := &stubSite{name: "autoria", brands: makeBrands(1), itemsPer: 3}
	ingest := &stubIngest{failFor: map[string]bool{"Model-0": true, "Model-2": true}}
	uc := NewRunParserUseCase(&stubFactory{site: site}, ingest)

	stats := uc.Run(context.Background(), "autoria", 1, nil)

	assert.Equal(t, domain.RunStats{Processed: 3, Saved: 1, Errors: 2}, stats)
}

func TestRunStatsIndependentOfConcurrency(t *testing.T) {
	build := func() (*stubSite, *stubIngest) {
		site := &stubSite{
			name:     "autoria",
			brands:   makeBrands(7),
			itemsPer: 3,
			fetchErrFor: map[string]error{
				"brand-4": errors.New("fetch exhausted"),
			},
		}
		ingest := &stubIngest{dupFor: map[string]bool{"Model-2": true}}
		return site, ingest
	}

	siteA, ingestA := build()
	statsSequential := NewRunParserUseCase(&stubFactory{site: siteA}, ingestA).
		Run(context.Background(), "autoria", 1, nil)

	siteB, ingestB := build()
	statsParallel := NewRunParserUseCase(&stubFactory{site: siteB}, ingestB).
		Run(context.Background(), "autoria", 3, nil)

	// Итог не зависит от разбиения на чанки и порядка завершения
	assert.Equal(t, statsSequential, statsParallel)
	assert.Equal(t, 18, statsParallel.Processed)
	assert.Equal(t, 12, statsParallel.Saved)
	assert.Equal(t, 1, statsParallel.Errors)
}

func TestRunBoundsConcurrency(t *testing.T) {
	site := &stubSite{
		name:       "autoria",
		brands:     makeBrands(12),
		itemsPer:   1,
		fetchDelay: 20 * time.Millisecond,
	}
	uc := NewRunParserUseCase(&stubFactory{site: site}, &stubIngest{})

	const concurrency = 3
	uc.Run(context.Background(), "autoria", concurrency, nil)

	assert.Equal(t, int32(12), site.fetchCalls.Load())
	assert.LessOrEqual(t, site.maxInFlight.Load(), int32(concurrency))
	// Параллелизм реально используется, а не деградирует до единицы
	assert.Greater(t, site.maxInFlight.Load(), int32(1))
}

func TestRunRequestsFirstPage(t *testing.T) {
	site := &stubSite{name: "autoria", brands: makeBrands(1), itemsPer: 1}
	uc := NewRunParserUseCase(&stubFactory{site: site}, &stubIngest{})

	uc.Run(context.Background(), "autoria", 1, nil)

	// Нумерация страниц на обоих сайтах начинается с единицы
	assert.Equal(t, int32(1), site.lastPage.Load())
}

func TestRunNormalizesConcurrency(t *testing.T) {
	site := &stubSite{name: "autoria", brands: makeBrands(2), itemsPer: 1}
	uc := NewRunParserUseCase(&stubFactory{site: site}, &stubIngest{})

	stats := uc.Run(context.Background(), "autoria", 0, nil)

	assert.Equal(t, domain.RunStats{Processed: 2, Saved: 2}, stats)
}
