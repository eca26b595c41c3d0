package autoria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	"github.com/Thebloodraccoon/car-parser/internal/constants"
	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

const SiteName = "autoria"

// AutoRiaAdapter отвечает за все взаимодействия с auto.ria.com:
// список марок берет из справочника NHTSA, страницы объявлений
// загружает как HTML и разбирает через goquery.
type AutoRiaAdapter struct {
	client     *httpclient.Client
	baseURL    string
	catalogURL string
}

// NewAutoRiaAdapter - конструктор
func NewAutoRiaAdapter(client *httpclient.Client, baseURL string) *AutoRiaAdapter {
	if baseURL == "" {
		baseURL = constants.AutoRiaBaseURL
	}
	return &AutoRiaAdapter{
		client:     client,
		baseURL:    baseURL,
		catalogURL: constants.NHTSAMakesURL,
	}
}

func (a *AutoRiaAdapter) SiteName() string { return SiteName }

func (a *AutoRiaAdapter) BaseURL() string { return a.baseURL }

// nhtsaMakesResponse - структура ответа справочника марок NHTSA.
type nhtsaMakesResponse struct {
	Results []struct {
		MakeName string `json:"Make_Name"`
	} `json:"Results"`
}

// ListBrands загружает полный каталог марок и оставляет только те, что
// указаны в preferred. Пустой preferred означает весь каталог.
func (a *AutoRiaAdapter) ListBrands(ctx context.Context, preferred []string) ([]domain.BrandTarget, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AutoRiaAdapter",
	})

	resp, err := a.client.Send(ctx, httpclient.Request{URL: a.catalogURL})
	if err != nil {
		return nil, fmt.Errorf("autoria: %w: %w", domain.ErrBrandCatalogUnavailable, err)
	}

	var catalog nhtsaMakesResponse
	if err := json.Unmarshal(resp.Body, &catalog); err != nil {
		return nil, fmt.Errorf("autoria: %w: %w", domain.ErrBrandCatalogUnavailable, err)
	}

	wanted := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		wanted[brandSlug(name)] = true
	}

	brands := make([]domain.BrandTarget, 0, len(preferred))
	for _, result := range catalog.Results {
		slug := brandSlug(result.MakeName)
		if len(wanted) > 0 && !wanted[slug] {
			continue
		}
		brands = append(brands, domain.BrandTarget{
			ID:    slug,
			Title: result.MakeName,
		})
	}

	logger.Info("Resolved brand list", port.Fields{
		"requested": len(preferred),
		"resolved":  len(brands),
	})

	return brands, nil
}

// FetchContent загружает одну страницу поисковой выдачи по марке.
// Не-200 ответ означает, что страницы для марки нет (многие марки
// каталога на сайте не представлены), это не ошибка запуска.
func (a *AutoRiaAdapter) FetchContent(ctx context.Context, brand domain.BrandTarget, page int) (domain.RawPayload, error) {
	pageURL := fmt.Sprintf("%s/uk/car/%s/", a.baseURL, brand.ID)

	resp, err := a.client.Send(ctx, httpclient.Request{
		URL:    pageURL,
		Params: url.Values{"page": {strconv.Itoa(page)}},
	})
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			contextkeys.LoggerFromContext(ctx).Warn("Brand page not available", port.Fields{
				"component": "AutoRiaAdapter",
				"brand":     brand.Title,
				"status":    statusErr.StatusCode,
			})
			return nil, nil
		}
		return nil, err
	}

	return domain.RawPayload(resp.Body), nil
}

// brandSlug приводит название марки к виду, который auto.ria использует
// в URL: нижний регистр, пробелы заменены дефисами.
func brandSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(slug), "-")
}
