package autobazar

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

const SiteName = "autobazar"

// AutoBazarAdapter отвечает за все взаимодействия с avtobazar.ua.
// В отличие от auto.ria сайт отдает готовый JSON API, так что и список
// марок, и объявления приходят структурированными.
type AutoBazarAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewAutoBazarAdapter - конструктор
func NewAutoBazarAdapter(client *httpclient.Client, baseURL string) *AutoBazarAdapter {
	if baseURL == "" {
		baseURL = constants.AutoBazarBaseURL
	}
	return &AutoBazarAdapter{
		client:  client,
		baseURL: baseURL,
	}
}

func (a *AutoBazarAdapter) SiteName() string { return SiteName }

func (a *AutoBazarAdapter) BaseURL() string { return a.baseURL }

// apiMake - один элемент справочника марок.
type apiMake struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// ListBrands загружает справочник марок сайта и оставляет только те, что
// указаны в preferred. ID марки нужен API объявлений как числовой фильтр.
func (a *AutoBazarAdapter) ListBrands(ctx context.Context, preferred []string) ([]domain.BrandTarget, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AutoBazarAdapter",
	})

	resp, err := a.client.Send(ctx, httpclient.Request{URL: a.baseURL + "/api/transports/makes/"})
	if err != nil {
		return nil, fmt.Errorf("autobazar: %w: %w", domain.ErrBrandCatalogUnavailable, err)
	}

	var makes []apiMake
	if err := json.Unmarshal(resp.Body, &makes); err != nil {
		return nil, fmt.Errorf("autobazar: %w: %w", domain.ErrBrandCatalogUnavailable, err)
	}

	wanted := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		wanted[normalizeTitle(name)] = true
	}

	brands := make([]domain.BrandTarget, 0, len(preferred))
	for _, m := range makes {
		if len(wanted) > 0 && !wanted[normalizeTitle(m.Title)] {
			continue
		}
		brands = append(brands, domain.BrandTarget{
			ID:    strconv.Itoa(m.ID),
			Title: m.Title,
		})
	}

	logger.Info("Resolved brand list", port.Fields{
		"requested": len(preferred),
		"resolved":  len(brands),
	})

	return brands, nil
}

// FetchContent загружает одну страницу объявлений по марке. Страница без
// результатов и не-200 ответ трактуются как отсутствие данных, а не как
// ошибка запуска.
func (a *AutoBazarAdapter) FetchContent(ctx context.Context, brand domain.BrandTarget, page int) (domain.RawPayload, error) {
	resp, err := a.client.Send(ctx, httpclient.Request{
		URL: a.baseURL + "/api/_posts/",
		Params: url.Values{
			"make":      {brand.ID},
			"page":      {strconv.Itoa(page)},
			"currency":  {"uah"},
			"transport": {"1"},
		},
	})
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			contextkeys.LoggerFromContext(ctx).Warn("Posts request rejected", port.Fields{
				"component": "AutoBazarAdapter",
				"brand":     brand.Title,
				"status":    statusErr.StatusCode,
			})
			return nil, nil
		}
		return nil, err
	}

	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("autobazar: failed to unmarshal posts response: %w", err)
	}
	if len(envelope.Results) == 0 {
		return nil, nil
	}

	return domain.RawPayload(resp.Body), nil
}

// normalizeTitle приводит название марки к регистронезависимому виду
// с дефисами вместо пробелов.
func normalizeTitle(name string) string {
	title := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(title), "-")
}
