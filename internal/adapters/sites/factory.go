package sites

import (
	"fmt"
	"strings"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/autobazar"
	"github.com/Thebloodraccoon/car-parser/internal/adapters/autoria"
	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// Factory создает адаптер сайта по его идентификатору. Все адаптеры
// разделяют один HTTP-клиент, а значит и политику ретраев с прокси.
type Factory struct {
	registry map[string]func() port.SiteParserPort
}

// NewFactory - конструктор
func NewFactory(client *httpclient.Client) *Factory {
	return &Factory{
		registry: map[string]func() port.SiteParserPort{
			autoria.SiteName: func() port.SiteParserPort {
				return autoria.NewAutoRiaAdapter(client, "")
			},
			autobazar.SiteName: func() port.SiteParserPort {
				return autobazar.NewAutoBazarAdapter(client, "")
			},
		},
	}
}

// Create возвращает адаптер для siteID без учета регистра.
func (f *Factory) Create(siteID string) (port.SiteParserPort, error) {
	construct, ok := f.registry[strings.ToLower(strings.TrimSpace(siteID))]
	if !ok {
		return nil, fmt.Errorf("site %q: %w", siteID, domain.ErrUnknownSite)
	}
	return construct(), nil
}

// SupportedSites возвращает идентификаторы всех зарегистрированных сайтов.
func (f *Factory) SupportedSites() []string {
	names := make([]string, 0, len(f.registry))
	for name := range f.registry {
		names = append(names, name)
	}
	return names
}
