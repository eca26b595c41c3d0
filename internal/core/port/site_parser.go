package port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// SiteParserPort — контракт адаптера одного сайта-источника. Адаптер знает,
// как спросить сайт и как прочитать его ответ; оркестратор про сайты не
// знает ничего, поэтому новый источник — это только новый адаптер.
type SiteParserPort interface {
	// SiteName — человекочитаемое имя источника, попадает в source_site.
	SiteName() string

	// BaseURL — базовый адрес сайта, fallback для битых source_url.
	BaseURL() string

	// ListBrands возвращает каталог марок адаптера. Если preferred не пуст,
	// возвращается только пересечение каталога с этим списком (сравнение
	// без учета регистра, пробелы схлопываются в один разделитель).
	ListBrands(ctx context.Context, preferred []string) ([]domain.BrandTarget, error)

	// FetchContent забирает страницу объявлений марки. На не-200 ответ
	// возвращает (nil, nil) с записью причины в лог; ошибка HTTP-клиента
	// после исчерпания ретраев возвращается как ошибка.
	FetchContent(ctx context.Context, brand domain.BrandTarget, page int) (domain.RawPayload, error)

	// Parse разбирает страницу в список сырых объявлений. Сломанный элемент
	// пропускается индивидуально и не портит остальные. Элемент без своей
	// марки наследует марку запроса.
	Parse(ctx context.Context, payload domain.RawPayload, brand domain.BrandTarget) []domain.RawCarData
}

// SiteFactoryPort создает адаптер по строковому идентификатору сайта.
type SiteFactoryPort interface {
	Create(siteID string) (SiteParserPort, error)
}
