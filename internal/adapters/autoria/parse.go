package autoria

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

var (
	digitsRe  = regexp.MustCompile(`\d+`)
	mileageRe = regexp.MustCompile(`(\d+)\s*тис`)
)

// Parse разбирает HTML-страницу поисковой выдачи и возвращает сырые
// записи объявлений. Каждая карточка обрабатывается независимо:
// сломанная верстка одной не роняет остальные.
func (a *AutoRiaAdapter) Parse(ctx context.Context, payload domain.RawPayload, brand domain.BrandTarget) []domain.RawCarData {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AutoRiaAdapter",
		"brand":     brand.Title,
	})

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		logger.Error("Failed to parse page HTML", err, nil)
		return nil
	}

	var items []domain.RawCarData

	doc.Find("section.ticket-item").Each(func(_ int, card *goquery.Selection) {
		item := a.parseCard(card, brand)
		if item != nil {
			items = append(items, item)
		}
	})

	logger.Debug("Parsed listing page", port.Fields{"items": len(items)})

	return items
}

// parseCard извлекает поля одной карточки. Кладутся только реально
// найденные значения: подстановку умолчаний делает нормализатор.
func (a *AutoRiaAdapter) parseCard(card *goquery.Selection, brand domain.BrandTarget) domain.RawCarData {
	item := domain.RawCarData{"source_site": SiteName}

	data := card.Find("div[data-advertisement-data]").First()

	if mark := strings.TrimSpace(data.AttrOr("data-mark-name", "")); mark != "" {
		item["make"] = mark
	} else if brand.Title != "" {
		item["make"] = brand.Title
	}

	if model := strings.TrimSpace(data.AttrOr("data-model-name", "")); model != "" {
		item["model"] = model
	}

	if yearStr := strings.TrimSpace(data.AttrOr("data-year", "")); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			item["year"] = year
		} else {
			item["year"] = yearStr
		}
	}

	if link := strings.TrimSpace(data.AttrOr("data-link-to-view", "")); link != "" {
		item["source_url"] = absoluteURL(a.baseURL, link)
	}

	if priceText := card.Find(`span[data-currency="UAH"]`).First().Text(); priceText != "" {
		if price, ok := parsePriceUAH(priceText); ok {
			item["price"] = price
		}
	}

	card.Find("ul.unstyle.characteristic li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if text == "" {
			return
		}

		switch {
		case li.HasClass("js-race"):
			if m := mileageRe.FindStringSubmatch(text); m != nil {
				if thousands, err := strconv.Atoi(m[1]); err == nil {
					item["mileage"] = thousands * 1000
				}
			}
		case li.Find("i.icon-location").Length() > 0:
			item["location"] = text
		case li.Find("i.icon-fuel").Length() > 0:
			engineType, capacity := splitEngine(text)
			if engineType != "" {
				item["engine_type"] = engineType
			}
			if capacity != "" {
				item["engine_capacity"] = capacity
			}
		case li.Find("i.icon-transmission").Length() > 0:
			item["transmission"] = text
		}
	})

	if src := strings.TrimSpace(card.Find("div.ticket-photo img").First().AttrOr("src", "")); src != "" {
		item["image_url"] = absoluteURL(a.baseURL, src)
	}

	// Карточка без ссылки на объявление - рекламная вставка, пропускаем
	if _, ok := item["source_url"]; !ok {
		return nil
	}

	return item
}

// parsePriceUAH вычищает из текста цены пробелы и символ валюты.
func parsePriceUAH(text string) (float64, bool) {
	digits := digitsRe.FindAllString(text, -1)
	if len(digits) == 0 {
		return 0, false
	}
	price, err := strconv.ParseFloat(strings.Join(digits, ""), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// splitEngine делит строку вида "Бензин, 2 л." на тип топлива и объем.
func splitEngine(text string) (engineType, capacity string) {
	parts := strings.SplitN(text, ",", 2)
	engineType = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		capacity = strings.TrimSpace(parts[1])
	}
	return engineType, capacity
}

// absoluteURL достраивает относительные и протокол-относительные ссылки.
func absoluteURL(baseURL, link string) string {
	switch {
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		return baseURL + link
	default:
		return link
	}
}
