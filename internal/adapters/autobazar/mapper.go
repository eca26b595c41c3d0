package autobazar

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// Курс для объявлений, у которых цена указана только в долларах.
const usdToUAHRate = 41.5

// apiPost - структура одного объявления из API.
type apiPost struct {
	MakeTitle string `json:"make_title"`
	Make      *struct {
		Title string `json:"title"`
	} `json:"make"`
	Model *struct {
		Title string `json:"title"`
	} `json:"model"`
	Year  *int `json:"year"`
	Price *struct {
		UAH *float64 `json:"uah"`
		USD *float64 `json:"usd"`
	} `json:"price"`
	Mileage  *int     `json:"mileage"`
	Capacity *float64 `json:"capacity"`
	Engine   *struct {
		Title string `json:"title"`
	} `json:"engine"`
	Gearbox *struct {
		Title string `json:"title"`
	} `json:"gearbox"`
	Location *struct {
		Title string `json:"title"`
	} `json:"location"`
	Photos []struct {
		Image string `json:"image"`
	} `json:"photos"`
	Permalink string `json:"permalink"`
}

// Parse разбирает JSON страницы объявлений. Каждый элемент results
// декодируется отдельно: битая запись пропускается, остальные выживают.
func (a *AutoBazarAdapter) Parse(ctx context.Context, payload domain.RawPayload, brand domain.BrandTarget) []domain.RawCarData {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AutoBazarAdapter",
		"brand":     brand.Title,
	})

	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logger.Error("Failed to parse posts payload", err, nil)
		return nil
	}

	items := make([]domain.RawCarData, 0, len(envelope.Results))
	for _, raw := range envelope.Results {
		var post apiPost
		if err := json.Unmarshal(raw, &post); err != nil {
			logger.Warn("Skipping malformed post", port.Fields{"error": err.Error()})
			continue
		}
		items = append(items, a.toRawCarData(post, brand))
	}

	logger.Debug("Parsed listing page", port.Fields{"items": len(items)})

	return items
}

// toRawCarData собирает сырую запись. Кладутся только присутствующие
// поля: подстановку умолчаний делает нормализатор.
func (a *AutoBazarAdapter) toRawCarData(post apiPost, brand domain.BrandTarget) domain.RawCarData {
	item := domain.RawCarData{"source_site": SiteName}

	switch {
	case post.MakeTitle != "":
		item["make"] = post.MakeTitle
	case post.Make != nil && post.Make.Title != "":
		item["make"] = post.Make.Title
	case brand.Title != "":
		item["make"] = brand.Title
	}

	if post.Model != nil && post.Model.Title != "" {
		item["model"] = post.Model.Title
	}
	if post.Year != nil {
		item["year"] = *post.Year
	}

	if post.Price != nil {
		switch {
		case post.Price.UAH != nil:
			item["price"] = *post.Price.UAH
		case post.Price.USD != nil:
			item["price"] = *post.Price.USD * usdToUAHRate
		}
	}

	if post.Mileage != nil {
		item["mileage"] = *post.Mileage
	}
	if post.Capacity != nil {
		item["engine_capacity"] = strconv.FormatFloat(*post.Capacity, 'f', -1, 64)
	}
	if post.Engine != nil && post.Engine.Title != "" {
		item["engine_type"] = post.Engine.Title
	}
	if post.Gearbox != nil && post.Gearbox.Title != "" {
		item["transmission"] = post.Gearbox.Title
	}
	if post.Location != nil && post.Location.Title != "" {
		item["location"] = post.Location.Title
	}
	if len(post.Photos) > 0 && post.Photos[0].Image != "" {
		item["image_url"] = post.Photos[0].Image
	}
	if post.Permalink != "" {
		item["source_url"] = post.Permalink
	}

	return item
}
