package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Значения по умолчанию для канонической записи.
const (
	UnknownValue = "Unknown"
	DefaultYear  = 2000
	MinYear      = 1900
	MaxYear      = 2030
)

// Normalize превращает сырое объявление в каноническую запись CarListing.
// Отсутствующие и невалидные значения заменяются на документированные
// дефолты; год вне диапазона [1900, 2030] сбрасывается на 2000, отрицательные
// цена и пробег — на ноль. Поле, которое вообще нельзя привести к нужному
// типу, валит весь элемент с *ValidationError.
func Normalize(raw RawCarData, baseURL, siteName string) (CarListing, error) {
	now := time.Now().UTC()

	car := CarListing{
		ID:             uuid.New(),
		Make:           stringOrUnknown(raw["make"]),
		Model:          stringOrUnknown(raw["model"]),
		Year:           normalizeYear(raw["year"]),
		EngineType:     stringOrUnknown(raw["engine_type"]),
		EngineCapacity: stringOrUnknown(raw["engine_capacity"]),
		Transmission:   stringOrUnknown(raw["transmission"]),
		Location:       stringOrUnknown(raw["location"]),
		SourceSite:     siteName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if site := stringOrEmpty(raw["source_site"]); site != "" {
		car.SourceSite = site
	}
	if car.SourceSite == "" {
		car.SourceSite = UnknownValue
	}

	price, err := normalizePrice(raw["price"])
	if err != nil {
		return CarListing{}, err
	}
	car.Price = price

	mileage, err := normalizeMileage(raw["mileage"])
	if err != nil {
		return CarListing{}, err
	}
	car.Mileage = mileage

	// source_url обязателен: относительная или битая ссылка откатывается
	// на базовый URL сайта.
	sourceURL := stringOrEmpty(raw["source_url"])
	if !isAbsoluteURL(sourceURL) {
		sourceURL = baseURL
	}
	car.SourceURL = sourceURL

	// image_url опционален: битая ссылка просто отбрасывается,
	// никаких плейсхолдеров.
	if imageURL := stringOrEmpty(raw["image_url"]); isAbsoluteURL(imageURL) {
		car.ImageURL = &imageURL
	}

	return car, nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func stringOrEmpty(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func stringOrUnknown(v interface{}) string {
	if s := stringOrEmpty(v); s != "" {
		return s
	}
	return UnknownValue
}

func normalizeYear(v interface{}) int {
	year, ok := coerceInt(v)
	if !ok || year < MinYear || year > MaxYear {
		return DefaultYear
	}
	return year
}

func normalizePrice(v interface{}) (float64, error) {
	if v == nil {
		return 0, nil
	}
	price, ok := coerceFloat(v)
	if !ok {
		return 0, &ValidationError{Field: "price", Value: v, Reason: "not a number"}
	}
	if price < 0 {
		return 0, nil
	}
	return price, nil
}

func normalizeMileage(v interface{}) (int, error) {
	if v == nil {
		return 0, nil
	}
	mileage, ok := coerceInt(v)
	if !ok {
		return 0, &ValidationError{Field: "mileage", Value: v, Reason: "not an integer"}
	}
	if mileage < 0 {
		return 0, nil
	}
	return mileage, nil
}

// coerceFloat приводит значение к float64. JSON-числа приходят как float64
// или json.Number, значения из HTML — как строки.
func coerceFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		return i, err == nil
	default:
		return 0, false
	}
}
