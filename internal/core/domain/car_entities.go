package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawPayload — сырой ответ сайта (HTML-страница или JSON), который адаптер
// позже разбирает в объявления.
type RawPayload []byte

// RawCarData — одно объявление в том виде, в каком его отдал адаптер сайта,
// до нормализации. Набор ключей зависит от источника.
type RawCarData map[string]interface{}

// BrandTarget — марка, по которой адаптер делает запрос. Для HTML-сайтов
// достаточно Title, JSON-API дополнительно требуют внутренний ID марки.
type BrandTarget struct {
	ID    string
	Title string
}

// CarListing — каноническая запись объявления после нормализации.
// Внутри пайплайна она неизменяема: все правки после сохранения —
// зона ответственности хранилища.
type CarListing struct {
	ID             uuid.UUID
	Make           string
	Model          string
	Year           int
	Price          float64
	Mileage        int
	EngineType     string
	EngineCapacity string
	Transmission   string
	Location       string
	ImageURL       *string
	SourceURL      string
	SourceSite     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CarUpdate — частичное обновление записи через REST. nil-поля не трогаются.
type CarUpdate struct {
	Make           *string
	Model          *string
	Year           *int
	Price          *float64
	Mileage        *int
	EngineType     *string
	EngineCapacity *string
	Transmission   *string
	Location       *string
	ImageURL       *string
}

// RunStats — счетчики одного запуска парсера. Сложение ассоциативно и
// коммутативно, поэтому итог не зависит от порядка завершения задач.
type RunStats struct {
	Processed int `json:"processed"`
	Saved     int `json:"saved"`
	Errors    int `json:"errors"`
}

// Add прибавляет частичную статистику к аккумулятору.
func (s *RunStats) Add(other RunStats) {
	s.Processed += other.Processed
	s.Saved += other.Saved
	s.Errors += other.Errors
}
