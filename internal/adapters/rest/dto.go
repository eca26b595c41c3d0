package rest

import (
	"time"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// CarResponse - DTO одного объявления.
type CarResponse struct {
	ID             string    `json:"id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	Price          float64   `json:"price"`
	Mileage        int       `json:"mileage"`
	EngineType     string    `json:"engine_type"`
	EngineCapacity string    `json:"engine_capacity"`
	Transmission   string    `json:"transmission"`
	Location       string    `json:"location"`
	ImageURL       *string   `json:"image_url,omitempty"`
	SourceURL      string    `json:"source_url"`
	SourceSite     string    `json:"source_site"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toCarResponse(car *domain.CarListing) CarResponse {
	return CarResponse{
		ID:             car.ID.String(),
		Make:           car.Make,
		Model:          car.Model,
		Year:           car.Year,
		Price:          car.Price,
		Mileage:        car.Mileage,
		EngineType:     car.EngineType,
		EngineCapacity: car.EngineCapacity,
		Transmission:   car.Transmission,
		Location:       car.Location,
		ImageURL:       car.ImageURL,
		SourceURL:      car.SourceURL,
		SourceSite:     car.SourceSite,
		CreatedAt:      car.CreatedAt,
		UpdatedAt:      car.UpdatedAt,
	}
}

// UpdateCarRequest - частичное обновление записи, nil-поля не трогаются.
type UpdateCarRequest struct {
	Make           *string  `json:"make"`
	Model          *string  `json:"model"`
	Year           *int     `json:"year"`
	Price          *float64 `json:"price"`
	Mileage        *int     `json:"mileage"`
	EngineType     *string  `json:"engine_type"`
	EngineCapacity *string  `json:"engine_capacity"`
	Transmission   *string  `json:"transmission"`
	Location       *string  `json:"location"`
	ImageURL       *string  `json:"image_url"`
}

func (r *UpdateCarRequest) toDomain() domain.CarUpdate {
	return domain.CarUpdate{
		Make:           r.Make,
		Model:          r.Model,
		Year:           r.Year,
		Price:          r.Price,
		Mileage:        r.Mileage,
		EngineType:     r.EngineType,
		EngineCapacity: r.EngineCapacity,
		Transmission:   r.Transmission,
		Location:       r.Location,
		ImageURL:       r.ImageURL,
	}
}

// StartRunRequest - запуск парсера через REST.
type StartRunRequest struct {
	Site        string   `json:"site"`
	Concurrency int      `json:"concurrency"`
	Makes       []string `json:"makes"`
}

// RunResponse - итог запуска.
type RunResponse struct {
	Site  string          `json:"site"`
	Stats domain.RunStats `json:"stats"`
}

// LoginRequest - учетные данные.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse - выданный токен доступа.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}
