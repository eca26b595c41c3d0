package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// CarStorageAdapter хранит объявления в PostgreSQL через pgxpool.
type CarStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewCarStorageAdapter - конструктор
func NewCarStorageAdapter(pool *pgxpool.Pool) *CarStorageAdapter {
	return &CarStorageAdapter{pool: pool}
}

// Exists проверяет наличие записи по натуральному ключу. Условие строится
// динамически: в сравнении участвуют только поля, присутствующие в ключе,
// отсутствующее поле не ограничивает выборку.
func (a *CarStorageAdapter) Exists(ctx context.Context, key domain.NaturalKey) (bool, error) {
	conditions := make([]string, 0, len(key))
	args := make([]interface{}, 0, len(key))

	for _, field := range domain.NaturalKeyFields {
		value, ok := key[field]
		if !ok {
			continue
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", field, len(args)))
	}

	if len(conditions) == 0 {
		return false, fmt.Errorf("CarStorageAdapter: natural key is empty")
	}

	query := "SELECT EXISTS (SELECT 1 FROM cars WHERE " + strings.Join(conditions, " AND ") + ")"

	var exists bool
	if err := a.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("CarStorageAdapter: failed to check car existence: %w", err)
	}

	return exists, nil
}

// Insert сохраняет новую запись. Дубликаты отсекаются раньше через Exists,
// поэтому здесь обычный INSERT без ON CONFLICT.
func (a *CarStorageAdapter) Insert(ctx context.Context, car domain.CarListing) (uuid.UUID, error) {
	query := `INSERT INTO cars
		(id, make, model, year, price, mileage, engine_type, engine_capacity,
		 transmission, location, image_url, source_url, source_site, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	id := car.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()

	_, err := a.pool.Exec(ctx, query,
		id, car.Make, car.Model, car.Year, car.Price, car.Mileage,
		car.EngineType, car.EngineCapacity, car.Transmission, car.Location,
		car.ImageURL, car.SourceURL, car.SourceSite, now, now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("CarStorageAdapter: failed to insert car: %w", err)
	}

	return id, nil
}

const carColumns = `id, make, model, year, price, mileage, engine_type, engine_capacity,
	transmission, location, image_url, source_url, source_site, created_at, updated_at`

func (a *CarStorageAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.CarListing, error) {
	query := "SELECT " + carColumns + " FROM cars WHERE id = $1"

	car, err := scanCar(a.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCarNotFound
		}
		return nil, fmt.Errorf("CarStorageAdapter: failed to get car %s: %w", id, err)
	}

	return car, nil
}

func (a *CarStorageAdapter) List(ctx context.Context, filter port.CarFilter) ([]domain.CarListing, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if filter.Make != nil {
		args = append(args, *filter.Make)
		conditions = append(conditions, fmt.Sprintf("make ILIKE $%d", len(args)))
	}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)))
	}

	query := "SELECT " + carColumns + " FROM cars"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("CarStorageAdapter: failed to query cars: %w", err)
	}
	defer rows.Close()

	var cars []domain.CarListing
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("CarStorageAdapter: failed to scan car row: %w", err)
		}
		cars = append(cars, *car)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("CarStorageAdapter: error during cars iteration: %w", err)
	}

	return cars, nil
}

// Update применяет частичное обновление: SET собирается только из
// ненулевых полей патча.
func (a *CarStorageAdapter) Update(ctx context.Context, id uuid.UUID, patch domain.CarUpdate) (*domain.CarListing, error) {
	assignments := make([]string, 0, 10)
	args := make([]interface{}, 0, 11)

	addAssignment := func(column string, value interface{}) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Make != nil {
		addAssignment("make", *patch.Make)
	}
	if patch.Model != nil {
		addAssignment("model", *patch.Model)
	}
	if patch.Year != nil {
		addAssignment("year", *patch.Year)
	}
	if patch.Price != nil {
		addAssignment("price", *patch.Price)
	}
	if patch.Mileage != nil {
		addAssignment("mileage", *patch.Mileage)
	}
	if patch.EngineType != nil {
		addAssignment("engine_type", *patch.EngineType)
	}
	if patch.EngineCapacity != nil {
		addAssignment("engine_capacity", *patch.EngineCapacity)
	}
	if patch.Transmission != nil {
		addAssignment("transmission", *patch.Transmission)
	}
	if patch.Location != nil {
		addAssignment("location", *patch.Location)
	}
	if patch.ImageURL != nil {
		addAssignment("image_url", *patch.ImageURL)
	}

	if len(assignments) == 0 {
		return a.GetByID(ctx, id)
	}

	addAssignment("updated_at", time.Now().UTC())

	args = append(args, id)
	query := "UPDATE cars SET " + strings.Join(assignments, ", ") +
		fmt.Sprintf(" WHERE id = $%d RETURNING ", len(args)) + carColumns

	car, err := scanCar(a.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCarNotFound
		}
		return nil, fmt.Errorf("CarStorageAdapter: failed to update car %s: %w", id, err)
	}

	return car, nil
}

func (a *CarStorageAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := a.pool.Exec(ctx, "DELETE FROM cars WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("CarStorageAdapter: failed to delete car %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCarNotFound
	}
	return nil
}

// scanCar читает одну строку cars в доменную структуру.
func scanCar(row pgx.Row) (*domain.CarListing, error) {
	var car domain.CarListing
	err := row.Scan(
		&car.ID, &car.Make, &car.Model, &car.Year, &car.Price, &car.Mileage,
		&car.EngineType, &car.EngineCapacity, &car.Transmission, &car.Location,
		&car.ImageURL, &car.SourceURL, &car.SourceSite, &car.CreatedAt, &car.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &car, nil
}
