package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
	usecases_port "github.com/Thebloodraccoon/car-parser/internal/core/port/usecases"
)

type CarHandler struct {
	storage     port.CarStoragePort
	runParserUC usecases_port.RunParserPort
	loginUC     usecases_port.LoginUserPort
}

// NewCarHandler - конструктор
func NewCarHandler(
	storage port.CarStoragePort,
	runParserUC usecases_port.RunParserPort,
	loginUC usecases_port.LoginUserPort,
) *CarHandler {
	return &CarHandler{
		storage:     storage,
		runParserUC: runParserUC,
		loginUC:     loginUC,
	}
}

func (h *CarHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "ListCars"})

	limit, err := GetLimitOrDefault(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
		return
	}
	offset, err := GetOffsetOrDefault(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid 'offset' parameter")
		return
	}

	filter := port.CarFilter{Limit: limit, Offset: offset}
	if makeParam := r.URL.Query().Get("make"); makeParam != "" {
		filter.Make = &makeParam
	}
	if yearParam := r.URL.Query().Get("year"); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid 'year' parameter")
			return
		}
		filter.Year = &year
	}

	cars, err := h.storage.List(r.Context(), filter)
	if err != nil {
		logger.Error("Failed to list cars", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrieve cars")
		return
	}

	carResponses := make([]CarResponse, len(cars))
	for i := range cars {
		carResponses[i] = toCarResponse(&cars[i])
	}

	RespondWithJSON(w, http.StatusOK, carResponses)
}

func (h *CarHandler) GetCarByID(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "GetCarByID"})

	carID, err := uuid.Parse(chi.URLParam(r, "carID"))
	if err != nil {
		logger.Warn("Invalid car ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "carID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid car ID in URL")
		return
	}

	car, err := h.storage.GetByID(r.Context(), carID)
	if err != nil {
		if errors.Is(err, domain.ErrCarNotFound) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("Failed to get car by ID", err, port.Fields{"car_id": carID.String()})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrieve car")
		return
	}

	RespondWithJSON(w, http.StatusOK, toCarResponse(car))
}

func (h *CarHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "UpdateCar"})

	carID, err := uuid.Parse(chi.URLParam(r, "carID"))
	if err != nil {
		logger.Warn("Invalid car ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "carID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid car ID in URL")
		return
	}

	var req UpdateCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode update car request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	car, err := h.storage.Update(r.Context(), carID, req.toDomain())
	if err != nil {
		if errors.Is(err, domain.ErrCarNotFound) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("Failed to update car", err, port.Fields{"car_id": carID.String()})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to update car")
		return
	}

	logger.Info("Car updated successfully", port.Fields{"car_id": carID.String()})
	RespondWithJSON(w, http.StatusOK, toCarResponse(car))
}

func (h *CarHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "DeleteCar"})

	carID, err := uuid.Parse(chi.URLParam(r, "carID"))
	if err != nil {
		logger.Warn("Invalid car ID format in URL", port.Fields{"provided_id": chi.URLParam(r, "carID")})
		WriteJSONError(w, http.StatusBadRequest, "Invalid car ID in URL")
		return
	}

	if err := h.storage.Delete(r.Context(), carID); err != nil {
		if errors.Is(err, domain.ErrCarNotFound) {
			WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("Failed to delete car", err, port.Fields{"car_id": carID.String()})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to delete car")
		return
	}

	logger.Info("Car deleted successfully", port.Fields{"car_id": carID.String()})
	w.WriteHeader(http.StatusNoContent)
}

// StartRun запускает парсер синхронно и возвращает статистику запуска.
func (h *CarHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "StartRun"})

	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode start run request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Site == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'site' is required")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"site":        req.Site,
		"concurrency": req.Concurrency,
		"makes":       len(req.Makes),
	})
	handlerLogger.Info("Processing request to start parser run", nil)

	stats := h.runParserUC.Run(r.Context(), req.Site, req.Concurrency, req.Makes)

	handlerLogger.Info("Parser run completed", port.Fields{
		"processed": stats.Processed,
		"saved":     stats.Saved,
		"errors":    stats.Errors,
	})

	RespondWithJSON(w, http.StatusOK, RunResponse{Site: req.Site, Stats: stats})
}

func (h *CarHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "Login"})

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode login request body", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteJSONError(w, http.StatusBadRequest, "Fields 'email' and 'password' are required")
		return
	}

	token, err := h.loginUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			WriteJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		logger.Error("Login use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	RespondWithJSON(w, http.StatusOK, LoginResponse{AccessToken: token})
}
