package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	core_port "github.com/Thebloodraccoon/car-parser/internal/core/port"
	usecases_port "github.com/Thebloodraccoon/car-parser/internal/core/port/usecases"
)

// Server - наш REST API сервер.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// NewServer создает новый экземпляр сервера.
func NewServer(port string, handlers *CarHandler, validateUC usecases_port.ValidateTokenPort, baseLogger core_port.LoggerPort) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", handlers.Login)

		r.Get("/cars", handlers.ListCars)
		r.Get("/cars/{carID}", handlers.GetCarByID)

		// Мутации и запуск парсера только с валидным токеном
		r.Group(func(r chi.Router) {
			r.Use(NewAuthMiddleware(validateUC))

			r.Patch("/cars/{carID}", handlers.UpdateCar)
			r.Delete("/cars/{carID}", handlers.DeleteCar)
			r.Post("/runs", handlers.StartRun)
		})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger,
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
