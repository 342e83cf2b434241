package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"device-match-service/internal/config"
	matchHnd "device-match-service/internal/match/handler"
	"device-match-service/internal/middleware"
)

func NewRouter(cfg config.Config, h *matchHnd.Handler, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Order matters: recover -> requestID -> logging -> cors -> limit.
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/preprocess", h.Preprocess)
		r.Post("/match", h.Match)
		r.Post("/match/batch", h.MatchBatch)
		r.Get("/match/detail/{key}", h.MatchDetail)
		r.Get("/rules", h.Rules)
		r.Post("/rules/generate", h.GenerateRules)
	})

	return r
}
