package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cafeverde/backoffice/internal/catalog"
	"github.com/cafeverde/backoffice/internal/config"
	"github.com/cafeverde/backoffice/internal/db"
	"github.com/cafeverde/backoffice/internal/migrations"
	"github.com/cafeverde/backoffice/internal/seed"
)

type server struct {
	catalog *catalog.Service
	log     zerolog.Logger
}

func main() {
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}

	if cfg.IsDev() {
		stats, err := seed.Run(database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run startup seed")
		}
		log.Info().Int("inserts", stats.Inserts).Msg("startup seed done")
	}

	srv := &server{
		catalog: catalog.New(database, log),
		log:     log,
	}

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func (s *server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Get("/healthz", s.handleHealth)

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", s.handleListSuppliers)
		r.Post("/", s.handleCreateSupplier)
		r.Patch("/{id}", s.handleUpdateSupplier)
		r.Delete("/{id}", s.handleDeactivateSupplier)
	})
	r.Route("/raw-materials", func(r chi.Router) {
		r.Get("/", s.handleListRawMaterials)
		r.Post("/", s.handleCreateRawMaterial)
		r.Get("/{id}", s.handleGetRawMaterial)
		r.Patch("/{id}", s.handleUpdateRawMaterial)
		r.Delete("/{id}", s.handleDeactivateRawMaterial)
	})
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", s.handleListRecipes)
		r.Post("/", s.handleCreateRecipe)
		r.Get("/{id}", s.handleGetRecipe)
		r.Patch("/{id}", s.handleUpdateRecipe)
		r.Post("/{id}/recalculate", s.handleRecalculateRecipe)
	})
	r.Route("/cost-products", func(r chi.Router) {
		r.Get("/", s.handleListCostProducts)
		r.Post("/", s.handleCreateCostProduct)
		r.Get("/{id}", s.handleGetCostProduct)
		r.Patch("/{id}", s.handleUpdateCostProduct)
		r.Post("/{id}/recalculate", s.handleRecalculateCostProduct)
		r.Delete("/{id}", s.handleDeactivateCostProduct)
	})
	return r
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
