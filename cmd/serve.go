package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krili-app/agency-cli/internal/catalog"
	"github.com/krili-app/agency-cli/internal/intent"
	"github.com/krili-app/agency-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read API for city agency listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the chi router over the catalog.
func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/intents", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, intent.All())
	})

	r.Get("/cities/{city}/agencies", func(w http.ResponseWriter, req *http.Request) {
		city := chi.URLParam(req, "city")
		agencies, err := env.Catalog.GetAgenciesByCity(req.Context(), city)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, agencies)
	})

	r.Get("/cities/{city}/agencies/{slug}", func(w http.ResponseWriter, req *http.Request) {
		city := chi.URLParam(req, "city")
		agency, err := env.Catalog.GetAgencyBySlug(req.Context(), city, chi.URLParam(req, "slug"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, agency)
	})

	r.Get("/cities/{city}/intents/{intent}", func(w http.ResponseWriter, req *http.Request) {
		city := chi.URLParam(req, "city")
		intentSlug := chi.URLParam(req, "intent")

		it, ok := intent.Get(intentSlug)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown intent"})
			return
		}

		agencies, err := env.Catalog.GetAgenciesByCity(req.Context(), city)
		if err != nil {
			writeError(w, err)
			return
		}

		cityName := city
		if c, ok := env.Cities.City(city); ok {
			cityName = c.Name
		}

		writeJSON(w, http.StatusOK, intentPage{
			Intent:      it.Slug,
			Title:       it.Title.Render(cityName),
			Description: it.Description.Render(cityName),
			Agencies:    env.Catalog.FilterByIntent(agencies, intentSlug, city),
		})
	})

	r.Post("/cities/{city}/invalidate", func(w http.ResponseWriter, req *http.Request) {
		city := chi.URLParam(req, "city")
		env.Catalog.Invalidate(city)
		writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "city": city})
	})

	return r
}

// intentPage is the response shape for an intent-scoped listing.
type intentPage struct {
	Intent      string         `json:"intent"`
	Title       intent.Text    `json:"title"`
	Description intent.Text    `json:"description"`
	Agencies    []model.Agency `json:"agencies"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, catalog.ErrDatasetNotFound), eris.Is(err, catalog.ErrAgencyNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		zap.L().Error("serve: request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
