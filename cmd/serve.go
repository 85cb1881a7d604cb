package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/model"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/monitoring"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/poi"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/registry"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/survival"
	"github.com/huntertoby/new-shop-survival-prediction-tw/pkg/geocode"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
		r.Post("/api/search", func(w http.ResponseWriter, req *http.Request) {
			handleSearch(env, w, req)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownServer drains in-flight requests under a fresh deadline. The
// signal context is already canceled by the time this runs, so passing it
// to Shutdown would abort the drain immediately.
func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

// handleSearch runs one prediction request end to end.
func handleSearch(env *predictEnv, w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	requestID := uuid.New().String()

	var pr model.PredictionRequest
	if err := json.NewDecoder(req.Body).Decode(&pr); err != nil {
		monitoring.ObserveFailure("bad_input", time.Since(start))
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error: "invalid request body", Kind: "bad_input",
		})
		return
	}

	resp, err := env.Predictor.Predict(req.Context(), pr)
	if err != nil {
		kind, status := classifyError(err)
		monitoring.ObserveFailure(kind, time.Since(start))
		zap.L().Warn("prediction failed",
			zap.String("request_id", requestID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		writeJSON(w, status, model.ErrorResponse{
			Error: err.Error(), Kind: kind,
		})
		return
	}

	monitoring.ObservePrediction(resp.Survival.Year, resp.Survival.Prediction, time.Since(start))
	zap.L().Info("prediction served",
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// classifyError maps pipeline sentinels to the caller-facing error kind and
// HTTP status.
func classifyError(err error) (kind string, status int) {
	switch {
	case eris.Is(err, model.ErrBadInput):
		return "bad_input", http.StatusBadRequest
	case eris.Is(err, geocode.ErrNoMatch):
		return "geocode_no_match", http.StatusNotFound
	case eris.Is(err, geocode.ErrProvider):
		return "geocode_unavailable", http.StatusBadGateway
	case eris.Is(err, poi.ErrStoreUnavailable):
		return "store_unavailable", http.StatusServiceUnavailable
	case eris.Is(err, registry.ErrModelUnavailable):
		return "model_unavailable", http.StatusServiceUnavailable
	case eris.Is(err, survival.ErrFeatureAssembly):
		return "feature_assembly", http.StatusInternalServerError
	default:
		return "internal", http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
