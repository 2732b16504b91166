package adherence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"med-reminder/internal/domain/medications"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, sw *Sweeper) {
	h := checkMissedHandler(sw)
	r.Post("/api/check-missed", h)
	// el cliente legacy lo dispara con GET
	r.Get("/api/check-missed", h)
}

// checkMissedHandler godoc
// @Summary Ejecutar el chequeo de tomas perdidas
// @Description Corre un ciclo del sweeper ahora mismo y devuelve el resumen. Si ya hay un ciclo en curso responde 409.
// @Tags adherence
// @Produce json
// @Success 200 {object} CycleReport
// @Failure 409 {string} string "sweep cycle already running"
// @Failure 503 {string} string "store unavailable"
// @Failure 500 {string} string "internal error"
// @Router /api/check-missed [post]
func checkMissedHandler(sw *Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// el ciclo termina aunque el cliente corte la conexión
		report, err := sw.RunOnce(context.WithoutCancel(r.Context()))
		if err != nil {
			switch {
			case errors.Is(err, ErrCycleInProgress):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, medications.ErrStoreUnavailable):
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(report)
	}
}
