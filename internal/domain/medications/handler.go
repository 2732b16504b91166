package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"med-reminder/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/medications", func(mr chi.Router) {
		mr.Post("/add", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))
		mr.Get("/low-stock", lowStockHandler(svc))

		// Historial (rutas fijas antes de /{id})
		mr.Post("/dose-history", recordHistoryHandler(svc))
		mr.Get("/dose-history", listHistoryHandler(svc))
		mr.Delete("/dose-history/clear", clearHistoryHandler(svc))

		mr.Put("/{id}", updateMedicationHandler(svc))
		mr.Delete("/{id}", deleteMedicationHandler(svc))
		mr.Post("/{id}/logDose", logDoseHandler(svc))
		mr.Post("/{id}/refill", refillHandler(svc))
	})
}

// medicationRequest sirve para alta (POST) y modificación (PUT).
// Punteros: nil = no enviado.
type medicationRequest struct {
	UserID          string        `json:"userId"`
	Name            *string       `json:"name"`
	Dose            *string       `json:"dose"`
	DoseTimes       []string      `json:"doseTimes"`
	Time            string        `json:"time"` // cliente legacy: un solo horario
	MealRelation    *MealRelation `json:"mealRelation" enums:"Before Meal,After Meal,Anytime,With Food"`
	StartDate       *time.Time    `json:"startDate"`
	EndDate         *time.Time    `json:"endDate"`
	TotalTabs       *int          `json:"totalTabs"`
	CurrentTabs     *int          `json:"currentTabs"`
	RefillThreshold *int          `json:"refillThreshold"`
}

// doseTimes resuelve doseTimes con fallback al campo legacy "time".
func (req medicationRequest) doseTimes() []string {
	if req.DoseTimes != nil {
		return req.DoseTimes
	}
	if strings.TrimSpace(req.Time) != "" {
		return []string{req.Time}
	}
	return nil
}

type doseEventResponse struct {
	Status    DoseStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// medicationResponse es la medicación devuelta por la API.
type medicationResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	Name            string              `json:"name"`
	Dose            string              `json:"dose"`
	DoseTimes       []string            `json:"doseTimes"`
	MealRelation    MealRelation        `json:"mealRelation"`
	StartDate       time.Time           `json:"startDate"`
	EndDate         time.Time           `json:"endDate"`
	TotalTabs       int                 `json:"totalTabs"`
	CurrentTabs     int                 `json:"currentTabs"`
	RefillThreshold int                 `json:"refillThreshold"`
	TakenHistory    []doseEventResponse `json:"takenHistory"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type messageResponse struct {
	Message    string              `json:"message"`
	Medication *medicationResponse `json:"medication,omitempty"`
}

type logDoseRequest struct {
	Status    DoseStatus `json:"status" enums:"taken,missed"`
	Timestamp string     `json:"timestamp"` // RFC3339
	Dose      string     `json:"dose"`
}

type refillRequest struct {
	QuantityToAdd int `json:"quantityToAdd"`
}

type recordHistoryRequest struct {
	UserID     string     `json:"userId"`
	Medication string     `json:"medication"` // nombre, no ID
	Status     DoseStatus `json:"status" enums:"taken,missed"`
	Timestamp  string     `json:"timestamp"`
}

type historyEntryResponse struct {
	MedicationID string     `json:"medicationId"`
	Medication   string     `json:"medication"`
	Status       DoseStatus `json:"status"`
	Timestamp    time.Time  `json:"timestamp"`
}

type clearHistoryRequest struct {
	UserID string `json:"userId"`
}

type clearHistoryResponse struct {
	Message  string `json:"message"`
	Modified int    `json:"modified"`
}

// createMedicationHandler godoc
// @Summary Alta de medicación
// @Description Registra una medicación. currentTabs toma totalTabs si no se envía; el campo legacy `time` se convierte en doseTimes.
// @Tags medications
// @Accept json
// @Produce json
// @Param X-User-ID header string false "ID de usuario (alternativa a userId en el body)"
// @Param payload body medicationRequest true "Datos de la medicación"
// @Success 201 {object} messageResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 503 {string} string "store unavailable"
// @Router /api/medications/add [post]
func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req medicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			userID, _ = middleware.GetUserID(r.Context())
		}

		in := CreateInput{
			UserID:          userID,
			Name:            deref(req.Name),
			Dose:            deref(req.Dose),
			DoseTimes:       req.doseTimes(),
			CurrentTabs:     req.CurrentTabs,
			RefillThreshold: req.RefillThreshold,
		}
		if req.MealRelation != nil {
			in.MealRelation = *req.MealRelation
		}
		if req.StartDate != nil {
			in.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			in.EndDate = *req.EndDate
		}
		if req.TotalTabs != nil {
			in.TotalTabs = *req.TotalTabs
		}

		m, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := toMedicationResponse(m)
		writeJSON(w, http.StatusCreated, messageResponse{Message: "Medication saved successfully", Medication: &resp})
	}
}

// listMedicationsHandler godoc
// @Summary Listar medicaciones de un usuario
// @Tags medications
// @Produce json
// @Param userId query string true "ID de usuario"
// @Success 200 {array} medicationResponse
// @Failure 400 {string} string "userId query parameter is required"
// @Router /api/medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserID(r.Context())
		if !ok {
			http.Error(w, "userId query parameter is required", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponses(items))
	}
}

// lowStockHandler godoc
// @Summary Medicaciones con stock bajo
// @Description Devuelve las medicaciones con currentTabs <= refillThreshold.
// @Tags medications
// @Produce json
// @Param userId query string true "ID de usuario"
// @Success 200 {array} medicationResponse
// @Failure 400 {string} string "userId query parameter is required"
// @Router /api/medications/low-stock [get]
func lowStockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserID(r.Context())
		if !ok {
			http.Error(w, "userId query parameter is required", http.StatusBadRequest)
			return
		}

		items, err := svc.ListLowStock(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponses(items))
	}
}

// updateMedicationHandler godoc
// @Summary Modificar medicación
// @Tags medications
// @Accept json
// @Produce json
// @Param id path string true "ID de la medicación"
// @Param payload body medicationRequest true "Campos a modificar"
// @Success 200 {object} medicationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "conflict"
// @Router /api/medications/{id} [put]
func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req medicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{
			Name:            req.Name,
			Dose:            req.Dose,
			DoseTimes:       req.doseTimes(),
			MealRelation:    req.MealRelation,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			TotalTabs:       req.TotalTabs,
			CurrentTabs:     req.CurrentTabs,
			RefillThreshold: req.RefillThreshold,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar medicación
// @Tags medications
// @Produce json
// @Param id path string true "ID de la medicación"
// @Success 200 {object} messageResponse
// @Failure 404 {string} string "medication not found"
// @Router /api/medications/{id} [delete]
func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Medication deleted successfully"})
	}
}

// logDoseHandler godoc
// @Summary Registrar toma
// @Description Agrega un evento al historial. Para `taken` descuenta del stock la parte numérica de `dose` (default 1), sin bajar de 0.
// @Tags medications
// @Accept json
// @Produce json
// @Param id path string true "ID de la medicación"
// @Param payload body logDoseRequest true "status + timestamp RFC3339"
// @Success 200 {object} messageResponse
// @Failure 400 {string} string "invalid json / status / timestamp"
// @Failure 404 {string} string "medication not found"
// @Router /api/medications/{id}/logDose [post]
func logDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req logDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !req.Status.Valid() {
			http.Error(w, "status must be taken or missed", http.StatusBadRequest)
			return
		}
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			http.Error(w, "timestamp must be RFC3339", http.StatusBadRequest)
			return
		}

		m, err := svc.LogDose(r.Context(), chi.URLParam(r, "id"), LogDoseInput{
			Status:    req.Status,
			Timestamp: ts,
			Dose:      req.Dose,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		resp := toMedicationResponse(m)
		writeJSON(w, http.StatusOK, messageResponse{
			Message:    "Dose marked as " + string(req.Status) + " successfully",
			Medication: &resp,
		})
	}
}

// refillHandler godoc
// @Summary Reponer stock
// @Tags medications
// @Accept json
// @Produce json
// @Param id path string true "ID de la medicación"
// @Param payload body refillRequest true "quantityToAdd > 0"
// @Success 200 {object} messageResponse
// @Failure 400 {string} string "quantityToAdd must be a positive number"
// @Failure 404 {string} string "medication not found"
// @Router /api/medications/{id}/refill [post]
func refillHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.QuantityToAdd <= 0 {
			http.Error(w, "quantityToAdd must be a positive number", http.StatusBadRequest)
			return
		}

		m, err := svc.Refill(r.Context(), chi.URLParam(r, "id"), req.QuantityToAdd)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := toMedicationResponse(m)
		writeJSON(w, http.StatusOK, messageResponse{Message: "Medication refilled successfully", Medication: &resp})
	}
}

// recordHistoryHandler godoc
// @Summary Registrar historial por nombre
// @Description Ruta histórica: busca la medicación por (userId, nombre) y agrega el evento sin tocar el stock.
// @Tags history
// @Accept json
// @Produce json
// @Param payload body recordHistoryRequest true "evento"
// @Success 200 {object} messageResponse
// @Failure 400 {string} string "invalid input"
// @Failure 404 {string} string "medication not found"
// @Router /api/medications/dose-history [post]
func recordHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordHistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			http.Error(w, "timestamp must be RFC3339", http.StatusBadRequest)
			return
		}

		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			userID, _ = middleware.GetUserID(r.Context())
		}

		if err := svc.RecordHistoryByName(r.Context(), userID, req.Medication, DoseEvent{
			Status:    req.Status,
			Timestamp: ts,
		}); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Dose history updated successfully"})
	}
}

// listHistoryHandler godoc
// @Summary Historial de tomas de un usuario
// @Description Historial aplanado de todas las medicaciones, más reciente primero.
// @Tags history
// @Produce json
// @Param userId query string true "ID de usuario"
// @Param status query string false "taken | missed"
// @Param from query string false "RFC3339"
// @Param to query string false "RFC3339"
// @Param limit query int false "Máximo de filas"
// @Success 200 {array} historyEntryResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Router /api/medications/dose-history [get]
func listHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserID(r.Context())
		if !ok {
			http.Error(w, "userId query parameter is required", http.StatusBadRequest)
			return
		}

		filter, err := parseHistoryFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.History(r.Context(), userID, filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]historyEntryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, historyEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// clearHistoryHandler godoc
// @Summary Vaciar historial de un usuario
// @Tags history
// @Accept json
// @Produce json
// @Param payload body clearHistoryRequest true "userId"
// @Success 200 {object} clearHistoryResponse
// @Failure 400 {string} string "userId is required in body"
// @Router /api/medications/dose-history/clear [delete]
func clearHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clearHistoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
			http.Error(w, "userId is required in body", http.StatusBadRequest)
			return
		}

		n, err := svc.ClearHistory(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, clearHistoryResponse{Message: "Dose history cleared", Modified: n})
	}
}

func parseHistoryFilter(r *http.Request) (HistoryFilter, error) {
	q := r.URL.Query()
	filter := HistoryFilter{}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		s := DoseStatus(v)
		if !s.Valid() {
			return HistoryFilter{}, errors.New("status must be taken or missed")
		}
		filter.Status = s
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return HistoryFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return HistoryFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	return filter, nil
}

func toMedicationResponse(m Medication) medicationResponse {
	history := make([]doseEventResponse, 0, len(m.TakenHistory))
	for _, e := range m.TakenHistory {
		history = append(history, doseEventResponse(e))
	}
	times := m.DoseTimes
	if times == nil {
		times = []string{}
	}
	return medicationResponse{
		ID:              m.ID,
		UserID:          m.UserID,
		Name:            m.Name,
		Dose:            m.Dose,
		DoseTimes:       times,
		MealRelation:    m.MealRelation,
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		TotalTabs:       m.TotalTabs,
		CurrentTabs:     m.CurrentTabs,
		RefillThreshold: m.RefillThreshold,
		TakenHistory:    history,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toMedicationResponses(items []Medication) []medicationResponse {
	out := make([]medicationResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMedicationResponse(m))
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrStoreUnavailable):
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
