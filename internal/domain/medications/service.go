package medications

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"med-reminder/internal/platform/logger"

	"github.com/google/uuid"
)

// Reintentos de read-modify-write cuando Save devuelve ErrConflict.
const maxSaveAttempts = 3

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"module": "medications"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	UserID       string
	Name         string
	Dose         string
	DoseTimes    []string
	MealRelation MealRelation
	StartDate    time.Time
	EndDate      time.Time
	TotalTabs    int
	CurrentTabs  *int // nil => TotalTabs
	// nil => DefaultRefillThreshold
	RefillThreshold *int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Medication, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Medication{}, ErrInvalidInput
	}

	times, err := NormalizeDoseTimes(in.DoseTimes)
	if err != nil {
		return Medication{}, &ValidationError{Fields: map[string]string{"doseTimes": "HH:MM"}}
	}

	current := in.TotalTabs
	if in.CurrentTabs != nil {
		current = *in.CurrentTabs
	}
	threshold := DefaultRefillThreshold
	if in.RefillThreshold != nil {
		threshold = *in.RefillThreshold
	}
	meal := in.MealRelation
	if meal == "" {
		meal = MealAnytime
	}

	now := s.now()
	m := Medication{
		ID:              uuid.NewString(),
		UserID:          strings.TrimSpace(in.UserID),
		Name:            strings.TrimSpace(in.Name),
		Dose:            strings.TrimSpace(in.Dose),
		DoseTimes:       times,
		MealRelation:    meal,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		TotalTabs:       in.TotalTabs,
		CurrentTabs:     current,
		RefillThreshold: threshold,
		TakenHistory:    []DoseEvent{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := Validate(m); err != nil {
		return Medication{}, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// UpdateInput usa punteros para PATCH real: nil = no tocar.
type UpdateInput struct {
	Name            *string
	Dose            *string
	DoseTimes       []string // nil = no tocar; vacío = sin horarios
	MealRelation    *MealRelation
	StartDate       *time.Time
	EndDate         *time.Time
	TotalTabs       *int
	CurrentTabs     *int
	RefillThreshold *int
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Medication, error) {
	var times []string
	if in.DoseTimes != nil {
		normalized, err := NormalizeDoseTimes(in.DoseTimes)
		if err != nil {
			return Medication{}, &ValidationError{MedicationID: id, Fields: map[string]string{"doseTimes": "HH:MM"}}
		}
		times = normalized
	}

	return s.mutate(ctx, id, func(m *Medication) error {
		if in.Name != nil {
			m.Name = strings.TrimSpace(*in.Name)
		}
		if in.Dose != nil {
			m.Dose = strings.TrimSpace(*in.Dose)
		}
		if in.DoseTimes != nil {
			m.DoseTimes = times
		}
		if in.MealRelation != nil {
			m.MealRelation = *in.MealRelation
		}
		if in.StartDate != nil {
			m.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			m.EndDate = *in.EndDate
		}
		if in.TotalTabs != nil {
			m.TotalTabs = *in.TotalTabs
		}
		if in.CurrentTabs != nil {
			m.CurrentTabs = *in.CurrentTabs
		}
		if in.RefillThreshold != nil {
			m.RefillThreshold = *in.RefillThreshold
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID)
}

// ListLowStock devuelve las medicaciones con CurrentTabs <= RefillThreshold.
func (s *Service) ListLowStock(ctx context.Context, userID string) ([]Medication, error) {
	items, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Medication, 0)
	for _, m := range items {
		if m.LowStock() {
			out = append(out, m)
		}
	}
	return out, nil
}

type LogDoseInput struct {
	Status    DoseStatus
	Timestamp time.Time
	// Dose opcional ("2", "2 tablets"); si no viene se usa la dosis de la medicación.
	Dose string
}

// LogDose agrega el evento al historial. Para taken descuenta unidades (mínimo 0).
func (s *Service) LogDose(ctx context.Context, id string, in LogDoseInput) (Medication, error) {
	if !in.Status.Valid() || in.Timestamp.IsZero() {
		return Medication{}, ErrInvalidInput
	}

	updated, err := s.mutate(ctx, id, func(m *Medication) error {
		m.TakenHistory = append(m.TakenHistory, DoseEvent{Status: in.Status, Timestamp: in.Timestamp})

		if in.Status != DoseStatusTaken {
			return nil
		}

		dose := in.Dose
		if strings.TrimSpace(dose) == "" {
			dose = m.Dose
		}
		qty := QuantityFromDose(dose)

		if m.CurrentTabs <= 0 {
			s.log.Warn("dose marked taken with no tabs left", map[string]any{
				"medication_id": m.ID,
				"name":          m.Name,
			})
		}
		m.CurrentTabs -= qty
		if m.CurrentTabs < 0 {
			m.CurrentTabs = 0
		}
		return nil
	})
	if err != nil {
		return Medication{}, err
	}

	if updated.LowStock() {
		s.log.Warn("medication low on tabs", map[string]any{
			"medication_id":    updated.ID,
			"name":             updated.Name,
			"current_tabs":     updated.CurrentTabs,
			"refill_threshold": updated.RefillThreshold,
		})
	}
	return updated, nil
}

// Refill suma unidades a CurrentTabs y TotalTabs.
func (s *Service) Refill(ctx context.Context, id string, quantity int) (Medication, error) {
	if quantity <= 0 {
		return Medication{}, ErrInvalidInput
	}
	return s.mutate(ctx, id, func(m *Medication) error {
		m.CurrentTabs += quantity
		m.TotalTabs += quantity
		return nil
	})
}

// RecordHistoryByName agrega un evento buscando la medicación por (usuario, nombre).
// Registro histórico: no descuenta stock.
func (s *Service) RecordHistoryByName(ctx context.Context, userID, name string, e DoseEvent) error {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" || !e.Status.Valid() || e.Timestamp.IsZero() {
		return ErrInvalidInput
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range items {
		if m.Name != name {
			continue
		}
		_, err := s.mutate(ctx, m.ID, func(m *Medication) error {
			m.TakenHistory = append(m.TakenHistory, e)
			return nil
		})
		return err
	}
	return ErrNotFound
}

// HistoryEntry es una fila del historial aplanado de un usuario.
type HistoryEntry struct {
	MedicationID string
	Medication   string
	Status       DoseStatus
	Timestamp    time.Time
}

// History aplana el historial de todas las medicaciones del usuario, más reciente primero.
func (s *Service) History(ctx context.Context, userID string, filter HistoryFilter) ([]HistoryEntry, error) {
	items, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0)
	for _, m := range items {
		for _, e := range m.TakenHistory {
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			if filter.From != nil && e.Timestamp.Before(*filter.From) {
				continue
			}
			if filter.To != nil && e.Timestamp.After(*filter.To) {
				continue
			}
			out = append(out, HistoryEntry{
				MedicationID: m.ID,
				Medication:   m.Name,
				Status:       e.Status,
				Timestamp:    e.Timestamp,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ClearHistory vacía el historial de todas las medicaciones del usuario.
func (s *Service) ClearHistory(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.ClearHistoryByUser(ctx, userID)
}

// mutate hace load-modify-save con reintento ante ErrConflict.
func (s *Service) mutate(ctx context.Context, id string, fn func(m *Medication) error) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrInvalidInput
	}

	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		m, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Medication{}, err
		}
		if err := fn(&m); err != nil {
			return Medication{}, err
		}
		m.UpdatedAt = s.now()

		saved, err := s.repo.Save(ctx, m)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Medication{}, err
		}
		lastErr = err
	}
	return Medication{}, lastErr
}

var doseNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// QuantityFromDose extrae la cantidad de unidades de un texto como "2 tablets".
// Fracciones se redondean hacia arriba; sin número (o <= 0) devuelve 1.
func QuantityFromDose(dose string) int {
	match := doseNumber.FindString(dose)
	if match == "" {
		return 1
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil || f <= 0 {
		return 1
	}
	return int(math.Ceil(f))
}
