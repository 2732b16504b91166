package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"med-reminder/internal/domain/medications"
)

type medicationRepo struct {
	mu   sync.RWMutex
	byID map[string]medications.Medication
}

// MedicationRepo implementa Repository y EventAppender en memoria.
type MedicationRepo interface {
	medications.Repository
	medications.EventAppender
}

func NewMedicationRepo() MedicationRepo {
	return &medicationRepo{
		byID: make(map[string]medications.Medication),
	}
}

func (r *medicationRepo) Create(ctx context.Context, m medications.Medication) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(medications.ErrStoreUnavailable, err)
	}
	if err := medications.Validate(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medication id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medication already exists")
	}
	m.Version = 1
	r.byID[m.ID] = m.Clone()
	return nil
}

func (r *medicationRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medications.Medication{}, medications.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *medicationRepo) ListByUser(ctx context.Context, userID string) ([]medications.Medication, error) {
	return r.list(ctx, func(m medications.Medication) bool { return m.UserID == userID })
}

func (r *medicationRepo) ListAll(ctx context.Context) ([]medications.Medication, error) {
	return r.list(ctx, func(medications.Medication) bool { return true })
}

func (r *medicationRepo) list(ctx context.Context, keep func(medications.Medication) bool) ([]medications.Medication, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(medications.ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medications.Medication, 0)
	for _, m := range r.byID {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *medicationRepo) Save(ctx context.Context, m medications.Medication) (medications.Medication, error) {
	if err := ctx.Err(); err != nil {
		return medications.Medication{}, errors.Join(medications.ErrStoreUnavailable, err)
	}
	if err := medications.Validate(m); err != nil {
		return medications.Medication{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[m.ID]
	if !ok {
		return medications.Medication{}, medications.ErrNotFound
	}
	if current.Version != m.Version {
		return medications.Medication{}, medications.ErrConflict
	}

	m.Version++
	r.byID[m.ID] = m.Clone()
	return m.Clone(), nil
}

// AppendIfNoEventNear re-evalúa el chequeo de duplicado bajo el lock de escritura.
func (r *medicationRepo) AppendIfNoEventNear(ctx context.Context, id string, e medications.DoseEvent, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Join(medications.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return false, medications.ErrNotFound
	}
	if m.HasEventNear(e.Timestamp, window) {
		return false, nil
	}

	next := m.Clone()
	next.TakenHistory = append(next.TakenHistory, e)
	if err := medications.Validate(next); err != nil {
		return false, err
	}
	next.Version++
	r.byID[id] = next
	return true, nil
}

func (r *medicationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return medications.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *medicationRepo) ClearHistoryByUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, m := range r.byID {
		if m.UserID != userID || len(m.TakenHistory) == 0 {
			continue
		}
		m.TakenHistory = []medications.DoseEvent{}
		m.Version++
		r.byID[id] = m
		n++
	}
	return n, nil
}
