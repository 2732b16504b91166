package adherence

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/platform/logger"

	"golang.org/x/sync/errgroup"
)

var (
	ErrCycleInProgress   = errors.New("sweep cycle already running")
	ErrMalformedSchedule = errors.New("malformed schedule entry")
)

// Store es lo que el sweeper consume del repositorio de medicaciones.
// Si además implementa medications.EventAppender, se usa el append atómico.
type Store interface {
	ListAll(ctx context.Context) ([]medications.Medication, error)
	Save(ctx context.Context, m medications.Medication) (medications.Medication, error)
}

type Options struct {
	Policy       Policy
	Location     *time.Location // día calendario de los horarios; default time.Local
	Workers      int            // medicaciones en paralelo; default 1
	StoreTimeout time.Duration  // por llamada al store; default 5s

	// Now es el reloj; default time.Now.
	Now func() time.Time
}

// Sweeper marca como missed las tomas programadas que nadie confirmó.
// No es reentrante: un ciclo no arranca mientras otro esté corriendo.
type Sweeper struct {
	store        Store
	log          logger.Logger
	policy       Policy
	loc          *time.Location
	workers      int
	storeTimeout time.Duration
	now          func() time.Time

	running atomic.Bool
}

func NewSweeper(store Store, log logger.Logger, opts Options) *Sweeper {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sweeper{
		store:        store,
		log:          log.With(map[string]any{"component": "missed_dose_sweeper"}),
		policy:       opts.Policy,
		loc:          opts.Location,
		workers:      opts.Workers,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
	}
}

// CycleReport resume un ciclo.
type CycleReport struct {
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"durationNs"`
	Medications int           `json:"medications"`
	Slots       int           `json:"slots"`
	Marked      int           `json:"marked"`
	Duplicates  int           `json:"duplicates"`
	Malformed   int           `json:"malformed"`
	Failures    int           `json:"failures"`
}

// Run es la entrada del scheduler: un tick solapado se descarta (ya logueado).
func (s *Sweeper) Run(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	if errors.Is(err, ErrCycleInProgress) {
		return nil
	}
	return err
}

// RunOnce ejecuta un ciclo completo. Devuelve ErrCycleInProgress si hay otro en curso
// y un error de carga si no se pudo listar las medicaciones (ciclo abortado).
func (s *Sweeper) RunOnce(ctx context.Context) (CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("sweep tick skipped, previous cycle still running", nil)
		return CycleReport{}, ErrCycleInProgress
	}
	defer s.running.Store(false)

	// un único "now" por ciclo
	now := s.now().In(s.loc)
	report := CycleReport{StartedAt: now}
	s.log.Info("missed dose sweep started", map[string]any{"now": now.Format(time.RFC3339)})

	loadCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	meds, err := s.store.ListAll(loadCtx)
	cancel()
	if err != nil {
		s.log.Error("sweep aborted, could not load medications", map[string]any{"error": err})
		return report, fmt.Errorf("adherence: load medications: %w", err)
	}
	report.Medications = len(meds)

	results := make([]medicationResult, len(meds))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i := range meds {
		if len(meds[i].DoseTimes) == 0 {
			continue
		}
		i := i
		g.Go(func() error {
			results[i] = s.sweepMedicationSafe(ctx, now, meds[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		report.Slots += r.slots
		report.Marked += r.marked
		report.Duplicates += r.duplicates
		report.Malformed += r.malformed
		report.Failures += r.failures
	}
	report.Duration = time.Since(report.StartedAt)

	s.log.Info("missed dose sweep finished", map[string]any{
		"medications": report.Medications,
		"slots":       report.Slots,
		"marked":      report.Marked,
		"duplicates":  report.Duplicates,
		"malformed":   report.Malformed,
		"failures":    report.Failures,
		"duration_ms": report.Duration.Milliseconds(),
	})
	return report, nil
}

type medicationResult struct {
	slots      int
	marked     int
	duplicates int
	malformed  int
	failures   int
}

// sweepMedicationSafe aísla un panic a la medicación que lo produjo.
func (s *Sweeper) sweepMedicationSafe(ctx context.Context, now time.Time, m medications.Medication) (res medicationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("panic while sweeping medication", map[string]any{
				"medication_id": m.ID,
				"panic":         fmt.Sprint(rec),
			})
			res.failures++
		}
	}()
	return s.sweepMedication(ctx, now, m)
}

// sweepMedication evalúa cada horario de una medicación en orden.
func (s *Sweeper) sweepMedication(ctx context.Context, now time.Time, m medications.Medication) medicationResult {
	var res medicationResult
	idx := newHistoryIndex(m.TakenHistory)
	medLog := s.log.With(map[string]any{"medication_id": m.ID, "medication": m.Name})

	for _, raw := range m.DoseTimes {
		res.slots++

		dt, err := medications.ParseDoseTime(raw)
		if err != nil {
			res.malformed++
			medLog.Warn("skipping schedule entry", map[string]any{
				"entry": raw,
				"error": fmt.Errorf("%w: %w", ErrMalformedSchedule, err),
			})
			continue
		}

		scheduled := dt.On(now)
		if !s.policy.InWindow(now, scheduled) {
			continue
		}
		if idx.hasNear(scheduled, s.policy.Grace) {
			res.duplicates++
			continue
		}

		ev := medications.DoseEvent{Status: medications.DoseStatusMissed, Timestamp: scheduled}
		appended, saved, err := s.persist(ctx, now, m, ev)
		if err != nil {
			res.failures++
			fields := map[string]any{"slot": dt.String(), "error": err}

			switch {
			case errors.Is(err, medications.ErrValidation):
				medLog.Error("medication rejected by store, skipping for this cycle", fields)
				return res
			case errors.Is(err, context.DeadlineExceeded):
				medLog.Error("store call timed out, skipping medication for this cycle", fields)
				return res
			default:
				medLog.Error("could not persist missed dose", fields)
				continue
			}
		}

		idx.add(scheduled)
		if !appended {
			// otro escritor registró un evento cerca entre la carga y el append
			res.duplicates++
			continue
		}
		m = saved
		res.marked++
		medLog.Info("dose marked as missed", map[string]any{
			"slot":        dt.String(),
			"scheduled":   scheduled.Format(time.RFC3339),
			"detected_at": now.Format(time.RFC3339),
		})
	}
	return res
}

// persist prefiere el append atómico condicionado; si el store no lo ofrece,
// hace load-mutate-save con el documento ya cargado.
func (s *Sweeper) persist(ctx context.Context, now time.Time, m medications.Medication, ev medications.DoseEvent) (bool, medications.Medication, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if ap, ok := s.store.(medications.EventAppender); ok {
		appended, err := ap.AppendIfNoEventNear(callCtx, m.ID, ev, s.policy.Grace)
		if err == nil && appended {
			m = m.Clone()
			m.TakenHistory = append(m.TakenHistory, ev)
		}
		return appended, m, err
	}

	next := m.Clone()
	next.TakenHistory = append(next.TakenHistory, ev)
	next.UpdatedAt = now
	saved, err := s.store.Save(callCtx, next)
	if err != nil {
		return false, m, err
	}
	return true, saved, nil
}
