package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"med-reminder/internal/adapters/storage/codec"
	"med-reminder/internal/domain/medications"
)

const medicationColumns = `
	id, user_id,
	name, dose, dose_times, meal_relation,
	start_date, end_date,
	total_tabs, current_tabs, refill_threshold,
	taken_history,
	created_at, updated_at, version`

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	if err := medications.Validate(m); err != nil {
		return err
	}
	times, history, err := encodeDocs(m)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,1)
	`,
		m.ID,
		m.UserID,
		m.Name,
		m.Dose,
		times,
		string(m.MealRelation),
		m.StartDate,
		m.EndDate,
		m.TotalTabs,
		m.CurrentTabs,
		m.RefillThreshold,
		history,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return classify(err)
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)

	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrNotFound
		}
		return medications.Medication{}, classify(err)
	}
	return m, nil
}

func (r *MedicationsRepo) ListByUser(ctx context.Context, userID string) ([]medications.Medication, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	return r.query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
}

func (r *MedicationsRepo) ListAll(ctx context.Context) ([]medications.Medication, error) {
	return r.query(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		ORDER BY created_at ASC, id ASC
	`)
}

func (r *MedicationsRepo) query(ctx context.Context, q string, args ...any) ([]medications.Medication, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, m)
	}
	return out, classify(rows.Err())
}

// Save reemplaza el documento si la versión coincide (concurrencia optimista).
func (r *MedicationsRepo) Save(ctx context.Context, m medications.Medication) (medications.Medication, error) {
	if err := medications.Validate(m); err != nil {
		return medications.Medication{}, err
	}
	times, history, err := encodeDocs(m)
	if err != nil {
		return medications.Medication{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $2,
			dose = $3,
			dose_times = $4,
			meal_relation = $5,
			start_date = $6,
			end_date = $7,
			total_tabs = $8,
			current_tabs = $9,
			refill_threshold = $10,
			taken_history = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $13
	`,
		m.ID,
		m.Name,
		m.Dose,
		times,
		string(m.MealRelation),
		m.StartDate,
		m.EndDate,
		m.TotalTabs,
		m.CurrentTabs,
		m.RefillThreshold,
		history,
		m.UpdatedAt,
		m.Version,
	)
	if err != nil {
		return medications.Medication{}, classify(err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return medications.Medication{}, err
		}
		return medications.Medication{}, medications.ErrConflict
	}

	m.Version++
	return m, nil
}

// AppendIfNoEventNear hace el append y el chequeo de duplicado en un único UPDATE.
func (r *MedicationsRepo) AppendIfNoEventNear(ctx context.Context, id string, e medications.DoseEvent, window time.Duration) (bool, error) {
	raw, err := codec.EncodeEvent(e)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			taken_history = taken_history || jsonb_build_array($2::jsonb),
			updated_at = now(),
			version = version + 1
		WHERE id = $1
		  AND NOT EXISTS (
			SELECT 1
			FROM jsonb_array_elements(taken_history) AS ev
			WHERE abs(extract(epoch FROM ((ev->>'timestamp')::timestamptz - $3::timestamptz))) < $4
		  )
	`, id, string(raw), e.Timestamp, window.Seconds())
	if err != nil {
		return false, classify(err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}
	// 0 filas: o no existe, o ya hay un evento cerca
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) ClearHistoryByUser(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET taken_history = '[]'::jsonb, updated_at = now(), version = version + 1
		WHERE user_id = $1 AND jsonb_array_length(taken_history) > 0
	`, userID)
	if err != nil {
		return 0, classify(err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedication(s rowScanner) (medications.Medication, error) {
	var m medications.Medication
	var meal string
	var times, history []byte

	if err := s.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Dose,
		&times,
		&meal,
		&m.StartDate,
		&m.EndDate,
		&m.TotalTabs,
		&m.CurrentTabs,
		&m.RefillThreshold,
		&history,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.Version,
	); err != nil {
		return medications.Medication{}, err
	}

	var err error
	m.MealRelation = medications.MealRelation(meal)
	if m.DoseTimes, err = codec.DecodeDoseTimes(times); err != nil {
		return medications.Medication{}, err
	}
	if m.TakenHistory, err = codec.DecodeHistory(history); err != nil {
		return medications.Medication{}, err
	}
	return m, nil
}

func encodeDocs(m medications.Medication) (string, string, error) {
	times, err := codec.EncodeDoseTimes(m.DoseTimes)
	if err != nil {
		return "", "", err
	}
	history, err := codec.EncodeHistory(m.TakenHistory)
	if err != nil {
		return "", "", err
	}
	return string(times), string(history), nil
}
