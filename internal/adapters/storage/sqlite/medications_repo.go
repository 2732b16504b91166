package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-reminder/internal/adapters/storage/codec"
	"med-reminder/internal/domain/medications"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const medicationColumns = `
	id, user_id,
	name, dose, dose_times, meal_relation,
	start_date, end_date,
	total_tabs, current_tabs, refill_threshold,
	taken_history,
	created_at, updated_at, version`

const timeLayout = time.RFC3339Nano

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
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)
	`,
		m.ID,
		m.UserID,
		m.Name,
		m.Dose,
		times,
		string(m.MealRelation),
		formatTime(m.StartDate),
		formatTime(m.EndDate),
		m.TotalTabs,
		m.CurrentTabs,
		m.RefillThreshold,
		history,
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	)
	return classify(err)
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	return getByID(ctx, r.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q queryRower, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := q.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id)
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
		WHERE user_id = ?
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
			name = ?,
			dose = ?,
			dose_times = ?,
			meal_relation = ?,
			start_date = ?,
			end_date = ?,
			total_tabs = ?,
			current_tabs = ?,
			refill_threshold = ?,
			taken_history = ?,
			updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`,
		m.Name,
		m.Dose,
		times,
		string(m.MealRelation),
		formatTime(m.StartDate),
		formatTime(m.EndDate),
		m.TotalTabs,
		m.CurrentTabs,
		m.RefillThreshold,
		history,
		formatTime(m.UpdatedAt),
		m.ID,
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

// AppendIfNoEventNear lee, chequea y escribe dentro de una transacción.
func (r *MedicationsRepo) AppendIfNoEventNear(ctx context.Context, id string, e medications.DoseEvent, window time.Duration) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	m, err := getByID(ctx, tx, id)
	if err != nil {
		return false, err
	}
	if m.HasEventNear(e.Timestamp, window) {
		return false, nil
	}

	m.TakenHistory = append(m.TakenHistory, e)
	if err := medications.Validate(m); err != nil {
		return false, err
	}
	history, err := codec.EncodeHistory(m.TakenHistory)
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE medications
		SET taken_history = ?, updated_at = ?, version = version + 1
		WHERE id = ?
	`, string(history), formatTime(time.Now()), id); err != nil {
		return false, classify(err)
	}

	if err := tx.Commit(); err != nil {
		return false, classify(err)
	}
	return true, nil
}

func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ?`, id)
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
		SET taken_history = '[]', updated_at = ?, version = version + 1
		WHERE user_id = ? AND taken_history <> '[]'
	`, formatTime(time.Now()), userID)
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
	var meal, times, history string
	var start, end, created, updated string

	if err := s.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Dose,
		&times,
		&meal,
		&start,
		&end,
		&m.TotalTabs,
		&m.CurrentTabs,
		&m.RefillThreshold,
		&history,
		&created,
		&updated,
		&m.Version,
	); err != nil {
		return medications.Medication{}, err
	}

	var err error
	m.MealRelation = medications.MealRelation(meal)
	if m.DoseTimes, err = codec.DecodeDoseTimes([]byte(times)); err != nil {
		return medications.Medication{}, err
	}
	if m.TakenHistory, err = codec.DecodeHistory([]byte(history)); err != nil {
		return medications.Medication{}, err
	}
	for _, p := range []struct {
		raw string
		dst *time.Time
	}{
		{start, &m.StartDate},
		{end, &m.EndDate},
		{created, &m.CreatedAt},
		{updated, &m.UpdatedAt},
	} {
		t, err := time.Parse(timeLayout, p.raw)
		if err != nil {
			return medications.Medication{}, fmt.Errorf("sqlite: parse time %q: %w", p.raw, err)
		}
		*p.dst = t
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

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// classify: constraint => ErrValidation; busy/locked/ctx => ErrStoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(medications.ErrStoreUnavailable, err)
	}

	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return &medications.ValidationError{Fields: map[string]string{"medication": serr.Error()}}
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return errors.Join(medications.ErrStoreUnavailable, err)
		}
	}
	return err
}
