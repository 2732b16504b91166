package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"med-reminder/internal/domain/medications"

	"github.com/jackc/pgx/v5/pgconn"
)

// classify traduce errores de pgx a la taxonomía del dominio:
// - SQLSTATE clase 22/23 (datos/constraints) => ErrValidation
// - conexión, timeout, shutdown => ErrStoreUnavailable
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
			return &medications.ValidationError{Fields: map[string]string{
				fieldFromConstraint(pgErr): fmt.Sprintf("%s (%s)", pgErr.Message, pgErr.Code),
			}}
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return errors.Join(medications.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err):
		return errors.Join(medications.ErrStoreUnavailable, err)
	}
	return err
}

func fieldFromConstraint(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "medication"
}
