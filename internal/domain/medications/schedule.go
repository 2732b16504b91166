package medications

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedDoseTime = errors.New("malformed dose time")

// DoseTime es un horario del día (24h) de una toma programada.
type DoseTime struct {
	Hour   int
	Minute int
}

// ParseDoseTime acepta "HH:MM" o "H:MM".
func ParseDoseTime(s string) (DoseTime, error) {
	raw := strings.TrimSpace(s)
	h, m, ok := strings.Cut(raw, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return DoseTime{}, fmt.Errorf("%w: %q", ErrMalformedDoseTime, s)
	}

	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return DoseTime{}, fmt.Errorf("%w: %q", ErrMalformedDoseTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return DoseTime{}, fmt.Errorf("%w: %q", ErrMalformedDoseTime, s)
	}

	return DoseTime{Hour: hour, Minute: minute}, nil
}

// On devuelve el instante de este horario en el día calendario de day (en su Location).
func (d DoseTime) On(day time.Time) time.Time {
	y, mo, dd := day.Date()
	return time.Date(y, mo, dd, d.Hour, d.Minute, 0, 0, day.Location())
}

func (d DoseTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// NormalizeDoseTimes valida y normaliza a HH:MM conservando el orden.
func NormalizeDoseTimes(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		dt, err := ParseDoseTime(s)
		if err != nil {
			return nil, err
		}
		out = append(out, dt.String())
	}
	return out, nil
}
