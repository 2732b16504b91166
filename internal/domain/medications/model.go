package medications

import "time"

// DoseEvent es una entrada del historial de tomas.
// Para missed, Timestamp es el horario programado (no el de detección).
type DoseEvent struct {
	Status    DoseStatus `validate:"required,oneof=taken missed"`
	Timestamp time.Time  `validate:"required"`
}

// Medication representa una medicación prescrita a un usuario.
type Medication struct {
	ID     string `validate:"required"`
	UserID string `validate:"required"`

	Name string `validate:"required"`
	Dose string `validate:"required"` // texto libre: "2 tablets"

	// Horarios diarios HH:MM (24h). Puede estar vacío.
	DoseTimes    []string
	MealRelation MealRelation `validate:"omitempty,oneof='Before Meal' 'After Meal' 'Anytime' 'With Food'"`

	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtefield=StartDate"`

	TotalTabs       int `validate:"gte=0"`
	CurrentTabs     int `validate:"gte=0"`
	RefillThreshold int `validate:"gte=0"`

	// Append-only; orden de inserción.
	TakenHistory []DoseEvent `validate:"dive"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Versión para concurrencia optimista en Save.
	Version int
}

// LowStock indica si quedan tantas o menos unidades que el umbral de reposición.
func (m Medication) LowStock() bool {
	return m.CurrentTabs <= m.RefillThreshold
}

// Clone devuelve una copia sin aliasing de slices.
func (m Medication) Clone() Medication {
	out := m
	if m.DoseTimes != nil {
		out.DoseTimes = append([]string(nil), m.DoseTimes...)
	}
	if m.TakenHistory != nil {
		out.TakenHistory = append([]DoseEvent(nil), m.TakenHistory...)
	}
	return out
}

// HasEventNear indica si algún evento del historial cae a menos de window de t.
func (m Medication) HasEventNear(t time.Time, window time.Duration) bool {
	for _, e := range m.TakenHistory {
		d := e.Timestamp.Sub(t)
		if d < 0 {
			d = -d
		}
		if d < window {
			return true
		}
	}
	return false
}
