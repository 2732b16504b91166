package medications

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	ListByUser(ctx context.Context, userID string) ([]Medication, error)
	ListAll(ctx context.Context) ([]Medication, error)

	// Save persiste el documento completo. Falla con ErrConflict si Version
	// no coincide con la almacenada; en éxito devuelve la versión incrementada.
	Save(ctx context.Context, m Medication) (Medication, error)

	Delete(ctx context.Context, id string) error
	ClearHistoryByUser(ctx context.Context, userID string) (int, error)
}

// EventAppender es opcional: append atómico condicionado.
// Agrega e sólo si no existe otro evento a menos de window de e.Timestamp.
type EventAppender interface {
	AppendIfNoEventNear(ctx context.Context, id string, e DoseEvent, window time.Duration) (bool, error)
}

type HistoryFilter struct {
	Status DoseStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}
