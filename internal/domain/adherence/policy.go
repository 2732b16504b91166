package adherence

import "time"

const (
	DefaultGrace  = 30 * time.Minute
	DefaultWindow = 120 * time.Minute
)

// Policy define la ventana de detección de una toma programada:
// [scheduled+Grace, scheduled+Window).
type Policy struct {
	// Grace absorbe confirmaciones tardías y es el radio del chequeo de duplicados.
	Grace time.Duration
	// Window es el tope superior; pasado ese punto el slot queda sin resolver.
	Window time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Grace: DefaultGrace, Window: DefaultWindow}
}

// Bounds devuelve el rango semiabierto [start, end) de detección.
func (p Policy) Bounds(scheduled time.Time) (time.Time, time.Time) {
	return scheduled.Add(p.Grace), scheduled.Add(p.Window)
}

// InWindow indica si now cae dentro de [scheduled+Grace, scheduled+Window).
func (p Policy) InWindow(now, scheduled time.Time) bool {
	start, end := p.Bounds(scheduled)
	return !now.Before(start) && now.Before(end)
}
