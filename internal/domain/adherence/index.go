package adherence

import (
	"sort"
	"time"

	"med-reminder/internal/domain/medications"
)

// historyIndex ordena los timestamps del historial una vez por medicación y
// ciclo, para responder "¿hay un evento a menos de d de t?" con búsqueda binaria.
// Mismo resultado que recorrer TakenHistory completo.
type historyIndex struct {
	ts []time.Time
}

func newHistoryIndex(history []medications.DoseEvent) *historyIndex {
	ts := make([]time.Time, 0, len(history))
	for _, e := range history {
		ts = append(ts, e.Timestamp)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
	return &historyIndex{ts: ts}
}

// hasNear: existe e con |e - t| < d (estricto), sin importar el status.
func (x *historyIndex) hasNear(t time.Time, d time.Duration) bool {
	lo := t.Add(-d)
	// primer timestamp > lo
	i := sort.Search(len(x.ts), func(i int) bool { return x.ts[i].After(lo) })
	return i < len(x.ts) && x.ts[i].Before(t.Add(d))
}

func (x *historyIndex) add(t time.Time) {
	i := sort.Search(len(x.ts), func(i int) bool { return x.ts[i].After(t) })
	x.ts = append(x.ts, time.Time{})
	copy(x.ts[i+1:], x.ts[i:])
	x.ts[i] = t
}
