package adherence

import (
	"testing"
	"time"

	"med-reminder/internal/domain/medications"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Bounds(t *testing.T) {
	p := DefaultPolicy()
	start, end := p.Bounds(day(8, 0))
	assert.True(t, start.Equal(day(8, 30)))
	assert.True(t, end.Equal(day(10, 0)))
}

func TestHistoryIndex_MatchesLinearScan(t *testing.T) {
	history := []medications.DoseEvent{
		{Status: medications.DoseStatusTaken, Timestamp: day(20, 0)},
		{Status: medications.DoseStatusMissed, Timestamp: day(8, 0)},
		{Status: medications.DoseStatusTaken, Timestamp: day(13, 10)},
	}
	m := medications.Medication{TakenHistory: history}
	idx := newHistoryIndex(history)

	for h := 0; h < 24; h++ {
		for _, mm := range []int{0, 15, 29, 30, 31, 45} {
			at := day(h, mm)
			assert.Equal(t, m.HasEventNear(at, DefaultGrace), idx.hasNear(at, DefaultGrace), "at %s", at.Format("15:04"))
		}
	}
}

func TestHistoryIndex_Add(t *testing.T) {
	idx := newHistoryIndex(nil)
	assert.False(t, idx.hasNear(day(9, 0), time.Minute))

	idx.add(day(9, 0))
	idx.add(day(7, 0))
	idx.add(day(8, 0))

	assert.True(t, idx.hasNear(day(8, 0), time.Minute))
	assert.Equal(t, []time.Time{day(7, 0), day(8, 0), day(9, 0)}, idx.ts)
}
