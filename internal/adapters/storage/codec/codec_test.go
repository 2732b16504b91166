package codec

import (
	"testing"
	"time"

	"med-reminder/internal/domain/medications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_KeepsOrderAndInstant(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	in := []medications.DoseEvent{
		{Status: medications.DoseStatusMissed, Timestamp: time.Date(2025, 6, 24, 8, 0, 0, 0, loc)},
		{Status: medications.DoseStatusTaken, Timestamp: time.Date(2025, 6, 24, 7, 50, 0, 0, loc)},
	}

	raw, err := EncodeHistory(in)
	require.NoError(t, err)

	out, err := DecodeHistory(raw)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, medications.DoseStatusMissed, out[0].Status)
	assert.True(t, out[0].Timestamp.Equal(in[0].Timestamp))
	assert.True(t, out[1].Timestamp.Equal(in[1].Timestamp))
}

func TestDecode_EmptyAndNull(t *testing.T) {
	times, err := DecodeDoseTimes(nil)
	require.NoError(t, err)
	assert.Empty(t, times)
	assert.NotNil(t, times)

	raw, err := EncodeDoseTimes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	_, err = DecodeHistory([]byte("{bad"))
	assert.Error(t, err)
}
