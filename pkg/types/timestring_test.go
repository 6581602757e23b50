package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("10:30")
	require.NoError(t, err)
	assert.Equal(t, "10:30", ts.String())

	_, err = NewTimeStringFromString("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = NewTimeStringFromString("10:30:00")
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = NewTimeStringFromString("")
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeStringSQLRoundtrip(t *testing.T) {
	// Пустое время хранится как NULL
	v, err := TimeString("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = TimeString("10:30").Value()
	require.NoError(t, err)
	assert.Equal(t, "10:30", v)

	var scanned TimeString
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	require.NoError(t, scanned.Scan("14:00"))
	assert.Equal(t, TimeString("14:00"), scanned)

	require.NoError(t, scanned.Scan([]byte("15:30")))
	assert.Equal(t, TimeString("15:30"), scanned)

	require.NoError(t, scanned.Scan(time.Date(2025, 6, 10, 9, 45, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("09:45"), scanned)

	assert.Error(t, scanned.Scan(42))
}
