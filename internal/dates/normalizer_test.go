package dates

import (
	"testing"
	"time"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(NewConfigTimezones(&config.Config{
		Sites: map[string]config.SiteConfig{
			"1": {Timezone: "Europe/Berlin"},
			"2": {Timezone: "UTC"},
			"3": {Timezone: "Mars/Olympus"},
		},
	}))
}

func TestDayRange(t *testing.T) {
	n := testNormalizer()

	start, end, err := n.DayRange(1, "2024-07-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 14, 22, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 7, 15, 21, 59, 59, 0, time.UTC), end)

	start, end, err = n.DayRange(2, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC), end)
}

func TestDayRangeMissingTimezone(t *testing.T) {
	n := testNormalizer()

	_, _, err := n.DayRange(99, "2024-01-01")
	require.Error(t, err)
	assert.True(t, apperr.IsConfiguration(err))

	_, _, err = n.DayRange(3, "2024-01-01")
	assert.True(t, apperr.IsConfiguration(err))
}

func TestLocalDate(t *testing.T) {
	n := testNormalizer()

	d, err := n.LocalDate(1, time.Date(2024, 7, 14, 22, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-07-15", d)
}

func TestBetween(t *testing.T) {
	fwd, err := Between("2024-02-27", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, fwd)

	back, err := Between("2024-01-02", "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02", "2024-01-01", "2023-12-31"}, back)

	single, err := Between("2024-05-05", "2024-05-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-05"}, single)

	_, err = Between("2024-13-01", "2024-05-05")
	assert.Error(t, err)
}
