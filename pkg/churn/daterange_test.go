package churn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	rng, err := churn.ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rng.Start)
	assert.Equal(t, "2024-01-01..2024-01-31", rng.String())

	same, err := churn.ParseDateRange("2024-05-05", "2024-05-05")
	require.NoError(t, err)
	assert.True(t, same.Contains(time.Date(2024, 5, 5, 23, 59, 0, 0, time.UTC)))
}

func TestParseDateRange_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end string
	}{
		{"start after end", "2024-02-01", "2024-01-01"},
		{"garbage start", "yesterday", "2024-01-01"},
		{"garbage end", "2024-01-01", "2024/02/01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := churn.ParseDateRange(tt.start, tt.end)
			require.ErrorIs(t, err, churn.ErrInvalidRange)
		})
	}
}

func TestParseDate_RFC3339(t *testing.T) {
	t.Parallel()

	got, err := churn.ParseDate("2024-03-10T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestDateRange_ContainsUsesOwnOffset(t *testing.T) {
	t.Parallel()

	rng, err := churn.ParseDateRange("2024-01-02", "2024-01-02")
	require.NoError(t, err)

	// 2024-01-01 22:00 UTC is already 2024-01-02 in UTC+05.
	plusFive := time.Date(2024, 1, 2, 3, 0, 0, 0, time.FixedZone("", 5*3600))
	assert.True(t, rng.Contains(plusFive))
	assert.False(t, rng.Contains(plusFive.UTC()))

	assert.True(t, rng.Contains(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.False(t, rng.Contains(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
}

func TestNewDateRange_Truncates(t *testing.T) {
	t.Parallel()

	rng, err := churn.NewDateRange(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, rng.Start, rng.End)
}
