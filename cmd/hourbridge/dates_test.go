package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	// Wednesday
	now := time.Date(2019, 1, 9, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"2019-01-01", "2019-01-01"},
		{"today", "2019-01-09"},
		{"yesterday", "2019-01-08"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDay(tt.in, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, 0, got.Hour())
		})
	}
}

func TestDayRange(t *testing.T) {
	now := time.Date(2019, 1, 9, 15, 30, 0, 0, time.UTC)

	_, _, days, err := dayRange("2019-01-01", "2019-01-03", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-01-01", "2019-01-02", "2019-01-03"}, days)

	_, _, days, err = dayRange("2019-01-05", "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-01-05"}, days)

	_, _, _, err = dayRange("2019-01-05", "2019-01-01", now)
	assert.ErrorContains(t, err, "before start")
}
