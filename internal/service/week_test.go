package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekNumber(t *testing.T) {
	start := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		date time.Time
		want int
	}{
		{"start day is week one", start, 1},
		{"sixth day after start", start.AddDate(0, 0, 6), 1},
		{"seventh day rolls to week two", start.AddDate(0, 0, 7), 2},
		{"mid program", start.AddDate(0, 0, 85), 13},
		{"last day of week 25", start.AddDate(0, 0, 174), 25},
		{"first day past the program", start.AddDate(0, 0, 175), 26},
		{"day before start is week zero", start.AddDate(0, 0, -1), 0},
		{"eight days before start", start.AddDate(0, 0, -8), -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekNumber(tc.date, start))
		})
	}
}

func TestWeekNumberIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.January, 8, 23, 59, 0, 0, time.UTC)
	logDate := time.Date(2024, time.January, 14, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, WeekNumber(logDate, start))
}
