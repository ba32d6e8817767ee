package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCalendarDate(t *testing.T) {
	testCases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-08-24", "2025-08-24", true},
		{"2025/8/4", "2025-08-04", true},
		{"2025.12.31", "2025-12-31", true},
		{"2025-08-24T22:33:59Z", "2025-08-24", true},
		{"2025-08-24 22:33:59.302 Atlantic/Faroe", "2025-08-24", true},
		{"  2025-01-02  ", "2025-01-02", true},
		{"2025-02-30", "", false},
		{"2025-13-01", "", false},
		{"24-08-2025", "", false},
		{"2025-08-24Tgarbage", "", false},
		{"", "", false},
		{"conversations.json", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseCalendarDate(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got.Format(DateLayout))
			}
		})
	}
}

func TestNormalizeDates(t *testing.T) {
	t.Run("Сортировка по календарю, а не по строкам", func(t *testing.T) {
		in := []string{"2025/9/1", "2025-08-30", "2025-08-24T10:00:00", "2025.08.24", "bogus", "2025-09-01 00:00:01"}
		assert.Equal(t, []string{"2025-08-24", "2025-08-30", "2025-09-01"}, NormalizeDates(in))
	})

	t.Run("Пустой вход", func(t *testing.T) {
		assert.Empty(t, NormalizeDates(nil))
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Run("Формат экспорта с зоной", func(t *testing.T) {
		ts, ok := ParseTimestamp("2025-08-24 22:33:59.302 Atlantic/Faroe")
		require.True(t, ok)
		loc, err := time.LoadLocation("Atlantic/Faroe")
		require.NoError(t, err)
		assert.True(t, ts.Equal(time.Date(2025, 8, 24, 22, 33, 59, 302000000, loc)))
	})

	t.Run("Неизвестная зона трактуется как UTC", func(t *testing.T) {
		ts, ok := ParseTimestamp("2025-08-24 09:15:00.000 Nowhere/Land")
		require.True(t, ok)
		assert.True(t, ts.Equal(time.Date(2025, 8, 24, 9, 15, 0, 0, time.UTC)))
	})

	t.Run("RFC3339", func(t *testing.T) {
		ts, ok := ParseTimestamp("2025-07-27T14:00:00Z")
		require.True(t, ok)
		assert.Equal(t, 14, ts.Hour())
	})

	t.Run("Мусор", func(t *testing.T) {
		_, ok := ParseTimestamp("yesterday")
		assert.False(t, ok)
		_, ok = ParseTimestamp("")
		assert.False(t, ok)
	})
}
