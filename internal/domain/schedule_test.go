package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKey(t *testing.T) {
	assert.Equal(t, "sunday", DayKey(time.Sunday))
	assert.Equal(t, "monday", DayKey(time.Monday))
	assert.Equal(t, "saturday", DayKey(time.Saturday))
}

func TestGenerateHours_Emergency(t *testing.T) {
	s := GenerateHours("76990214302", true)

	require.Len(t, s, 7)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		require.NotNil(t, s[day], day)
		assert.Equal(t, "8:00-22:00", *s[day], day)
	}
	assert.Equal(t, "9:00-21:00", *s["saturday"])
	assert.Equal(t, "10:00-20:00", *s["sunday"])
}

func TestGenerateHours_SeededDraws(t *testing.T) {
	tests := []struct {
		seed     string
		weekday  string
		saturday *string
		sunday   *string
	}{
		{"75990208561", "9:00-20:00", strPtr("9:00-13:30"), strPtr("10:00-13:00")},
		{"76990214302", "9:00-20:00", strPtr("9:00-13:30"), nil},
		{"99000511234", "9:00-13:30 / 16:00-20:00", strPtr("9:00-13:30"), nil},
		{"87654321012", "9:00-13:30 / 16:00-20:00", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			s := GenerateHours(tt.seed, false)
			require.Len(t, s, 7)
			for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
				require.NotNil(t, s[day])
				assert.Equal(t, tt.weekday, *s[day])
			}
			assert.Equal(t, tt.saturday, s["saturday"])
			assert.Equal(t, tt.sunday, s["sunday"])
		})
	}
}

func TestGenerateLanguages(t *testing.T) {
	assert.Equal(t, []string{"Catalán", "Castellano", "Inglés"}, GenerateLanguages("75990208561"))
	assert.Equal(t, []string{"Catalán", "Castellano", "Inglés", "Francés"}, GenerateLanguages("76990214302"))
	assert.Equal(t, []string{"Catalán", "Castellano"}, GenerateLanguages("99000511234"))
}

func TestSchedule_Range(t *testing.T) {
	s := Schedule{"monday": strPtr("9:00-20:00"), "sunday": nil}
	assert.Equal(t, "9:00-20:00", s.Range(time.Monday))
	assert.Equal(t, "", s.Range(time.Sunday))
	assert.Equal(t, "", s.Range(time.Tuesday))
}
