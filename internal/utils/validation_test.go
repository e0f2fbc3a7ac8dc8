package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"8:00":   "08:00",
		"08:00":  "08:00",
		" 20:30": "20:30",
		"":       "",
	}
	for in, want := range cases {
		got, err := NormalizeClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"25:00", "8", "8:0:0", "evening"} {
		_, err := NormalizeClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateShift(t *testing.T) {
	shift := &domain.Shift{
		City:                "Москва",
		Date:                "20.10.2026, 09:00",
		MainSlots:           2,
		EveningReminderTime: "20:00",
		MorningReminderTime: "7:30",
	}
	require.NoError(t, ValidateShift(shift))
	assert.Equal(t, "07:30", shift.MorningReminderTime)

	shift.MainSlots = 0
	assert.Error(t, ValidateShift(shift))

	shift.MainSlots = 1
	shift.ReserveSlots = -1
	assert.Error(t, ValidateShift(shift))

	shift.ReserveSlots = 0
	shift.EveningReminderTime = "8 pm"
	assert.Error(t, ValidateShift(shift))
}

func TestValidateProfile(t *testing.T) {
	p := &domain.WorkerProfile{FullName: " Иванов Иван ", Phone: "+79001234567", Age: 25, City: "Самара"}
	require.NoError(t, ValidateProfile(p))
	assert.Equal(t, "Иванов Иван", p.FullName)

	p.Age = 15
	assert.Error(t, ValidateProfile(p))

	p.Age = 30
	p.Phone = "12345"
	assert.Error(t, ValidateProfile(p))
}

func TestGenerateRandomShiftIsValid(t *testing.T) {
	shift := GenerateRandomShift("Москва", mustTime(t))
	require.NoError(t, ValidateShift(shift))
	assert.GreaterOrEqual(t, shift.MainSlots, int32(1))
}

func mustTime(t *testing.T) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-10-19T12:00:00Z")
	require.NoError(t, err)
	return ts
}
