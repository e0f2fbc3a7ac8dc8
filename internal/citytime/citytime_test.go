package citytime

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolver_LocalTimeAcrossZones(t *testing.T) {
	r, err := New("", "")
	require.NoError(t, err)

	// 2026-10-19 05:30 UTC
	r.WithClock(fixed(time.Date(2026, 10, 19, 5, 30, 0, 0, time.UTC)))

	assert.Equal(t, "08:30", r.LocalTime("Москва"))
	assert.Equal(t, "09:30", r.LocalTime("Самара"))
	assert.Equal(t, "10:30", r.LocalTime("Сургут"))
	assert.Equal(t, "12:30", r.LocalTime("Новокузнецк"))
	assert.Equal(t, "13:30", r.LocalTime("Улан-Удэ"))
	assert.Equal(t, "15:30", r.LocalTime("Хабаровск"))
}

func TestResolver_LocalDateRollsOverPerCity(t *testing.T) {
	r, err := New("", "")
	require.NoError(t, err)

	// 在莫斯科还是前一天晚上，在哈巴罗夫斯克已经是第二天早上
	r.WithClock(fixed(time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)))

	assert.Equal(t, "19.10.2026", r.LocalDate("Москва"))
	assert.Equal(t, "20.10.2026", r.LocalDate("Хабаровск"))
}

func TestResolver_UnknownCityUsesFallback(t *testing.T) {
	r, err := New("", "")
	require.NoError(t, err)
	r.WithClock(fixed(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)))

	assert.False(t, r.Known("Атлантида"))
	assert.Equal(t, "12:00", r.LocalTime("Атлантида"))
	assert.Equal(t, r.Location("Москва").String(), r.Location("Атлантида").String())
}

func TestResolver_LoadsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.yaml")
	content := "fallback: UTC\ncities:\n  Калининград: Europe/Kaliningrad\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := New(path, "")
	require.NoError(t, err)
	r.WithClock(fixed(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)))

	assert.Equal(t, []string{"Калининград"}, r.Cities())
	assert.Equal(t, "11:00", r.LocalTime("Калининград"))
	assert.Equal(t, "09:00", r.LocalTime("Москва"))
}

func TestResolver_RejectsBadZone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cities:\n  X: Mars/Olympus\n"), 0o644))

	_, err := New(path, "")
	require.Error(t, err)
}
