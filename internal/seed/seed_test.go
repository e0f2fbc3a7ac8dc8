package seed_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster/rostertest"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/seed"
)

func TestImportWorkers(t *testing.T) {
	store := rostertest.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	csv := strings.Join([]string{
		"Handle, Email, Full_Name, Phone, Age, City",
		"ivan, ivan@example.com, Иван Петров, +79001234567, 25, Москва",
		"olga, olga@example.com, Ольга Смирнова, +79007654321, abc, Самара",
		"petr, petr@example.com, Пётр, +79001112233, 15, Самара",
		"ivan, ivan2@example.com, Иван Второй, +79001234500, 30, Москва",
		"anna, anna@example.com, Анна Ковалёва, +79005554433, 41, Сочи",
	}, "\n")

	report, err := seed.ImportWorkers(context.Background(), store, strings.NewReader(csv), logger)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 3, report.Skipped)

	profiles, err := store.ListActiveProfilesByCity(context.Background(), "Москва")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Иван Петров", profiles[0].FullName)
	assert.Equal(t, int32(25), profiles[0].Age)
}

func TestImportWorkersRequiresHeaders(t *testing.T) {
	store := rostertest.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := seed.ImportWorkers(context.Background(), store, strings.NewReader("handle,email\nivan,ivan@example.com\n"), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full_name")
}
