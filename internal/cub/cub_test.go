package cub

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series() Series {
	return Series{
		City:   "Cuiaba-MT",
		Source: "teste",
		Entries: []Entry{
			{Period: "2024-03", Economico: 2000, Medio: 2500, Alto: 3000},
			{Period: "2024-01", Economico: 1900, Medio: 2400, Alto: 2900},
			{Period: "2024-02", Economico: 1950, Medio: 2450, Alto: 2950},
		},
	}
}

func TestLookup_LatestNotAfterTarget(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	ref := series().Lookup("Médio", "2024-02", now)
	assert.Equal(t, 2450.0, ref.Value)
	assert.Equal(t, "medio", ref.Standard)
	assert.Equal(t, "2024-02", ref.Period)
	assert.Equal(t, "02/2024", ref.PeriodBR)
	assert.Equal(t, "serie_mensal", ref.Method)
}

func TestLookup_FallsBackToLatest(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	ref := series().Lookup("premium", "2023-06", now)
	assert.Equal(t, 3000.0, ref.Value)
	assert.Equal(t, "2024-03", ref.Period)
}

func TestLookup_DefaultTargetIsPreviousMonth(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	ref := series().Lookup("", "", now)
	assert.Equal(t, "economico", ref.Standard)
	assert.Equal(t, "2024-02", ref.Period)
	assert.Equal(t, 1950.0, ref.Value)
}

func TestLookup_EmptySeries(t *testing.T) {
	ref := Series{City: "X"}.Lookup("alto", "", time.Now())
	assert.Equal(t, "sem_base", ref.Method)
	assert.Zero(t, ref.Value)
	assert.Equal(t, "alto", ref.Standard)
}

func TestReferencePeriod(t *testing.T) {
	assert.Equal(t, "2023-12", ReferencePeriod(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-02", ReferencePeriod(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodFormatting(t *testing.T) {
	assert.Equal(t, "05/2024", PeriodBR("2024-05"))
	assert.Equal(t, "bad", PeriodBR("bad"))
	assert.Equal(t, "mai/24", PeriodShort("2024-05"))
	assert.Equal(t, "", PeriodShort("2024"))
}

func TestLoadSeries(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadSeries(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Entries)
	assert.Equal(t, "Cuiaba-MT", s.City)

	path := filepath.Join(dir, "cub.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"series":[{"competencia":"2024-01","economico":1,"medio":2,"alto":3}]}`), 0o644))
	s, err = LoadSeries(path)
	require.NoError(t, err)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "Base referencial Lokao", s.Source)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadSeries(path)
	assert.Error(t, err)
}
