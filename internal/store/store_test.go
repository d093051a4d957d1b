package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodString(t *testing.T) {
	assert.Equal(t, "2025-03", Period{Year: 2025, Month: 3}.String())
	assert.Equal(t, "2025-12", Period{Year: 2025, Month: 12}.String())
}

func TestPeriodPrevious(t *testing.T) {
	assert.Equal(t, Period{Year: 2025, Month: 2}, Period{Year: 2025, Month: 3}.Previous())
	assert.Equal(t, Period{Year: 2024, Month: 12}, Period{Year: 2025, Month: 1}.Previous())
}

func TestLedgerPath(t *testing.T) {
	st := New("/data/csv", "/data/json")
	assert.Equal(t,
		filepath.Join("/data/csv", "2025", "202503_items.csv"),
		st.LedgerPath(Period{Year: 2025, Month: 3}))
}

func TestPeriodsScansLedgerTree(t *testing.T) {
	st := testStore(t)

	for _, p := range []Period{
		{Year: 2025, Month: 3},
		{Year: 2024, Month: 12},
		{Year: 2025, Month: 1},
	} {
		require.NoError(t, st.AppendLedger(p, []LedgerRow{sampleRow("x")}))
	}

	// Files that do not look like monthly ledgers are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(st.csvRoot, "2025", "notes.csv"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(st.csvRoot, "archive"), 0o755))

	periods, err := st.Periods()
	require.NoError(t, err)
	assert.Equal(t, []Period{
		{Year: 2024, Month: 12},
		{Year: 2025, Month: 1},
		{Year: 2025, Month: 3},
	}, periods)
}

func TestPeriodsMissingTree(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never-created"), t.TempDir())
	periods, err := st.Periods()
	require.NoError(t, err)
	assert.Empty(t, periods)
}
