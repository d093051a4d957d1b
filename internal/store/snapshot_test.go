package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadoya0703/kakeibo/internal/receipt"
)

func snapshotResult() *receipt.Result {
	return &receipt.Result{
		SourceFile: "receipt.jpg",
		Summary: receipt.Summary{
			MerchantName: "Seven Mart",
			DateISO:      "2025-03-07",
			TimeNorm:     "13:05:59",
			TotalYen:     intPtr(1200),
		},
		Items: []*receipt.Item{
			{Name: "Milk", Tag: receipt.CategoryFood, TotalYen: intPtr(238)},
		},
		Raw: map[string]any{"never": "persisted"},
	}
}

func TestSaveSnapshotWritesUnderYearDir(t *testing.T) {
	st := testStore(t)

	name, err := st.SaveSnapshot(snapshotResult(), "20250307_130559_Seven Mart", 2025)
	require.NoError(t, err)
	assert.Equal(t, "20250307_130559_Seven Mart.json", name)

	data, err := os.ReadFile(filepath.Join(st.jsonRoot, "2025", name))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "Seven Mart", summary["merchant_name"])
	assert.Equal(t, "2025-03-07", summary["date"])
	assert.Equal(t, "13:05:59", summary["time"])
	assert.Equal(t, 1200.0, summary["total"])

	items := decoded["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "food", items[0].(map[string]any)["tag"])

	// The raw OCR payload stays out of the snapshot.
	_, rawPresent := decoded["never"]
	assert.False(t, rawPresent)
	_, rawKey := decoded["Raw"]
	assert.False(t, rawKey)
}

func TestSaveSnapshotNeverOverwrites(t *testing.T) {
	st := testStore(t)
	id := "20250307_130559_Shop"

	first, err := st.SaveSnapshot(snapshotResult(), id, 2025)
	require.NoError(t, err)
	second, err := st.SaveSnapshot(snapshotResult(), id, 2025)
	require.NoError(t, err)
	third, err := st.SaveSnapshot(snapshotResult(), id, 2025)
	require.NoError(t, err)

	assert.Equal(t, id+".json", first)
	assert.Equal(t, id+"_1.json", second)
	assert.Equal(t, id+"_2.json", third)
}
