package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadoya0703/kakeibo/internal/receipt"
)

func TestCleanModelJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already clean",
			in:   `{"items": []}`,
			want: `{"items": []}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"items\": []}\n```",
			want: `{"items": []}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"items\": []}\n```",
			want: `{"items": []}`,
		},
		{
			name: "leading prose",
			in:   "Here is the classification:\n{\"items\": [{\"name\": \"Milk\"}]}",
			want: `{"items": [{"name": "Milk"}]}`,
		},
		{
			name: "trailing prose",
			in:   "{\"items\": []}\nLet me know if you need anything else.",
			want: `{"items": []}`,
		},
		{
			name: "array payload",
			in:   "```json\n[1, 2, 3]\n```",
			want: `[1, 2, 3]`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n {\"a\": 1} \n ",
			want: `{"a": 1}`,
		},
		{
			name: "no json at all",
			in:   "sorry, I cannot help with that",
			want: "sorry, I cannot help with that",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanModelJSON(tc.in))
		})
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestItemsPayload(t *testing.T) {
	items := []*receipt.Item{
		{Name: "Milk", TotalYen: intPtr(238), UnitYen: intPtr(238), Quantity: floatPtr(1)},
		{Name: "Mystery"},
	}

	payload, err := ItemsPayload(items)
	require.NoError(t, err)

	assert.Contains(t, payload, `"name": "Milk"`)
	assert.Contains(t, payload, `"total_price": 238`)
	assert.Contains(t, payload, `"quantity": 1`)
	// Absent values serialize as null, not zero.
	assert.Contains(t, payload, `"total_price": null`)
}
