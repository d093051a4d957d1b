package receipt

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadoya0703/kakeibo/internal/logger"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard))
}

func rawWithFields(fields map[string]any) map[string]any {
	return map[string]any{
		"documents": []any{
			map[string]any{"fields": fields},
		},
	}
}

func TestNormalizeSynthesizesPseudoItem(t *testing.T) {
	raw := rawWithFields(map[string]any{
		"Total": map[string]any{
			"valueCurrency": map[string]any{"amount": 1200.0},
		},
	})

	result, err := Normalize(testContext(), raw, "receipt.jpg")
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "UNKNOWN", item.Name)
	require.NotNil(t, item.TotalYen)
	assert.Equal(t, 1200, *item.TotalYen)
	require.NotNil(t, item.UnitYen)
	assert.Equal(t, 1200, *item.UnitYen)
	require.NotNil(t, item.Quantity)
	assert.Equal(t, 1.0, *item.Quantity)
	assert.Equal(t, CategoryUnknown, item.Tag)
	assert.Empty(t, item.TagReason)
	assert.True(t, result.Summary.HasItems)
}

func TestNormalizePseudoItemUsesMerchantName(t *testing.T) {
	raw := rawWithFields(map[string]any{
		"MerchantName": map[string]any{"valueString": "Ramen Shop"},
		"Total":        map[string]any{"valueNumber": 850.0},
	})

	result, err := Normalize(testContext(), raw, "receipt.jpg")
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Ramen Shop", result.Items[0].Name)
}

func TestNormalizeRejectsNonReceipt(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
	}{
		{"empty tree", map[string]any{}},
		{"no documents", map[string]any{"documents": []any{}}},
		{"fields without total or items", rawWithFields(map[string]any{
			"MerchantName": map[string]any{"valueString": "Library"},
		})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(testContext(), tc.raw, "page.jpg")
			assert.ErrorIs(t, err, ErrNotReceipt)
		})
	}
}

func TestNormalizeAcceptsItemsWithoutTotal(t *testing.T) {
	raw := rawWithFields(map[string]any{
		"Items": map[string]any{
			"valueArray": []any{
				map[string]any{"valueObject": map[string]any{
					"Description": map[string]any{"valueString": "Milk"},
					"TotalPrice":  map[string]any{"valueNumber": 238.0},
				}},
			},
		},
	})

	result, err := Normalize(testContext(), raw, "receipt.jpg")
	require.NoError(t, err)

	assert.Nil(t, result.Summary.TotalYen)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Milk", result.Items[0].Name)
}

func TestNormalizeStripsPhoneLabelColon(t *testing.T) {
	raw := rawWithFields(map[string]any{
		"MerchantPhoneNumber": map[string]any{"content": ":03-1234-5678"},
		"Total":               map[string]any{"valueNumber": 500.0},
	})

	result, err := Normalize(testContext(), raw, "receipt.jpg")
	require.NoError(t, err)
	assert.Equal(t, "03-1234-5678", result.Summary.MerchantPhone)
}

func TestNormalizeRecoversTotalFromTranscript(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
	}{
		{"amount with en label", "お買上 金額: 1,480 円 ありがとうございました", 1480},
		{"goukei with yen sign", "小計 1,350\n合計 ¥1,480", 1480},
		{"bare yen sign", "お支払い ¥980", 980},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := rawWithFields(map[string]any{})
			raw["content"] = tc.content

			result, err := Normalize(testContext(), raw, "receipt.jpg")
			require.NoError(t, err)
			require.NotNil(t, result.Summary.TotalYen)
			assert.Equal(t, tc.want, *result.Summary.TotalYen)
		})
	}
}

func TestNormalizeItemShapes(t *testing.T) {
	// Each wire shape the OCR service has been seen to emit for the item
	// collection and its elements.
	shapes := map[string]any{
		"bare array": []any{
			map[string]any{"valueObject": map[string]any{
				"Description": map[string]any{"valueString": "Eggs"},
				"TotalPrice":  map[string]any{"valueNumber": 258.0},
			}},
		},
		"valueArray wrapper": map[string]any{
			"valueArray": []any{
				map[string]any{"valueObject": map[string]any{
					"Description": map[string]any{"valueString": "Eggs"},
					"TotalPrice":  map[string]any{"valueNumber": 258.0},
				}},
			},
		},
		"value wrapper with value element": map[string]any{
			"value": []any{
				map[string]any{"value": map[string]any{
					"Description": map[string]any{"valueString": "Eggs"},
					"TotalPrice":  map[string]any{"valueCurrency": map[string]any{"amount": 258.0}},
				}},
			},
		},
		"double wrapped": map[string]any{
			"value": map[string]any{
				"valueArray": []any{
					map[string]any{"valueObject": map[string]any{
						"Description": map[string]any{"valueString": "Eggs"},
						"TotalPrice":  map[string]any{"valueNumber": 258.0},
					}},
				},
			},
		},
	}

	for name, node := range shapes {
		t.Run(name, func(t *testing.T) {
			raw := rawWithFields(map[string]any{"Items": node})

			result, err := Normalize(testContext(), raw, "receipt.jpg")
			require.NoError(t, err)
			require.Len(t, result.Items, 1)
			assert.Equal(t, "Eggs", result.Items[0].Name)
			require.NotNil(t, result.Items[0].TotalYen)
			assert.Equal(t, 258, *result.Items[0].TotalYen)
		})
	}
}

func TestNormalizeDropsNoiseItems(t *testing.T) {
	raw := rawWithFields(map[string]any{
		"Items": map[string]any{
			"valueArray": []any{
				// Noise: no name, no prices.
				map[string]any{"valueObject": map[string]any{
					"Description": map[string]any{"valueString": "  "},
				}},
				// Kept: price but no name.
				map[string]any{"valueObject": map[string]any{
					"TotalPrice": map[string]any{"valueNumber": 100.0},
				}},
				// Kept: name but no price.
				map[string]any{"valueObject": map[string]any{
					"Description": map[string]any{"valueString": "Bag"},
				}},
			},
		},
	})

	result, err := Normalize(testContext(), raw, "receipt.jpg")
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "", result.Items[0].Name)
	assert.Equal(t, "Bag", result.Items[1].Name)
}

func TestNormalizeRoundsToYen(t *testing.T) {
	raw := rawWithFields(map[string]any{
		"Total":    map[string]any{"valueNumber": 1199.6},
		"TotalTax": map[string]any{"valueNumber": 109.2},
	})

	result, err := Normalize(testContext(), raw, "receipt.jpg")
	require.NoError(t, err)
	require.NotNil(t, result.Summary.TotalYen)
	assert.Equal(t, 1200, *result.Summary.TotalYen)
	require.NotNil(t, result.Summary.TaxYen)
	assert.Equal(t, 109, *result.Summary.TaxYen)
}

func TestNormalizeDateISO(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-03-07", "2025-03-07"},
		{"2025/3/7", "2025-03-07"},
		{"2025年3月7日", "2025-03-07"},
		{"date: 2024-12-31 (Tue)", "2024-12-31"},
		{"2025-13-40", ""},
		{"March 7th", ""},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeDateISO(tc.in))
		})
	}
}

func TestNormalizeDateISOIdempotent(t *testing.T) {
	for _, in := range []string{"2025/3/7", "2025-03-07", "junk"} {
		once := NormalizeDateISO(in)
		assert.Equal(t, once, NormalizeDateISO(once))
	}
}

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"13:05", "13:05:00"},
		{"13:05:59", "13:05:59"},
		{"9時5分", "09:05:00"},
		{"1305", "13:05:00"},
		{"130559", "13:05:59"},
		{"25:00", ""},
		{"13:75", ""},
		{"5", ""},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTime(tc.in))
		})
	}
}
