package receipt

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kadoya0703/kakeibo/internal/logger"
)

// ErrNotReceipt marks an OCR result that yielded neither a total nor any
// line items. Callers treat it as a skip, not a system fault.
var ErrNotReceipt = errors.New("not a receipt")

// Text patterns for recovering a total when the OCR service produced no
// Total field. Tried in order; the first match wins.
var totalTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`金額[:：]?\s*([0-9,]+)\s*円`),
	regexp.MustCompile(`合計[:：]?\s*¥?\s*([0-9,]+)`),
	regexp.MustCompile(`¥\s*([0-9,]+)`),
}

var (
	dateDigitsRe = regexp.MustCompile(`(\d{4})\D+(\d{1,2})\D+(\d{1,2})`)
	timeGroupsRe = regexp.MustCompile(`(\d{1,2})\D+(\d{1,2})(?:\D+(\d{1,2}))?`)
	nonDigitRe   = regexp.MustCompile(`\D+`)
)

// Normalize converts one raw OCR extraction tree into a Result. Malformed
// fields degrade to absent/empty values; the only rejection is
// ErrNotReceipt, raised when neither a total nor any line item could be
// recovered.
func Normalize(ctx context.Context, raw map[string]any, sourceFile string) (*Result, error) {
	log := logger.FromContext(ctx)

	fields := documentFields(raw)

	summary := Summary{
		MerchantName:    pickString(fields, "MerchantName", "VendorName", "StoreName"),
		MerchantAddress: pickString(fields, "MerchantAddress", "Address", "VendorAddress", "StoreAddress"),
		MerchantPhone:   pickString(fields, "MerchantPhoneNumber", "PhoneNumber", "Tel", "Telephone"),
		Date:            pickString(fields, "TransactionDate", "Date"),
		Time:            pickString(fields, "TransactionTime", "Time"),
		Total:           pickNumber(fields, "Total", "Amount", "TotalAmount"),
		Tax:             pickNumber(fields, "TotalTax", "Tax", "TaxAmount"),
	}

	// Some OCR outputs prefix the phone with a stray label colon.
	summary.MerchantPhone = strings.TrimSpace(strings.TrimLeft(summary.MerchantPhone, ":"))

	if summary.Total == nil {
		text, _ := raw["content"].(string)
		summary.Total = totalFromText(text)
		if summary.Total != nil {
			log.Info().Float64("total", *summary.Total).Msg("total recovered from transcript text")
		}
	}

	summary.DateISO = NormalizeDateISO(summary.Date)
	summary.TimeNorm = NormalizeTime(summary.Time)
	summary.TotalYen = toYen(summary.Total)
	summary.TaxYen = toYen(summary.Tax)

	log.Debug().
		Str("merchant", summary.MerchantName).
		Str("date", summary.Date).
		Str("date_iso", summary.DateISO).
		Str("time_norm", summary.TimeNorm).
		Msg("summary extracted")

	items := parseItems(fields)

	if summary.TotalYen == nil && len(items) == 0 {
		log.Info().
			Str("merchant", summary.MerchantName).
			Str("source_file", sourceFile).
			Msg("not a receipt: no total, no items")
		return nil, ErrNotReceipt
	}

	// A receipt with a total but no recoverable detail still gets exactly
	// one pseudo-item so every accepted receipt has at least one row.
	if len(items) == 0 && summary.TotalYen != nil {
		log.Info().Msg("no line items recovered, creating pseudo item")
		one := 1.0
		pseudo := &Item{
			Name:      orDefault(summary.MerchantName, "UNKNOWN"),
			RawTotal:  summary.Total,
			Quantity:  &one,
			RawUnit:   summary.Total,
			TotalYen:  summary.TotalYen,
			UnitYen:   summary.TotalYen,
			Tag:       CategoryUnknown,
			TagReason: "",
		}
		items = append(items, pseudo)
	}

	summary.HasItems = len(items) > 0

	return &Result{
		SourceFile: sourceFile,
		Summary:    summary,
		Items:      items,
		Raw:        raw,
	}, nil
}

// documentFields digs out documents[0].fields; any missing level yields an
// empty map so extraction simply finds nothing.
func documentFields(raw map[string]any) map[string]any {
	docs, _ := raw["documents"].([]any)
	if len(docs) == 0 {
		return map[string]any{}
	}
	doc0, _ := docs[0].(map[string]any)
	fields, _ := doc0["fields"].(map[string]any)
	if fields == nil {
		return map[string]any{}
	}
	return fields
}

func parseItems(fields map[string]any) []*Item {
	var node any
	for _, key := range []string{"Items", "LineItems", "PurchasedItems"} {
		if v, ok := fields[key]; ok {
			node = v
			break
		}
	}
	if node == nil {
		return nil
	}

	var items []*Item
	for _, elem := range valueArray(node) {
		obj := valueObject(elem)
		if obj == nil {
			continue
		}

		item := &Item{
			Name:     pickString(obj, "Description", "Name", "ProductName", "ItemName"),
			RawTotal: pickNumber(obj, "TotalPrice", "Amount", "Price", "LineTotal"),
			Quantity: pickNumber(obj, "Quantity", "Qty"),
			RawUnit:  pickNumber(obj, "UnitPrice", "UnitCost", "Price"),
		}
		item.TotalYen = toYen(item.RawTotal)
		item.UnitYen = toYen(item.RawUnit)

		// Elements with no name and no price are OCR noise.
		if strings.TrimSpace(item.Name) == "" && item.RawTotal == nil && item.RawUnit == nil {
			continue
		}

		items = append(items, item)
	}
	return items
}

// NormalizeDateISO converts a loose date string to "YYYY-MM-DD", or ""
// when no date can be recovered.
func NormalizeDateISO(text string) string {
	d, ok := parseLooseDate(text)
	if !ok {
		return ""
	}
	return d.Format("2006-01-02")
}

// parseLooseDate tries a strict ISO parse, then a YYYY<sep>MM<sep>DD digit
// group search.
func parseLooseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}

	m := dateDigitsRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	yyyy, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	dd, _ := strconv.Atoi(m[3])

	d := time.Date(yyyy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (2026-13-40); reject anything that moved.
	if d.Year() != yyyy || int(d.Month()) != mm || d.Day() != dd {
		return time.Time{}, false
	}
	return d, true
}

// NormalizeTime converts a loose time string to "HH:MM:SS", or "" when no
// time can be recovered. Accepts separated H:MM[:SS] groups, then bare
// HHMM / HHMMSS digit runs.
func NormalizeTime(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}

	if m := timeGroupsRe.FindStringSubmatch(s); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		ss := 0
		if m[3] != "" {
			ss, _ = strconv.Atoi(m[3])
		}
		if clock, ok := formatClock(hh, mm, ss); ok {
			return clock
		}
	}

	digits := nonDigitRe.ReplaceAllString(s, "")
	if len(digits) == 4 || len(digits) == 6 {
		hh, _ := strconv.Atoi(digits[0:2])
		mm, _ := strconv.Atoi(digits[2:4])
		ss := 0
		if len(digits) == 6 {
			ss, _ = strconv.Atoi(digits[4:6])
		}
		if clock, ok := formatClock(hh, mm, ss); ok {
			return clock
		}
	}

	return ""
}

func formatClock(hh, mm, ss int) (string, bool) {
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return "", false
	}
	return time.Date(2000, 1, 1, hh, mm, ss, 0, time.UTC).Format("15:04:05"), true
}

// toYen rounds a raw currency amount to the nearest integer yen. Absent
// input stays absent.
func toYen(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func totalFromText(text string) *float64 {
	if text == "" {
		return nil
	}
	for _, p := range totalTextPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return &f
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
