package report

import (
	"fmt"
	"sort"

	"github.com/kadoya0703/kakeibo/internal/receipt"
	"github.com/kadoya0703/kakeibo/internal/store"
)

// Fixed narrative formats. The summary prompt is built from these lines,
// so the wording is part of the prompt contract.
const (
	formatCurrentMonth = "In %04d-%02d, spending on %s was %d JPY."
	formatNew          = "%s did not exist in the previous month, but was %d JPY this month."
	formatDisappeared  = "%s existed in the previous month, but did not appear this month."
	formatIncrease     = "%s was %d JPY higher than the previous month."
	formatDecrease     = "%s was %d JPY lower than the previous month."
	formatNoChange     = "%s was the same as the previous month at %d JPY."
)

// CurrentMonthLines renders one line per category with positive spend,
// in stable category order.
func CurrentMonthLines(p store.Period, totals Totals) []string {
	var lines []string
	for _, cat := range sortedCategories(totals) {
		amount := totals[cat]
		if amount <= 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf(formatCurrentMonth, p.Year, p.Month, cat.Display(), amount))
	}
	return lines
}

// CompareLines classifies every category present in either month into
// exactly one of five cases: new, disappeared, increased, decreased,
// unchanged. Categories at zero in both months are skipped. Output order is
// the stable sorted category order.
func CompareLines(current, previous Totals) []string {
	union := map[receipt.Category]bool{}
	for cat := range current {
		union[cat] = true
	}
	for cat := range previous {
		union[cat] = true
	}

	cats := make([]receipt.Category, 0, len(union))
	for cat := range union {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var lines []string
	for _, cat := range cats {
		cur := current[cat]
		prev := previous[cat]
		name := cat.Display()

		switch {
		case cur == 0 && prev == 0:
			// untouched both months
		case prev == 0:
			lines = append(lines, fmt.Sprintf(formatNew, name, cur))
		case cur == 0:
			lines = append(lines, fmt.Sprintf(formatDisappeared, name))
		case cur > prev:
			lines = append(lines, fmt.Sprintf(formatIncrease, name, cur-prev))
		case cur < prev:
			lines = append(lines, fmt.Sprintf(formatDecrease, name, prev-cur))
		default:
			lines = append(lines, fmt.Sprintf(formatNoChange, name, cur))
		}
	}
	return lines
}

func sortedCategories(totals Totals) []receipt.Category {
	cats := make([]receipt.Category, 0, len(totals))
	for cat := range totals {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
