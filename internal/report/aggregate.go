// Package report aggregates the monthly ledgers by category and turns two
// adjacent months into a small set of comparison narratives, feeding both
// the console report and the AI-written monthly summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kadoya0703/kakeibo/internal/receipt"
	"github.com/kadoya0703/kakeibo/internal/store"
)

// Totals maps category to the summed integer yen spend of one period.
// Derived entirely from ledger rows, never hand-constructed.
type Totals map[receipt.Category]int

// Aggregate sums total_price_yen by item_tag for one period's ledger file.
// A missing file yields an empty Totals; rows with a malformed amount or a
// blank tag are skipped, never fatal.
func Aggregate(st *store.Store, p store.Period) (Totals, error) {
	f, err := os.Open(st.LedgerPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return Totals{}, nil
		}
		return nil, fmt.Errorf("open ledger for %s: %w", p, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate hand-edited rows

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return Totals{}, nil
		}
		return nil, fmt.Errorf("read ledger header for %s: %w", p, err)
	}

	tagCol, amountCol := -1, -1
	for i, name := range header {
		switch strings.TrimPrefix(name, "\ufeff") {
		case "item_tag":
			tagCol = i
		case "total_price_yen":
			amountCol = i
		}
	}
	if tagCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("ledger for %s is missing item_tag/total_price_yen columns", p)
	}

	totals := Totals{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Damaged row; keep aggregating the rest.
			continue
		}
		if tagCol >= len(rec) || amountCol >= len(rec) {
			continue
		}

		tag := strings.TrimSpace(rec[tagCol])
		amountRaw := strings.TrimSpace(rec[amountCol])
		if tag == "" || amountRaw == "" {
			continue
		}

		amount, err := strconv.Atoi(amountRaw)
		if err != nil {
			continue
		}

		totals[receipt.ParseCategory(tag)] += amount
	}

	return totals, nil
}
