package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kadoya0703/kakeibo/internal/receipt"
)

// LedgerHeaders is the fixed 12-column schema of the monthly ledger. The
// order is a persisted contract shared with the aggregator and with any
// spreadsheet consumer; changing it is a breaking change.
var LedgerHeaders = []string{
	"receipt_id",
	"date",
	"time",
	"merchant_name",
	"item_name",
	"item_tag",
	"item_tag_reason",
	"total_price_yen",
	"unit_price_yen",
	"quantity",
	"source_file",
	"json_file",
}

// utf8BOM keeps common spreadsheet tooling from misreading the UTF-8 CSV.
const utf8BOM = "\ufeff"

// LedgerRow is one line item as persisted.
type LedgerRow struct {
	ReceiptID    string
	Date         string
	Time         string
	MerchantName string
	ItemName     string
	ItemTag      receipt.Category
	ItemReason   string
	TotalYen     *int
	UnitYen      *int
	Quantity     *float64
	SourceFile   string
	JSONFile     string
}

func (r LedgerRow) record() []string {
	return []string{
		r.ReceiptID,
		r.Date,
		r.Time,
		r.MerchantName,
		r.ItemName,
		string(r.ItemTag),
		r.ItemReason,
		formatInt(r.TotalYen),
		formatInt(r.UnitYen),
		formatFloat(r.Quantity),
		r.SourceFile,
		r.JSONFile,
	}
}

// BuildRows flattens a tagged receipt into one ledger row per item.
// An item that somehow reached storage untagged is persisted as unknown;
// the untagged state never leaves the process.
func BuildRows(result *receipt.Result, id, snapshotName string) []LedgerRow {
	rows := make([]LedgerRow, 0, len(result.Items))
	for _, item := range result.Items {
		tag := item.Tag
		if !tag.Valid() {
			tag = receipt.CategoryUnknown
		}
		rows = append(rows, LedgerRow{
			ReceiptID:    id,
			Date:         result.Summary.DateISO,
			Time:         result.Summary.TimeNorm,
			MerchantName: result.Summary.MerchantName,
			ItemName:     item.Name,
			ItemTag:      tag,
			ItemReason:   item.TagReason,
			TotalYen:     item.TotalYen,
			UnitYen:      item.UnitYen,
			Quantity:     item.Quantity,
			SourceFile:   result.SourceFile,
			JSONFile:     snapshotName,
		})
	}
	return rows
}

// AppendLedger appends rows to the period's monthly file, creating parent
// directories and writing the BOM + header exactly once, on first creation.
func (s *Store) AppendLedger(p Period, rows []LedgerRow) error {
	if len(rows) == 0 {
		return nil
	}

	path := s.LedgerPath(p)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	if isNew {
		if _, err := f.WriteString(utf8BOM); err != nil {
			return fmt.Errorf("write ledger BOM: %w", err)
		}
	}

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(LedgerHeaders); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row.record()); err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush ledger %s: %w", path, err)
	}

	return f.Sync()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
