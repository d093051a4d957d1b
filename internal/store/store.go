// Package store is the filesystem boundary: the per-month CSV ledger, the
// per-receipt JSON snapshots, and the movement of source images between the
// input, processed and error directories. All writers are append-only and
// collision-safe; nothing here ever overwrites an existing record.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Store anchors the two output trees.
type Store struct {
	csvRoot  string
	jsonRoot string
}

// Period is a (year, month) ledger bucket.
type Period struct {
	Year  int
	Month int
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Previous returns the calendar month before p.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func New(csvRoot, jsonRoot string) *Store {
	return &Store{csvRoot: csvRoot, jsonRoot: jsonRoot}
}

// LedgerPath returns the monthly ledger file for a period:
// <csvRoot>/<YYYY>/<YYYYMM>_items.csv.
func (s *Store) LedgerPath(p Period) string {
	return filepath.Join(
		s.csvRoot,
		fmt.Sprintf("%04d", p.Year),
		fmt.Sprintf("%04d%02d_items.csv", p.Year, p.Month),
	)
}

var ledgerFileRe = regexp.MustCompile(`^(\d{4})(\d{2})_items\.csv$`)

// Periods scans the ledger tree and returns every (year, month) that has a
// monthly file, sorted ascending. A missing tree yields an empty slice.
func (s *Store) Periods() ([]Period, error) {
	entries, err := os.ReadDir(s.csvRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger root: %w", err)
	}

	seen := map[Period]bool{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}

		files, err := os.ReadDir(filepath.Join(s.csvRoot, e.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			m := ledgerFileRe.FindStringSubmatch(f.Name())
			if m == nil {
				continue
			}
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			seen[Period{Year: year, Month: month}] = true
		}
	}

	periods := make([]Period, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year < periods[j].Year
		}
		return periods[i].Month < periods[j].Month
	})
	return periods, nil
}
