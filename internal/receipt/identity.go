package receipt

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timeNow is swapped out by tests that exercise the current-date fallbacks.
var timeNow = time.Now

var idPeriodRe = regexp.MustCompile(`^(\d{4})(\d{2})\d{2}_`)

// BuildID derives the stable record identifier "YYYYMMDD_HHMMSS_<merchant>".
// The format is a persisted contract: filenames, ledger rows and the
// date-fallback parse in StoragePeriod all depend on it, and it sorts
// lexicographically by capture time.
//
// Date resolution: normalized ISO date, then a best-effort parse of the raw
// date string, then the source file's mtime, then the current date. Time
// resolution: normalized time, then hand-assembled from the raw string's
// colon-separated parts, then "000000". The merchant segment replaces every
// character matching invalidChars with an underscore and defaults to
// "UNKNOWN" when blank.
func BuildID(result *Result, invalidChars *regexp.Regexp) string {
	summary := result.Summary

	d, ok := parseLooseDate(summary.DateISO)
	if !ok {
		d, ok = parseLooseDate(summary.Date)
	}
	if !ok {
		if fi, err := os.Stat(result.SourceFile); err == nil {
			d, ok = fi.ModTime(), true
		}
	}
	if !ok {
		d = timeNow()
	}

	hhmmss := "000000"
	if t := strings.TrimSpace(summary.TimeNorm); t != "" {
		hhmmss = strings.ReplaceAll(t, ":", "")
	} else if raw := strings.TrimSpace(summary.Time); raw != "" {
		if assembled := assembleClock(raw); assembled != "" {
			hhmmss = assembled
		}
	}

	merchant := strings.TrimSpace(summary.MerchantName)
	if merchant == "" {
		merchant = "UNKNOWN"
	}
	merchant = invalidChars.ReplaceAllString(merchant, "_")

	return fmt.Sprintf("%s_%s_%s", d.Format("20060102"), hhmmss, merchant)
}

// assembleClock builds HHMMSS from a colon-separated raw time, seconds
// defaulting to "00". Returns "" when there are fewer than two parts.
func assembleClock(raw string) string {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return ""
	}
	hh := zeroPad(parts[0])
	mm := zeroPad(parts[1])
	ss := "00"
	if len(parts) >= 3 {
		ss = zeroPad(parts[2])
	}
	return hh + mm + ss
}

func zeroPad(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// StoragePeriod resolves the (year, month) bucket a receipt's rows and
// snapshot belong to: the normalized date first, then the identifier's
// leading YYYYMMDD digits, then the current month.
func StoragePeriod(result *Result, id string) (int, int) {
	if d, ok := parseLooseDate(result.Summary.DateISO); ok {
		return d.Year(), int(d.Month())
	}

	if m := idPeriodRe.FindStringSubmatch(id); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if year > 0 && month >= 1 && month <= 12 {
			return year, month
		}
	}

	now := timeNow()
	return now.Year(), int(now.Month())
}
