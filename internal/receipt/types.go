package receipt

// Summary holds the receipt-level fields extracted from one OCR result.
// The raw fields keep whatever the OCR service produced; the normalized
// fields (DateISO, TimeNorm, TotalYen, TaxYen) are derived from them and
// are the only values used for storage and aggregation.
type Summary struct {
	MerchantName    string `json:"merchant_name"`
	MerchantAddress string `json:"merchant_address"`
	MerchantPhone   string `json:"merchant_phone"`

	Date  string   `json:"-"` // raw date string from OCR
	Time  string   `json:"-"` // raw time string from OCR
	Total *float64 `json:"-"`
	Tax   *float64 `json:"-"`

	DateISO  string `json:"date"` // "YYYY-MM-DD" or ""
	TimeNorm string `json:"time"` // "HH:MM:SS" or ""
	TotalYen *int   `json:"total"`
	TaxYen   *int   `json:"tax"`

	HasItems bool `json:"-"`
}

// Item is one purchased line item. Prices come in as loose floats from the
// OCR result and are normalized to integer yen. Tag stays untagged (zero
// value) until the reconciler has run.
type Item struct {
	Name     string   `json:"name"`
	RawTotal *float64 `json:"-"`
	Quantity *float64 `json:"quantity"`
	RawUnit  *float64 `json:"-"`

	TotalYen *int `json:"total_price"`
	UnitYen  *int `json:"unit_price"`

	Tag       Category `json:"tag"`
	TagReason string   `json:"tag_reason"`
}

// Result is the parsed outcome for a single receipt. It is built once by
// Normalize, mutated in place only by Reconcile, and treated as immutable
// afterwards. Raw keeps the untouched OCR payload for audit; nothing
// downstream re-parses it.
type Result struct {
	SourceFile string         `json:"source_file"`
	Summary    Summary        `json:"summary"`
	Items      []*Item        `json:"items"`
	Raw        map[string]any `json:"-"`
}

// ProcessResult is the success/failure union returned for every receipt the
// pipeline touches. Exactly one branch is meaningful: Result when OK,
// ErrReason otherwise.
type ProcessResult struct {
	OK        bool
	Result    *Result
	ErrReason string
}

// Success wraps a parsed receipt into a successful ProcessResult.
func Success(r *Result) ProcessResult {
	return ProcessResult{OK: true, Result: r}
}

// Failed builds a failure ProcessResult carrying the reason.
func Failed(reason string) ProcessResult {
	return ProcessResult{OK: false, ErrReason: reason}
}
