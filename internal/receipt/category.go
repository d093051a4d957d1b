package receipt

import "sort"

// Category is one of the 14 fixed spending classifications. The zero value
// means "not yet tagged" and is never persisted; anything the tagger cannot
// classify collapses to CategoryUnknown.
type Category string

const (
	CategoryFood             Category = "food"
	CategoryEatingOut        Category = "eating_out"
	CategoryDailyNecessities Category = "daily_necessities"
	CategoryMedical          Category = "medical"
	CategoryTransportation   Category = "transportation"
	CategoryEntertainment    Category = "entertainment"
	CategoryClothing         Category = "clothing"
	CategoryHousing          Category = "housing"
	CategoryUtilities        Category = "utilities"
	CategoryCommunication    Category = "communication"
	CategoryEducation        Category = "education"
	CategoryWork             Category = "work"
	CategoryOther            Category = "other"
	CategoryUnknown          Category = "unknown"
)

// aiLabelToCategory maps the labels the tagging model is instructed to emit
// onto the closed category set. Unrecognized labels fall back to unknown.
var aiLabelToCategory = map[string]Category{
	"Food":              CategoryFood,
	"Eating Out":        CategoryEatingOut,
	"Daily Necessities": CategoryDailyNecessities,
	"Medical":           CategoryMedical,
	"Transportation":    CategoryTransportation,
	"Entertainment":     CategoryEntertainment,
	"Clothing":          CategoryClothing,
	"Housing":           CategoryHousing,
	"Utilities":         CategoryUtilities,
	"Communication":     CategoryCommunication,
	"Education":         CategoryEducation,
	"Work":              CategoryWork,
	"Other":             CategoryOther,
	"Unknown":           CategoryUnknown,
}

var categoryDisplay = map[Category]string{
	CategoryFood:             "food",
	CategoryEatingOut:        "eating out",
	CategoryDailyNecessities: "daily necessities",
	CategoryMedical:          "medical",
	CategoryTransportation:   "transportation",
	CategoryEntertainment:    "entertainment",
	CategoryClothing:         "clothing",
	CategoryHousing:          "housing",
	CategoryUtilities:        "utilities",
	CategoryCommunication:    "communication",
	CategoryEducation:        "education",
	CategoryWork:             "work",
	CategoryOther:            "other",
	CategoryUnknown:          "unknown",
}

// CategoryFromAILabel converts a label from the tagging response into a
// Category, collapsing anything unrecognized to unknown.
func CategoryFromAILabel(label string) (Category, bool) {
	c, ok := aiLabelToCategory[label]
	if !ok {
		return CategoryUnknown, false
	}
	return c, true
}

// ParseCategory maps a stored category string back onto the closed set.
// Values persisted by any version of this program are members of the set,
// but ledger files are spreadsheet-editable, so stray values collapse to
// unknown.
func ParseCategory(s string) Category {
	if _, ok := categoryDisplay[Category(s)]; ok {
		return Category(s)
	}
	return CategoryUnknown
}

// Display returns the human/narrative form of the category.
func (c Category) Display() string {
	if s, ok := categoryDisplay[c]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether c is a member of the closed category set. The
// untagged zero value is not valid.
func (c Category) Valid() bool {
	_, ok := categoryDisplay[c]
	return ok
}

// Categories returns the closed set in sorted order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryDisplay))
	for c := range categoryDisplay {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
