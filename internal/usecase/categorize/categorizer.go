// Package categorize assigns a spending category to a transaction description
// by ordered keyword matching.
package categorize

import "strings"

// DefaultCategory is returned when no keyword group matches.
const DefaultCategory = "Other"

// group pairs a category with its trigger keywords. Order matters: the first
// group with a matching keyword wins, so "gas bill" must be tested under
// Bills & Utilities only after Transportation's "gas" has had its chance.
type group struct {
	category string
	keywords []string
}

var groups = []group{
	{"Food & Dining", []string{
		"restaurant", "cafe", "coffee", "starbucks", "mcdonald", "pizza", "burger",
		"food", "dining", "lunch", "dinner", "breakfast", "grocery",
	}},
	{"Transportation", []string{
		"gas", "fuel", "uber", "lyft", "taxi", "bus", "train", "metro",
		"parking", "toll", "car", "vehicle",
	}},
	{"Entertainment", []string{
		"movie", "cinema", "netflix", "spotify", "game", "concert", "theater",
		"entertainment", "music", "streaming",
	}},
	{"Shopping", []string{
		"amazon", "walmart", "target", "store", "shop", "mall",
		"clothing", "clothes", "shoes", "electronics",
	}},
	{"Healthcare", []string{
		"doctor", "hospital", "pharmacy", "medical", "health", "dentist",
		"clinic", "medicine", "prescription",
	}},
	{"Bills & Utilities", []string{
		"electric", "electricity", "water", "gas bill", "internet", "phone",
		"cable", "utility", "bill", "payment",
	}},
	{"Housing", []string{
		"rent", "mortgage", "housing", "apartment", "home", "property",
		"maintenance", "repair",
	}},
}

// Suggest returns the category whose keyword group first matches the
// description, case-insensitively, or "Other" when nothing matches.
func Suggest(description string) string {
	lower := strings.ToLower(description)
	if strings.TrimSpace(lower) == "" {
		return DefaultCategory
	}
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.category
			}
		}
	}
	return DefaultCategory
}

// Categories lists every suggestable category in match-priority order,
// excluding the default.
func Categories() []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.category
	}
	return out
}
