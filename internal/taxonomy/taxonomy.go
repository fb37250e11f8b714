// Package taxonomy defines the fixed set of category labels the service is
// allowed to return. The set is a process-wide constant: every categorized
// transaction leaving the pipeline carries exactly one of these labels.
package taxonomy

// Fallback is the universal catch-all label. Any category the model invents
// outside the taxonomy is coerced to it during repair.
const Fallback = "Other"

// Categories is the ordered list of the 17 permitted labels. The order is
// stable because it is embedded verbatim into model prompts.
var Categories = []string{
	"Groceries",
	"Dining & Takeout",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Health & Fitness",
	"Travel",
	"Education",
	"Personal Care",
	"Home & Rent",
	"Insurance",
	"Subscriptions",
	"Income",
	"Refunds",
	"Banking & Fees",
	"Other",
}

var members map[string]bool

func init() {
	members = make(map[string]bool, len(Categories))
	for _, c := range Categories {
		members[c] = true
	}
}

// Valid reports whether label is an exact, case-sensitive member of the
// taxonomy. Unlike lookups against a mutable category table, no normalization
// is applied: the prompt instructs the model to copy labels verbatim, and
// anything else is treated as invalid.
func Valid(label string) bool {
	return members[label]
}

// Normalize returns label unchanged when it is a taxonomy member and Fallback
// otherwise.
func Normalize(label string) string {
	if Valid(label) {
		return label
	}
	return Fallback
}
