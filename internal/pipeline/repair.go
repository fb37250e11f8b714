package pipeline

import (
	"github.com/spendlens/spendlens/internal/taxonomy"
)

// minInsights is the lower bound the output contract guarantees.
const minInsights = 3

// genericInsights is the canned set substituted when the model's insights are
// missing, malformed or too few. The whole set replaces whatever came back:
// mixing model-written insights with filler in one response reads worse than
// an all-generic set.
func genericInsights() []string {
	return []string{
		"Upload more transaction history to unlock deeper spending analysis.",
		"Track your top spending categories from month to month to spot trends early.",
		"Set a monthly savings goal and review recurring charges to work toward it.",
	}
}

// textFallbackInsights explains a text-mode request whose model output could
// not be parsed at all.
func textFallbackInsights() []string {
	return []string{
		"Automatic analysis was unavailable for this request, so every transaction was filed under Other.",
		"Review the categories manually, or resubmit the transactions to try again.",
		"Spending insights will appear once your transactions are categorized.",
	}
}

// documentFallbackInsights explains a statement whose model output could not
// be parsed; with no caller transactions to echo, the category list is empty.
func documentFallbackInsights() []string {
	return []string{
		"The statement could not be read, so no transactions were extracted.",
		"Try uploading a clearer copy of the statement or a different export format.",
		"Spending insights will appear once a statement is parsed successfully.",
	}
}

// fallbackResult synthesizes a schema-valid result for a request whose model
// output yielded no JSON at all. Text mode echoes every input transaction
// under the fallback label; document mode has nothing to echo. Never fails.
func fallbackResult(mode Mode, inputs []Transaction) *CategorizationResult {
	if mode == ModeDocument {
		return &CategorizationResult{
			Categories: []CategorizedTransaction{},
			Insights:   documentFallbackInsights(),
		}
	}

	categories := make([]CategorizedTransaction, 0, len(inputs))
	for _, tx := range inputs {
		categories = append(categories, CategorizedTransaction{
			Description: tx.Description,
			Amount:      tx.Amount,
			Date:        tx.Date,
			Category:    taxonomy.Fallback,
		})
	}
	return &CategorizationResult{
		Categories: categories,
		Insights:   textFallbackInsights(),
	}
}

// decodeResult maps the extracted JSON object onto a typed result. The model
// is untrusted: fields with the wrong type are dropped rather than failing
// the request. ok is false when the object carries no usable "categories"
// list, which callers treat the same as an extraction failure.
func decodeResult(parsed map[string]interface{}) (res *CategorizationResult, ok bool) {
	listAny, exists := parsed["categories"]
	if !exists {
		return nil, false
	}
	list, isList := listAny.([]interface{})
	if !isList {
		return nil, false
	}

	res = &CategorizationResult{Categories: make([]CategorizedTransaction, 0, len(list))}

	for _, item := range list {
		obj, isObj := item.(map[string]interface{})
		if !isObj {
			continue
		}
		tx := CategorizedTransaction{}
		if s, isStr := obj["description"].(string); isStr {
			tx.Description = s
		}
		if f, isNum := obj["amount"].(float64); isNum {
			tx.Amount = f
		}
		if s, isStr := obj["date"].(string); isStr {
			tx.Date = s
		}
		if s, isStr := obj["category"].(string); isStr {
			tx.Category = s
		}
		res.Categories = append(res.Categories, tx)
	}

	if insightsAny, exists := parsed["insights"]; exists {
		if insightsList, isList := insightsAny.([]interface{}); isList {
			for _, item := range insightsList {
				if s, isStr := item.(string); isStr {
					res.Insights = append(res.Insights, s)
				}
			}
		}
	}

	return res, true
}

// repairResult enforces the output contract on a decoded result:
//
//  1. every category label is an exact taxonomy member, anything else is
//     coerced to the fallback label;
//  2. the insights list has at least minInsights elements, otherwise it is
//     replaced wholesale with the generic set.
//
// Deterministic and idempotent: repairing an already-valid result changes
// nothing.
func repairResult(res *CategorizationResult) *CategorizationResult {
	if res.Categories == nil {
		res.Categories = []CategorizedTransaction{}
	}
	for i := range res.Categories {
		res.Categories[i].Category = taxonomy.Normalize(res.Categories[i].Category)
	}
	if len(res.Insights) < minInsights {
		res.Insights = genericInsights()
	}
	return res
}
