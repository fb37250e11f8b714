package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/spendlens/spendlens/internal/taxonomy"
)

// buildTaxonomyPrompt enumerates the permitted categories verbatim and
// constrains what the model is allowed to output. The taxonomy is a fixed
// constant, so the section is identical on every request.
func buildTaxonomyPrompt() string {
	var b strings.Builder
	b.WriteString("Use ONLY the following categories:\n\n")
	for _, c := range taxonomy.Categories {
		b.WriteString("- " + c + "\n")
	}
	b.WriteString("\nCATEGORY ASSIGNMENT RULES:\n")
	b.WriteString("1. Category must be EXACTLY one of the names shown above (case-sensitive, copied verbatim).\n")
	b.WriteString("2. Positive amounts are money IN: use \"Income\", or \"Refunds\" when the description indicates a refund or reversal.\n")
	b.WriteString("3. Negative amounts are money OUT: choose the category matching the merchant or purpose.\n")
	b.WriteString("4. Bank charges, overdraft fees and interest go under \"Banking & Fees\".\n")
	b.WriteString("5. If no category clearly matches, use \"Other\".\n")
	return b.String()
}

// buildSchemaPrompt states the exact output shape and the syntactic
// constraints the extractor depends on.
func buildSchemaPrompt() string {
	return "Output STRICT JSON only, as a single object with this exact shape:\n" +
		"{\n" +
		"  \"categories\": [ {\"description\": string, \"amount\": number, \"category\": string}, ... ],\n" +
		"  \"insights\": [ string, string, string ]\n" +
		"}\n\n" +
		"The \"insights\" array must contain 3 to 5 human-readable observations about spending\n" +
		"patterns, each citing concrete amounts or percentages.\n\n" +
		"Syntax rules:\n" +
		"- Double-quoted strings only, with special characters escaped.\n" +
		"- No trailing commas.\n" +
		"- No comments, no Markdown, no code fences, no prose outside the JSON object.\n" +
		"- Output must begin with \"{\" and end with \"}\".\n"
}

// buildTextPrompt constructs the instruction string for a caller-supplied
// transaction list. Pure function of its input: the same transactions always
// produce the same prompt.
func buildTextPrompt(txs []Transaction) string {
	payload, _ := json.Marshal(txs)

	var b strings.Builder
	b.WriteString("You are a personal-finance categorization engine.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign a category to EVERY transaction in the list below.\n")
	b.WriteString("- Echo each transaction's description and amount unchanged.\n\n")
	b.WriteString(buildTaxonomyPrompt())
	b.WriteString("\n")
	b.WriteString(buildSchemaPrompt())
	b.WriteString("\nTransactions:\n")
	b.Write(payload)
	b.WriteString("\n")
	return b.String()
}

// buildDocumentPrompt constructs the instruction string for statement
// parsing. The statement itself is attached as inline document data.
func buildDocumentPrompt() string {
	var b strings.Builder
	b.WriteString("You are a bank statement parser and personal-finance categorization engine.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract EVERY transaction line item from EVERY page of the attached statement.\n")
	b.WriteString("- For each line item, produce its date, description and amount.\n")
	b.WriteString("- If the statement has separate debit and credit (\"paid out\" / \"paid in\") columns,\n")
	b.WriteString("  convert them to a single signed amount: money IN positive, money OUT negative.\n")
	b.WriteString("- Assign a category to every extracted transaction.\n\n")
	b.WriteString(buildTaxonomyPrompt())
	b.WriteString("\n")
	b.WriteString(buildSchemaPrompt())
	return b.String()
}
