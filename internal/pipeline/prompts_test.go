package pipeline

import (
	"strings"
	"testing"

	"github.com/spendlens/spendlens/internal/taxonomy"
)

func TestBuildTextPrompt_Deterministic(t *testing.T) {
	txs := []Transaction{
		{Description: "Tesco", Amount: -12.50, Date: "2026-08-01"},
		{Description: "Salary", Amount: 2500},
	}
	if buildTextPrompt(txs) != buildTextPrompt(txs) {
		t.Error("same input produced different prompts")
	}
}

func TestBuildTextPrompt_Contents(t *testing.T) {
	txs := []Transaction{{Description: "Pret A Manger", Amount: -6.75}}
	prompt := buildTextPrompt(txs)

	for _, label := range taxonomy.Categories {
		if !strings.Contains(prompt, label) {
			t.Errorf("prompt missing taxonomy label %q", label)
		}
	}
	for _, want := range []string{
		"Pret A Manger",
		"case-sensitive",
		"No trailing commas",
		`begin with "{" and end with "}"`,
		"3 to 5",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildDocumentPrompt_Contents(t *testing.T) {
	prompt := buildDocumentPrompt()

	for _, want := range []string{
		"EVERY page",
		"single signed amount",
		"paid out",
		"insights",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("document prompt missing %q", want)
		}
	}
	if buildDocumentPrompt() != prompt {
		t.Error("document prompt is not deterministic")
	}
}
