package pipeline

import "time"

const (
	// DefaultModelName is the default Gemini model used for categorization.
	DefaultModelName = "gemini-2.5-flash"

	// textMaxOutputTokens bounds the model output for a categorization of
	// caller-supplied transactions.
	textMaxOutputTokens = 4096

	// documentMaxOutputTokens bounds the model output when parsing a full
	// statement. Statements produce far more output than a short
	// transaction list, so the budget is larger.
	documentMaxOutputTokens = 16384

	// pdfMIMEType is the MIME type attached to inline statement payloads.
	pdfMIMEType = "application/pdf"

	// invokeTimeout is the upper bound on a single provider call. The
	// provider imposes no bound of its own, so one is set here to avoid
	// unbounded request hang.
	invokeTimeout = 120 * time.Second
)
