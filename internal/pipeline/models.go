package pipeline

// Mode distinguishes the two pipeline entry points: structured transactions
// supplied by the caller versus a binary bank statement parsed by the model.
type Mode string

const (
	ModeText     Mode = "text"
	ModeDocument Mode = "document"
)

// Transaction is one caller-supplied transaction. The pipeline never mutates
// it; amounts are signed (money in positive, money out negative).
type Transaction struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
}

// CategorizedTransaction is a Transaction plus the label assigned by the
// model. After repair the label is always a taxonomy member.
type CategorizedTransaction struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
	Category    string  `json:"category"`
}

// CategorizationResult is the only object returned to the caller on success.
// It is constructed fresh per request and never persisted.
type CategorizationResult struct {
	Categories []CategorizedTransaction `json:"categories"`
	Insights   []string                 `json:"insights"`
}
