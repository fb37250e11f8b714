package pipeline

import "fmt"

// ValidationError reports bad caller input. It is raised before the provider
// is contacted and maps to a client-side failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProviderError reports that the outbound model call itself failed (network,
// auth, or a rejected document). It maps to a server-side failure carrying
// the provider's message.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("model provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ExtractionError reports that the model responded but no parseable JSON
// object could be located in its output. It never reaches the caller: the
// pipeline absorbs it into a fallback result.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract model output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract model output: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
