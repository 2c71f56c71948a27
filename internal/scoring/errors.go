package scoring

import "fmt"

// InsufficientDataError reports a listing that cannot be scored because
// a field required for the price-per-area computation is missing. The
// caller decides whether to skip or abort the record.
type InsufficientDataError struct {
	PropertyID string
	Field      string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: missing %s", e.PropertyID, e.Field)
}

// InvalidConfigError reports a scoring configuration that fails
// validation. It is surfaced at Scorer construction, before any
// scoring occurs.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid scoring config: %s: %s", e.Field, e.Reason)
}
