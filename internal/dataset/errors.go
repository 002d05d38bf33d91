package dataset

import "fmt"

// InputTypeError reports that the supplied object is not a valid table.
// Profiling aborts before any computation when it is returned.
type InputTypeError struct {
	Reason string
	// Column is the offending column index, or -1 when not column specific.
	Column int
}

func (e *InputTypeError) Error() string {
	if e == nil {
		return "invalid dataset"
	}
	if e.Column >= 0 {
		return fmt.Sprintf("invalid dataset: column %d: %s", e.Column+1, e.Reason)
	}
	return fmt.Sprintf("invalid dataset: %s", e.Reason)
}
