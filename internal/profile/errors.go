package profile

import (
	"errors"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// InputTypeError reports a dataset that cannot be profiled at all. The
// pipeline returns it before any computation.
type InputTypeError = dataset.InputTypeError

// ErrUndefinedAssociation marks a contingency table on which the corrected
// Cramér's V has a zero or negative denominator.
var ErrUndefinedAssociation = errors.New("association undefined for this table")
