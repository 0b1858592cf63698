package docx

import (
	"errors"
	"fmt"
)

// ErrMalformed indicates the document package could not be read: the
// archive is unreadable or a required part is missing.
var ErrMalformed = errors.New("malformed document")

// ErrUnsupported indicates the file is a legacy binary Word document
// (.doc) that this parser does not handle. Callers should report it as
// a non-retryable failure rather than attempting recovery.
var ErrUnsupported = errors.New("unsupported legacy document format")

// FormulaError reports an equation construct outside the transcoder's
// token-mapping table. The whole document conversion fails with this
// error; callers may retry with Options.FormulaPlaceholders set to
// degrade the formula to its literal text.
type FormulaError struct {
	Construct string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("cannot transcode formula construct %q to LaTeX", e.Construct)
}
