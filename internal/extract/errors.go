package extract

import "fmt"

// ExtractionError reports a failed text extraction. Page is 1-based and
// zero when the failure is not tied to a single page (open, validation).
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract: page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("extract: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RasterizationError reports a failed page render. Same page convention as
// ExtractionError.
type RasterizationError struct {
	Page int
	Err  error
}

func (e *RasterizationError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("rasterize: page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("rasterize: %v", e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }
