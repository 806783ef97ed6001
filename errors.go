package bunquery

import "errors"

// Errors returned by the query engine. They are fatal and raised before any
// record is examined.
var (
	ErrInvalidInput = errors.New("input data must be a sequence")
	ErrInvalidQuery = errors.New("query must be a keyed structure")
)
