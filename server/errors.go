package server

import "errors"

var (
	// ErrSearcherRequired is returned when a Server is built without a searcher.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrBatchListerRequired is returned when a Server is built without a batch lister.
	ErrBatchListerRequired = errors.New("batch lister required")
)

// Error messages returned to clients.
const (
	msgInvalidLength  = "Invalid length parameters. Must be integers or 'Infinity'."
	msgNoTerm         = "No search term provided"
	msgInvalidSort    = "Invalid sort parameters. sort_by must be one of ['date', 'length'] and sort_order must be one of ['asc', 'desc']"
	msgInvalidDate    = "Invalid filter_date. Expected a date such as 2024-01-31 or 31/01/2024."
	msgNotFound       = "Endpoint not found"
	msgNotAllowed     = "Method not allowed"
	msgInternalServer = "Internal server error"
)
