package navigator

import "errors"

// Done is returned by Paginator.Next when the traversal has no more records.
// It is not an error condition.
var Done = errors.New("no more records") //nolint:revive,staticcheck // iterator sentinel, in the style of iterator.Done

var (
	// ErrInvalidSortBy is returned for an author sort order other than
	// SortByCitedBy or SortByYear.
	ErrInvalidSortBy = errors.New("sortby must be \"citedby\" or \"year\"")

	// ErrNotFillable is returned when a publication lacks the identifier
	// needed to fetch its detail page.
	ErrNotFillable = errors.New("publication cannot be filled")

	// ErrNoCitations is returned by CitedBy for a publication without a
	// cited-by link.
	ErrNoCitations = errors.New("publication has no citations")

	// ErrInvalidPath is returned when a listing path cannot be resolved
	// against the base URL.
	ErrInvalidPath = errors.New("invalid listing path")
)
