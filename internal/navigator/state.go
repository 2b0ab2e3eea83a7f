package navigator

// State is the position of a Paginator in its traversal.
type State int

const (
	// StateStart means no page has been requested yet.
	StateStart State = iota

	// StateFetching means a page request is in progress.
	StateFetching

	// StateExtracting means rows of the current page are being handed out.
	StateExtracting

	// StateHasNext means the current page is exhausted and a next page was found.
	StateHasNext

	// StateDone is terminal: the last page was exhausted.
	StateDone

	// StateFailed is terminal: a fetch or page error ended the traversal.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateHasNext:
		return "has-next"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further work will happen in this state.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
