package extract

import (
	"errors"
	"fmt"
)

// ErrNoBibTeX is returned when a citation export carries no entry.
var ErrNoBibTeX = errors.New("no BibTeX entry found")

// UnknownSectionError reports an author section name that cannot be filled.
type UnknownSectionError struct {
	Section string
}

// Error implements error.
func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("unknown author section %q", e.Section)
}
