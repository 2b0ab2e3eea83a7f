package report

import (
	"time"

	"github.com/nao1215/scholarnav/internal/model"
)

// Kind names the record type a Result holds.
type Kind string

// Result kinds.
const (
	KindAuthors       Kind = "authors"
	KindAuthor        Kind = "author"
	KindPublications  Kind = "publications"
	KindPublication   Kind = "publication"
	KindOrganizations Kind = "organizations"
)

// Result is the output of one query.
type Result struct {
	Kind  Kind   `json:"kind"`
	Query string `json:"query"`

	// ProxyMode is the exit strategy the records were fetched through.
	ProxyMode   string    `json:"proxy_mode,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	Authors       []model.Author       `json:"authors,omitempty"`
	Publications  []model.Publication  `json:"publications,omitempty"`
	Organizations []model.Organization `json:"organizations,omitempty"`

	// Partial is set when the traversal stopped early. Error holds the
	// reason; the records collected before it are still included.
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewResult returns an empty Result of kind for query.
func NewResult(kind Kind, query string) *Result {
	return &Result{
		Kind:        kind,
		Query:       query,
		GeneratedAt: time.Now().UTC(),
	}
}

// Fail marks the result as partial because of err.
func (r *Result) Fail(err error) {
	if err == nil {
		return
	}
	r.Partial = true
	r.Error = err.Error()
}

// Count returns the number of records of the result's kind.
func (r *Result) Count() int {
	switch r.Kind {
	case KindAuthors, KindAuthor:
		return len(r.Authors)
	case KindPublications, KindPublication:
		return len(r.Publications)
	case KindOrganizations:
		return len(r.Organizations)
	default:
		return 0
	}
}
