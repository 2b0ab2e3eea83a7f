package model

import "fmt"

// Source identifies the page layout a record was extracted from.
// The same record type is laid out differently on each page, and the
// extractors as well as the fill step branch on this tag.
type Source int

const (
	// SourceUnknown is the zero value.
	SourceUnknown Source = iota

	// SourceSearchSnippet is a publication row on a search results page (div.gs_or).
	SourceSearchSnippet

	// SourceAuthorPublicationEntry is a publication row on an author profile (tr.gsc_a_tr).
	SourceAuthorPublicationEntry

	// SourceCitationListing is a publication on a "cited by" listing page.
	SourceCitationListing

	// SourceAuthorSearchSnippet is an author row on an author search page (div.gsc_1usr).
	SourceAuthorSearchSnippet

	// SourceAuthorProfile is an author built from the full profile page.
	SourceAuthorProfile

	// SourceCoAuthorList is an author taken from a profile's co-author sidebar.
	SourceCoAuthorList
)

var sourceNames = map[Source]string{
	SourceUnknown:                "unknown",
	SourceSearchSnippet:          "search-snippet",
	SourceAuthorPublicationEntry: "author-publication-entry",
	SourceCitationListing:        "citation-listing",
	SourceAuthorSearchSnippet:    "author-search-snippet",
	SourceAuthorProfile:          "author-profile",
	SourceCoAuthorList:           "co-author-list",
}

// String returns the kebab-case name of the source.
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the source by name so JSON reports stay readable.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a source name produced by MarshalText.
func (s *Source) UnmarshalText(text []byte) error {
	for k, v := range sourceNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown record source %q", text)
}
