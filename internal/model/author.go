package model

import "slices"

// Author sections that can be filled from the profile page.
const (
	SectionBasics       = "basics"
	SectionIndices      = "indices"
	SectionCounts       = "counts"
	SectionCoAuthors    = "coauthors"
	SectionPublications = "publications"
)

// AllSections lists every author section in fill order.
var AllSections = []string{SectionBasics, SectionIndices, SectionCounts, SectionCoAuthors, SectionPublications}

// Author is a Scholar author, either from a search row or a profile page.
// Fields that the source page does not carry are left at their zero value;
// Filled lists the profile sections that have been fetched.
type Author struct {
	ScholarID    string `json:"scholar_id"`
	Name         string `json:"name"`
	Affiliation  string `json:"affiliation,omitempty"`
	Organization string `json:"organization,omitempty"`
	EmailDomain  string `json:"email_domain,omitempty"`
	Homepage     string `json:"homepage,omitempty"`
	PictureURL   string `json:"url_picture,omitempty"`

	Interests []string `json:"interests,omitempty"`

	CitedBy    int `json:"citedby"`
	CitedBy5y  int `json:"citedby5y,omitempty"`
	HIndex     int `json:"hindex,omitempty"`
	HIndex5y   int `json:"hindex5y,omitempty"`
	I10Index   int `json:"i10index,omitempty"`
	I10Index5y int `json:"i10index5y,omitempty"`

	// CitesPerYear maps a year to the number of citations received that year.
	CitesPerYear map[int]int `json:"cites_per_year,omitempty"`

	CoAuthors    []Author      `json:"coauthors,omitempty"`
	Publications []Publication `json:"publications,omitempty"`

	Filled []string `json:"filled,omitempty"`
	Source Source   `json:"source"`
}

// HasSection reports whether the named section has been filled.
func (a *Author) HasSection(section string) bool {
	return slices.Contains(a.Filled, section)
}
