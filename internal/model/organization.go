package model

// Organization is an institution known to Scholar.
type Organization struct {
	Name string `json:"Organization"`
	ID   string `json:"id"`

	// FromAuthor is set when the organization was inferred from the first
	// author of a listing because the listing had no institution rows.
	FromAuthor bool `json:"fromauthor,omitempty"`
}
