package model

// Publication is a Scholar publication record.
// A search snippet carries the summary fields; filling it from the detail
// page adds the bibliographic fields and sets Filled.
type Publication struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`

	// AuthorIDs holds the Scholar IDs linked from the author line, in order.
	// Authors without a profile are skipped.
	AuthorIDs []string `json:"author_id,omitempty"`

	Venue    string `json:"venue,omitempty"`
	Year     int    `json:"pub_year,omitempty"`
	Abstract string `json:"abstract,omitempty"`

	Journal    string `json:"journal,omitempty"`
	Conference string `json:"conference,omitempty"`
	Volume     string `json:"volume,omitempty"`
	Number     string `json:"number,omitempty"`
	Pages      string `json:"pages,omitempty"`
	Publisher  string `json:"publisher,omitempty"`

	NumCitations int    `json:"num_citations"`
	CitedByURL   string `json:"citedby_url,omitempty"`
	VersionsURL  string `json:"versions_url,omitempty"`
	RelatedURL   string `json:"url_related_articles,omitempty"`
	PubURL       string `json:"pub_url,omitempty"`
	EprintURL    string `json:"eprint_url,omitempty"`

	// ClusterID is Scholar's cluster identifier (data-cid on search rows).
	ClusterID string `json:"cluster_id,omitempty"`

	// Rank is the 1-based position on a search results page.
	Rank int `json:"gsrank,omitempty"`

	// CitesIDs are the cluster IDs behind the "cited by" link.
	CitesIDs []string `json:"cites_id,omitempty"`

	// AuthorPubID identifies the entry on an author's profile ("user:pubid").
	AuthorPubID string `json:"author_pub_id,omitempty"`

	Source Source `json:"source"`
	Filled bool   `json:"filled"`
}
