// Package document turns fetched result pages into queryable documents.
//
// Normalize is the single entry point: it cleans non-breaking spaces, parses
// the markup leniently, and classifies pages that report an empty result set.
// The returned Document exposes the page-level markers that pagination needs
// (the publication library token and the next-page control).
package document
