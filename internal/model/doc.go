// Package model defines the records produced by scholarnav traversals:
// Author, Publication and Organization, plus the Source tag naming the page
// layout a record came from.
//
// The types carry JSON tags matching the field names used by Scholar-facing
// tooling, so reports can be consumed by existing scripts.
package model
