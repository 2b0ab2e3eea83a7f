// Package report renders query results.
//
// A Result bundles the records returned by one command with the query that
// produced them. Writers render it as:
//   - JSONWriter: records as JSON, for other tools
//   - MarkdownWriter: tables, for sharing
//   - SimpleWriter: plain text, for the terminal
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
