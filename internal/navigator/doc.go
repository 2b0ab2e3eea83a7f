// Package navigator walks Scholar listings and turns them into records.
//
// # Traversals
//
// A Paginator is a pull-driven walk over a multi-page listing. Nothing is
// fetched until Next is called, and a page is requested only after every
// row of the previous one has been handed out:
//
//	start -> fetching -> extracting -> (has next -> fetching) | done
//
// Done and Failed are terminal. A listing that matched nothing ends in Done
// after reporting document.ErrEmptyResultSet once. Any other failure ends in
// Failed and is returned again from every later call. A traversal never
// requests the same page twice; a next control pointing back to a visited
// page is reported as a document.MalformedPageError.
//
// # Sessions
//
// Each traversal captures the proxy session that is current when it starts.
// Reconfiguring the proxy.Provider affects only traversals started later.
// After a block, a caller can refresh the provider and continue with
// Paginator.Resume, which refetches the page the traversal stopped on and
// skips the rows already returned.
//
// # Usage
//
//	nav, err := navigator.New(provider)
//	if err != nil {
//	    return err
//	}
//	authors, err := nav.SearchAuthors(navigator.AuthorSearchPath("marie curie")).Collect(ctx, 20)
//	if err != nil {
//	    return err
//	}
package navigator
