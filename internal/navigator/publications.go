package navigator

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scholarnav/internal/document"
	"github.com/nao1215/scholarnav/internal/extract"
	"github.com/nao1215/scholarnav/internal/model"
)

// nextResultsSelector marks the "next" arrow of a search results page.
const nextResultsSelector = ".gs_ico_nav_next"

func searchListing(src model.Source) listing[model.Publication] {
	return listing[model.Publication]{
		rows: extract.SearchRowSelector,
		extract: func(row *goquery.Selection) (model.Publication, bool) {
			return extract.Publication(row, src), true
		},
		next: func(doc *document.Document, _ *url.URL) (string, bool, error) {
			href, ok := doc.NextLink(nextResultsSelector)
			return href, ok, nil
		},
	}
}

// SearchPublications starts a traversal of a search results listing such
// as PublicationSearchPath. Nothing is fetched until the first Next call.
func (n *Navigator) SearchPublications(path string) *Paginator[model.Publication] {
	return newPaginator(n, path, searchListing(model.SourceSearchSnippet))
}

// CitedBy starts a traversal of the publications citing pub.
func (n *Navigator) CitedBy(pub model.Publication) (*Paginator[model.Publication], error) {
	if pub.CitedByURL == "" {
		return nil, fmt.Errorf("%w: %q has no cited-by link", ErrNoCitations, pub.Title)
	}
	return newPaginator(n, pub.CitedByURL, searchListing(model.SourceCitationListing)), nil
}

// SearchPublication returns the first result of a search results page. A
// page without result rows is a MalformedPageError; an empty result set is
// reported as document.ErrEmptyResultSet. When filled is true the record is
// completed with FillPublication.
func (n *Navigator) SearchPublication(ctx context.Context, path string, filled bool) (model.Publication, error) {
	p := n.SearchPublications(path)
	pub, err := p.Next(ctx)
	if errors.Is(err, Done) {
		return model.Publication{}, &document.MalformedPageError{Marker: extract.SearchRowSelector, Reason: "no publication rows"}
	}
	if err != nil {
		return model.Publication{}, err
	}
	if !filled {
		return pub, nil
	}
	return n.FillPublication(ctx, pub)
}

// FillPublication completes pub from its detail page. Profile entries are
// filled from the citation page; search results from the BibTeX export of
// their cite popup. A publication already filled is returned unchanged.
func (n *Navigator) FillPublication(ctx context.Context, pub model.Publication) (model.Publication, error) {
	if pub.Filled {
		return pub, nil
	}
	switch pub.Source {
	case model.SourceAuthorPublicationEntry:
		return n.fillFromCitation(ctx, pub)
	case model.SourceSearchSnippet, model.SourceCitationListing:
		return n.fillFromBibTeX(ctx, pub)
	default:
		return pub, fmt.Errorf("%w: unsupported source %s", ErrNotFillable, pub.Source)
	}
}

func (n *Navigator) fillFromCitation(ctx context.Context, pub model.Publication) (model.Publication, error) {
	if pub.AuthorPubID == "" {
		return pub, fmt.Errorf("%w: %q has no author publication ID", ErrNotFillable, pub.Title)
	}
	doc, err := n.page(ctx, n.fetcher(), CitationDetailPath(pub.AuthorPubID))
	if err != nil {
		return pub, fmt.Errorf("failed to fetch citation %s: %w", pub.AuthorPubID, err)
	}
	if _, err := doc.Require("#gsc_oci_title"); err != nil {
		return pub, fmt.Errorf("citation %s: %w", pub.AuthorPubID, err)
	}
	extract.PublicationDetail(doc.Root().Selection, &pub)
	return pub, nil
}

func (n *Navigator) fillFromBibTeX(ctx context.Context, pub model.Publication) (model.Publication, error) {
	if pub.ClusterID == "" {
		return pub, fmt.Errorf("%w: %q has no cluster ID", ErrNotFillable, pub.Title)
	}
	f := n.fetcher()
	doc, err := n.page(ctx, f, extract.CiteURL(pub))
	if err != nil {
		return pub, fmt.Errorf("failed to fetch cite popup of %s: %w", pub.ClusterID, err)
	}
	link, ok := extract.CitePopup(doc.Root().Selection).BibTeXLink()
	if !ok {
		return pub, fmt.Errorf("cite popup of %s: %w", pub.ClusterID,
			&document.MalformedPageError{Marker: "a.gs_citi", Reason: "no BibTeX export link"})
	}

	// Export links usually point at another host, so they are fetched as
	// given and only relative links are resolved against the base URL.
	target, err := n.baseURL.Parse(link)
	if err != nil {
		return pub, &document.MalformedPageError{Marker: "a.gs_citi", Reason: fmt.Sprintf("cannot resolve %q", link), Err: err}
	}
	raw, err := f.Fetch(ctx, target.String())
	if err != nil {
		return pub, fmt.Errorf("failed to fetch BibTeX of %s: %w", pub.ClusterID, err)
	}
	entry, err := extract.ParseBibTeX(raw)
	if err != nil {
		return pub, fmt.Errorf("BibTeX of %s: %w", pub.ClusterID, err)
	}
	extract.ApplyBibTeX(entry, &pub)
	return pub, nil
}
