package navigator

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scholarnav/internal/document"
	"github.com/nao1215/scholarnav/internal/extract"
	"github.com/nao1215/scholarnav/internal/fetch"
	"github.com/nao1215/scholarnav/internal/model"
	"github.com/nao1215/scholarnav/internal/proxy"
)

// Author publication sort orders.
const (
	SortByCitedBy = "citedby"
	SortByYear    = "year"
)

// CitationPageSize is the number of publication rows requested per profile
// page.
const CitationPageSize = 100

// AuthorOptions selects what SearchAuthorID fills.
type AuthorOptions struct {
	// Sections to fill. Empty fills every section.
	Sections []string

	// SortBy orders the publications: SortByCitedBy (default) or SortByYear.
	SortBy string

	// PublicationLimit caps the number of publications. Zero means no limit.
	PublicationLimit int
}

func (o AuthorOptions) validate() error {
	switch o.SortBy {
	case "", SortByCitedBy, SortByYear:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidSortBy, o.SortBy)
	}
	if o.PublicationLimit < 0 {
		return fmt.Errorf("publication limit must not be negative: %d", o.PublicationLimit)
	}
	return nil
}

var authorListing = listing[model.Author]{
	rows: extract.AuthorRowSelector,
	extract: func(row *goquery.Selection) (model.Author, bool) {
		return extract.Author(row), true
	},
	next: func(doc *document.Document, _ *url.URL) (string, bool, error) {
		return doc.NextTarget(document.NextButtonSelector)
	},
}

// SearchAuthors starts a traversal of an author listing such as
// AuthorSearchPath. Nothing is fetched until the first Next call.
func (n *Navigator) SearchAuthors(path string) *Paginator[model.Author] {
	return newPaginator(n, path, authorListing)
}

// citationListing pages through the publication table of a profile with
// cstart/pagesize until the "show more" button is disabled or a page comes
// back short.
var citationListing = listing[model.Publication]{
	rows: extract.CitationRowSelector,
	extract: func(row *goquery.Selection) (model.Publication, bool) {
		p := extract.Publication(row, model.SourceAuthorPublicationEntry)
		return p, p.Title != "" || p.AuthorPubID != ""
	},
	next: func(doc *document.Document, current *url.URL) (string, bool, error) {
		page := doc.Root().Selection
		if !extract.HasMoreCitations(page) || doc.Find(extract.CitationRowSelector).Length() < CitationPageSize {
			return "", false, nil
		}
		q := current.Query()
		start, _ := strconv.Atoi(q.Get("cstart"))
		q.Set("cstart", strconv.Itoa(start+CitationPageSize))
		q.Set("pagesize", strconv.Itoa(CitationPageSize))
		next := *current
		next.RawQuery = q.Encode()
		return next.String(), true, nil
	},
}

// AuthorPublicationsPath returns the first publication page of a profile.
func AuthorPublicationsPath(id, sortBy string) string {
	path := AuthorIDPath(id)
	if sortBy == SortByYear {
		path += "&view_op=list_works&sortby=pubdate"
	}
	return path + "&cstart=0&pagesize=" + strconv.Itoa(CitationPageSize)
}

// AuthorPublications starts a traversal of the publications on the profile
// of id, in the given sort order.
func (n *Navigator) AuthorPublications(id, sortBy string) *Paginator[model.Publication] {
	return newPaginator(n, AuthorPublicationsPath(id, sortBy), citationListing)
}

// SearchAuthorID fetches the profile of a Scholar ID and fills the
// requested sections.
func (n *Navigator) SearchAuthorID(ctx context.Context, id string, opts AuthorOptions) (model.Author, error) {
	if id == "" {
		return model.Author{}, fmt.Errorf("%w: empty scholar ID", ErrInvalidPath)
	}
	if err := opts.validate(); err != nil {
		return model.Author{}, err
	}
	sections, err := extract.NormalizeSections(opts.Sections)
	if err != nil {
		return model.Author{}, err
	}

	session := n.provider.Current().Session
	f := n.fetcherFor(session, n.log().With("scholar_id", id))
	profilePath := AuthorIDPath(id)
	if opts.SortBy == SortByYear {
		profilePath += "&view_op=list_works&sortby=pubdate"
	}
	doc, err := n.page(ctx, f, profilePath)
	if err != nil {
		return model.Author{}, fmt.Errorf("failed to fetch profile of %s: %w", id, err)
	}
	if _, err := doc.Require("#gsc_prf_in"); err != nil {
		return model.Author{}, fmt.Errorf("profile of %s: %w", id, err)
	}

	a := model.Author{ScholarID: id}
	profileSections := slices.DeleteFunc(slices.Clone(sections), func(s string) bool {
		return s == model.SectionPublications
	})
	extract.Profile(doc.Root().Selection, &a, profileSections)

	if slices.Contains(sections, model.SectionPublications) {
		pubs, err := n.authorPublications(ctx, session, id, opts)
		if err != nil {
			return a, fmt.Errorf("failed to fetch publications of %s: %w", id, err)
		}
		a.Publications = pubs
		a.Filled = append(a.Filled, model.SectionPublications)
	}
	a.Source = model.SourceAuthorProfile
	return a, nil
}

func (n *Navigator) authorPublications(ctx context.Context, session *proxy.Session, id string, opts AuthorOptions) ([]model.Publication, error) {
	p := newPaginatorWith(n, session, AuthorPublicationsPath(id, opts.SortBy), citationListing)
	pubs, err := p.Collect(ctx, opts.PublicationLimit)
	if err != nil {
		return nil, err
	}
	if pubs == nil {
		pubs = []model.Publication{}
	}
	return pubs, nil
}

// page fetches and normalizes a single page.
func (n *Navigator) page(ctx context.Context, f *fetch.Fetcher, path string) (*document.Document, error) {
	u, err := n.resolve(path)
	if err != nil {
		return nil, err
	}
	raw, err := f.Fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}
	return document.Normalize(raw)
}
