package navigator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/nao1215/scholarnav/internal/document"
	"github.com/nao1215/scholarnav/internal/fetch"
	"github.com/nao1215/scholarnav/internal/proxy"
)

// listing describes one kind of paginated page.
type listing[T any] struct {
	// rows selects the content rows of a page.
	rows string

	// extract maps a row to a record; ok is false for rows to skip.
	extract func(row *goquery.Selection) (record T, ok bool)

	// next returns the target of the next page relative to current, or
	// ok=false on the last page.
	next func(doc *document.Document, current *url.URL) (target string, ok bool, err error)
}

// Paginator walks a multi-page listing and yields one record per Next call.
// It fetches a page only when the previous one is exhausted and never reads
// ahead. A Paginator is not safe for concurrent use; independent traversals
// each need their own.
type Paginator[T any] struct {
	id      string
	fetcher *fetch.Fetcher
	// newFetcher builds a fetcher for another session on Resume.
	newFetcher func(*proxy.Session, *slog.Logger) *fetch.Fetcher
	base       *url.URL
	listing    listing[T]
	logger     *slog.Logger

	state  State
	page   *url.URL
	doc    *document.Document
	rows   *goquery.Selection
	cursor int
	skip   int
	pages  int
	err    error

	visited map[string]bool
	publib  document.Optional[string]
}

func newPaginator[T any](n *Navigator, start string, l listing[T]) *Paginator[T] {
	return newPaginatorWith(n, n.provider.Current().Session, start, l)
}

// newPaginatorWith starts a traversal on session, so that it can share the
// session of the request that led to it.
func newPaginatorWith[T any](n *Navigator, session *proxy.Session, start string, l listing[T]) *Paginator[T] {
	id := uuid.NewString()
	logger := n.log().With("traversal", id)
	p := &Paginator[T]{
		id:         id,
		fetcher:    n.fetcherFor(session, logger),
		newFetcher: n.fetcherFor,
		base:       n.baseURL,
		listing:    l,
		logger:     logger,
		visited:    make(map[string]bool),
	}
	u, err := n.resolve(start)
	if err != nil {
		p.fail(err)
		return p
	}
	p.page = u
	return p
}

// ID returns the traversal ID used in log entries.
func (p *Paginator[T]) ID() string {
	return p.id
}

// State returns the current state.
func (p *Paginator[T]) State() State {
	return p.state
}

// URL returns the page being read, or the next page to fetch when the
// current one is exhausted. It is empty when the start path was invalid.
func (p *Paginator[T]) URL() string {
	if p.page == nil {
		return ""
	}
	return p.page.String()
}

// Pages returns the number of pages fetched so far.
func (p *Paginator[T]) Pages() int {
	return p.pages
}

// Publib returns the citation library identifier of the first page, when
// the page carried one.
func (p *Paginator[T]) Publib() document.Optional[string] {
	return p.publib
}

// Err returns the error that failed the traversal, if any.
func (p *Paginator[T]) Err() error {
	return p.err
}

// Next returns the next record. At the end of the listing it returns Done.
// A fetch or page error moves the paginator to StateFailed and is returned
// from this and every later call. A listing that matched nothing returns
// document.ErrEmptyResultSet once and Done afterwards.
func (p *Paginator[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		switch p.state {
		case StateDone:
			return zero, Done
		case StateFailed:
			return zero, p.err
		case StateStart, StateHasNext:
			if err := p.load(ctx); err != nil {
				if errors.Is(err, document.ErrEmptyResultSet) {
					p.logger.Info("listing is empty", "url", p.page.String())
					p.finish()
					return zero, err
				}
				p.fail(err)
				return zero, err
			}
		case StateExtracting:
			for p.cursor < p.rows.Length() {
				row := p.rows.Eq(p.cursor)
				p.cursor++
				if rec, ok := p.listing.extract(row); ok {
					return rec, nil
				}
			}
			if err := p.advance(); err != nil {
				p.fail(err)
				return zero, err
			}
		default:
			err := fmt.Errorf("paginator in unexpected state %s", p.state)
			p.fail(err)
			return zero, err
		}
	}
}

// load fetches and normalizes the current page.
func (p *Paginator[T]) load(ctx context.Context) error {
	p.state = StateFetching
	target := p.page.String()
	if p.visited[target] {
		return &document.MalformedPageError{Marker: target, Reason: "next page points back to a visited page"}
	}
	p.visited[target] = true

	raw, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		return err
	}
	doc, err := document.Normalize(raw)
	if err != nil {
		return err
	}

	p.pages++
	p.doc = doc
	p.rows = doc.Find(p.listing.rows)
	p.cursor = min(p.skip, p.rows.Length())
	p.skip = 0
	if p.pages == 1 {
		p.publib = doc.Publib()
	}
	p.logger.Debug("page loaded", "url", target, "page", p.pages, "rows", p.rows.Length())
	p.state = StateExtracting
	return nil
}

// advance moves past an exhausted page.
func (p *Paginator[T]) advance() error {
	target, ok, err := p.listing.next(p.doc, p.page)
	if err != nil {
		return err
	}
	if !ok {
		p.finish()
		return nil
	}
	next, err := p.page.Parse(target)
	if err != nil {
		return &document.MalformedPageError{Marker: "next page", Reason: fmt.Sprintf("cannot resolve %q", target), Err: err}
	}
	if next.Host != p.base.Host {
		return &document.MalformedPageError{Marker: "next page", Reason: fmt.Sprintf("%q leaves %s", target, p.base.Host)}
	}
	next.Scheme = p.base.Scheme
	p.page = next
	p.doc = nil
	p.rows = nil
	p.cursor = 0
	p.state = StateHasNext
	return nil
}

func (p *Paginator[T]) finish() {
	p.state = StateDone
	p.doc = nil
	p.rows = nil
	p.logger.Debug("traversal done", "pages", p.pages)
}

func (p *Paginator[T]) fail(err error) {
	p.state = StateFailed
	p.err = err
	p.doc = nil
	p.rows = nil
	p.logger.Warn("traversal failed", "url", p.URL(), "error", err)
}

// All returns an iterator over the remaining records. Iteration stops at
// the end of the listing or after yielding the first error.
func (p *Paginator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			rec, err := p.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if err != nil {
				yield(rec, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect drains the paginator. limit > 0 stops after that many records.
// An empty listing yields an empty slice and no error.
func (p *Paginator[T]) Collect(ctx context.Context, limit int) ([]T, error) {
	var out []T
	for rec, err := range p.All(ctx) {
		if errors.Is(err, document.ErrEmptyResultSet) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Resume returns a new traversal that continues from the page p stopped
// on, sending requests through session. Rows of that page already handed
// out are skipped. The new paginator has its own traversal ID; p is left
// unchanged. Resuming a finished traversal returns a finished paginator.
func (p *Paginator[T]) Resume(session *proxy.Session) *Paginator[T] {
	id := uuid.NewString()
	logger := p.logger.With("traversal", id, "resumed_from", p.id)
	r := &Paginator[T]{
		id:         id,
		fetcher:    p.newFetcher(session, logger),
		newFetcher: p.newFetcher,
		base:       p.base,
		listing:    p.listing,
		logger:     logger,
		visited:    maps.Clone(p.visited),
		publib:     p.publib,
	}
	switch {
	case p.state == StateDone:
		r.state = StateDone
		return r
	case p.page == nil:
		r.state = StateFailed
		r.err = p.err
		return r
	}

	page := *p.page
	r.page = &page
	delete(r.visited, page.String())
	// The row cursor is kept only while the page it refers to is the one
	// being resumed.
	if p.rows != nil || (p.state == StateFailed && p.cursor > 0) {
		r.skip = p.cursor
	}
	return r
}
