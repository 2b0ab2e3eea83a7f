package navigator

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scholarnav/internal/document"
	"github.com/nao1215/scholarnav/internal/extract"
	"github.com/nao1215/scholarnav/internal/model"
)

// SearchOrganization returns the institutions listed on an author search
// page such as OrganizationSearchPath.
//
// When the page lists no institution and fromAuthor is set, the
// organization of the first author on the page is returned instead, with
// FromAuthor set. No match at all yields an empty slice and a nil error;
// a failing author lookup is returned as an error.
func (n *Navigator) SearchOrganization(ctx context.Context, path string, fromAuthor bool) ([]model.Organization, error) {
	logger := n.log()
	doc, err := n.page(ctx, n.fetcher(), path)
	if errors.Is(err, document.ErrEmptyResultSet) {
		return []model.Organization{}, nil
	}
	if err != nil {
		return nil, err
	}

	orgs := []model.Organization{}
	doc.Find(extract.OrganizationRowSelector).Each(func(_ int, row *goquery.Selection) {
		if org, ok := extract.Organization(row); ok {
			orgs = append(orgs, org)
		}
	})
	if len(orgs) > 0 {
		logger.Info("found institutions", "count", len(orgs))
		return orgs, nil
	}
	if !fromAuthor {
		return orgs, nil
	}

	row := doc.Find(extract.AuthorRowSelector).First()
	if row.Length() == 0 {
		logger.Info("no institution or author on page", "path", path)
		return orgs, nil
	}
	first := extract.Author(row)
	if first.ScholarID == "" {
		return orgs, nil
	}

	author, err := n.SearchAuthorID(ctx, first.ScholarID, AuthorOptions{Sections: []string{model.SectionBasics}})
	if err != nil {
		return nil, fmt.Errorf("organization lookup through author %s: %w", first.ScholarID, err)
	}
	if author.Organization == "" && author.Affiliation == "" {
		return orgs, nil
	}
	return append(orgs, model.Organization{
		Name:       author.Affiliation,
		ID:         author.Organization,
		FromAuthor: true,
	}), nil
}
