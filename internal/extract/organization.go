package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scholarnav/internal/model"
)

// OrganizationRowSelector marks institution rows on an author listing.
const OrganizationRowSelector = "h3.gsc_inst_res"

// Organization extracts an institution row. ok is false when the row does
// not link to an organization listing.
func Organization(row *goquery.Selection) (model.Organization, bool) {
	link := row.Find("a").First()
	href, exists := link.Attr("href")
	if !exists {
		return model.Organization{}, false
	}
	_, id, found := strings.Cut(href, "org=")
	if !found || id == "" {
		return model.Organization{}, false
	}
	id, _, _ = strings.Cut(id, "&")
	return model.Organization{Name: clean(link.Text()), ID: id}, true
}
