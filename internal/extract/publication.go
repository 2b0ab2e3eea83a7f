package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scholarnav/internal/model"
)

// Content row markers for publication pages.
const (
	SearchRowSelector   = "div.gs_or"
	CitationRowSelector = "tr.gsc_a_tr"
	DetailTableSelector = "#gsc_oci_table"
)

// Publication extracts a publication row. The layout differs per source:
// search result rows (div.gs_or) for SourceSearchSnippet and
// SourceCitationListing, profile table rows (tr.gsc_a_tr) for
// SourceAuthorPublicationEntry.
func Publication(row *goquery.Selection, src model.Source) model.Publication {
	switch src {
	case model.SourceAuthorPublicationEntry:
		return profileRow(row)
	default:
		p := searchRow(row)
		if src != model.SourceUnknown {
			p.Source = src
		}
		return p
	}
}

func searchRow(row *goquery.Selection) model.Publication {
	p := model.Publication{Source: model.SourceSearchSnippet}
	p.ClusterID = row.AttrOr("data-cid", "")
	if rank, err := strconv.Atoi(row.AttrOr("data-rp", "")); err == nil {
		p.Rank = rank + 1
	}

	box := row.Find("div.gs_ri")
	if box.Length() == 0 {
		box = row
	}

	title := box.Find("h3.gs_rt").First().Clone()
	// [CITATION], [BOOK] and [PDF] badges are not part of the title.
	title.Find("span.gs_ctu, span.gs_ctc, span.gs_ct1, span.gs_ct2").Remove()
	p.Title = clean(title.Text())
	if href, ok := title.Find("a").Attr("href"); ok {
		p.PubURL = href
	}

	authorLine := box.Find("div.gs_a").First()
	info := clean(authorLine.Text())
	p.Authors = authorList(info)
	authorLine.Find("a").Each(func(_ int, s *goquery.Selection) {
		if id := queryValue(s.AttrOr("href", ""), "user"); id != "" {
			p.AuthorIDs = append(p.AuthorIDs, id)
		}
	})
	p.Venue, p.Year = venueYear(info)

	if abstract := box.Find("div.gs_rs").First(); abstract.Length() > 0 {
		p.Abstract = cleanAbstract(markdown(abstract))
	}

	box.Find("div.gs_fl a").Each(func(_ int, s *goquery.Selection) {
		text := clean(s.Text())
		href := s.AttrOr("href", "")
		switch {
		case strings.HasPrefix(text, "Cited by"):
			p.NumCitations = firstNumber(text)
			p.CitedByURL = href
			if cites := queryValue(href, "cites"); cites != "" {
				p.CitesIDs = strings.Split(cites, ",")
			}
		case text == "Related articles":
			p.RelatedURL = href
		case strings.HasPrefix(text, "All ") && strings.HasSuffix(text, " versions"):
			p.VersionsURL = href
		}
	})

	if href, ok := row.Find("div.gs_ggs a").First().Attr("href"); ok {
		p.EprintURL = href
	}
	return p
}

// authorList splits the author part of a "gs_a" line. Truncated lists end
// with an ellipsis entry, which is dropped.
func authorList(info string) []string {
	names, _, _ := strings.Cut(info, " - ")
	var out []string
	for _, n := range strings.Split(names, ",") {
		n = strings.TrimSpace(strings.ReplaceAll(n, ellipsis, ""))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// venueYear parses the middle part of "authors - venue, year - host".
// Lines without a middle part carry neither.
func venueYear(info string) (string, int) {
	parts := strings.Split(info, " - ")
	if len(parts) <= 2 {
		return "", 0
	}
	fields := strings.Split(parts[1], ",")
	last := strings.TrimSpace(fields[len(fields)-1])
	if len(last) == 4 {
		if year, err := strconv.Atoi(last); err == nil {
			return strings.TrimSpace(strings.ReplaceAll(strings.Join(fields[:len(fields)-1], ","), ellipsis, "")), year
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(parts[1], ellipsis, "")), 0
}

func profileRow(row *goquery.Selection) model.Publication {
	p := model.Publication{Source: model.SourceAuthorPublicationEntry}

	link := row.Find("a.gsc_a_at").First()
	p.Title = clean(link.Text())
	p.AuthorPubID = queryValue(link.AttrOr("href", ""), "citation_for_view")

	gray := row.Find("div.gs_gray")
	if names := clean(gray.Eq(0).Text()); names != "" {
		for _, n := range strings.Split(names, ",") {
			if n = strings.TrimSpace(n); n != "" && n != "..." {
				p.Authors = append(p.Authors, n)
			}
		}
	}
	p.Venue = clean(gray.Eq(1).Text())

	cited := row.Find(".gsc_a_ac").First()
	if text := clean(cited.Text()); text != "" {
		p.NumCitations = firstNumber(text)
		p.CitedByURL = cited.AttrOr("href", "")
		if cites := queryValue(p.CitedByURL, "cites"); cites != "" {
			p.CitesIDs = strings.Split(cites, ",")
		}
	}
	p.Year = firstYear(row.Find(".gsc_a_h").Text())
	return p
}

// CitationRows extracts every publication row of a profile page.
func CitationRows(page *goquery.Selection) []model.Publication {
	rows := page.Find(CitationRowSelector)
	out := make([]model.Publication, 0, rows.Length())
	rows.Each(func(_ int, s *goquery.Selection) {
		out = append(out, profileRow(s))
	})
	return out
}

// HasMoreCitations reports whether the "show more" button of a profile
// page is enabled.
func HasMoreCitations(page *goquery.Selection) bool {
	button := page.Find(LoadMoreSelector)
	if button.Length() == 0 {
		return false
	}
	_, disabled := button.Attr("disabled")
	return !disabled
}

// PublicationDetail fills p from a citation detail page
// (view_op=view_citation) and marks it filled.
func PublicationDetail(page *goquery.Selection, p *model.Publication) {
	if title := clean(page.Find("#gsc_oci_title").Text()); title != "" {
		p.Title = title
	}
	if href, ok := page.Find("a.gsc_oci_title_link").Attr("href"); ok {
		p.PubURL = href
	}

	page.Find(DetailTableSelector + " div.gs_scl").Each(func(_ int, item *goquery.Selection) {
		key := strings.ToLower(clean(item.Find(".gsc_oci_field").Text()))
		val := item.Find(".gsc_oci_value")
		text := clean(val.Text())
		switch key {
		case "authors", "inventors":
			p.Authors = nil
			for _, n := range strings.Split(text, ",") {
				if n = strings.TrimSpace(n); n != "" {
					p.Authors = append(p.Authors, n)
				}
			}
		case "journal":
			p.Journal = text
		case "conference":
			p.Conference = text
		case "volume":
			p.Volume = text
		case "issue":
			p.Number = text
		case "pages":
			p.Pages = text
		case "publisher":
			p.Publisher = text
		case "publication date":
			if y := firstYear(text); y != 0 {
				p.Year = y
			}
		case "description":
			p.Abstract = detailAbstract(val)
		case "total citations":
			href := val.Find("a").AttrOr("href", "")
			if cites := queryValue(href, "cites"); cites != "" {
				p.CitesIDs = strings.Split(cites, ",")
				p.CitedByURL = "/scholar?hl=en&cites=" + cites
			}
			p.NumCitations = max(p.NumCitations, firstNumber(val.Find("a").Text()))
		case "scholar articles":
			val.Find("a").Each(func(_ int, a *goquery.Selection) {
				if strings.EqualFold(clean(a.Text()), "related articles") {
					p.RelatedURL = a.AttrOr("href", "")
				}
			})
		}
	})

	if page.Find("div.gsc_oci_title_ggi").Length() > 0 {
		if href, ok := page.Find("div.gsc_oci_title_ggi a").First().Attr("href"); ok {
			p.EprintURL = href
		}
	}
	p.Filled = true
}

// detailAbstract joins the abstract paragraphs of a description cell.
func detailAbstract(val *goquery.Selection) string {
	parts := val.Find(".gsh_csp")
	if parts.Length() == 0 {
		return cleanAbstract(markdown(val))
	}
	var b strings.Builder
	parts.Each(func(i int, s *goquery.Selection) {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(cleanAbstract(markdown(s)))
	})
	return strings.TrimSpace(b.String())
}
