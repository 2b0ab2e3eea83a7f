package extract

import (
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/scholarnav/internal/model"
)

// Content row markers for author pages.
const (
	AuthorRowSelector   = "div.gsc_1usr"
	CoAuthorRowSelector = "span.gsc_rsb_a_desc"
	LoadMoreSelector    = "button#gsc_bpf_more"
)

// emailPrefix precedes the verified domain in author lines.
const emailPrefix = "Verified email at "

// PictureURL returns the medium profile photo for a scholar ID.
func PictureURL(scholarID string) string {
	return "https://scholar.google.com/citations?view_op=medium_photo&user=" + scholarID
}

// Author extracts an author search row (div.gsc_1usr).
func Author(row *goquery.Selection) model.Author {
	a := model.Author{Source: model.SourceAuthorSearchSnippet}

	href, _ := row.Find("a").First().Attr("href")
	a.ScholarID = queryValue(href, "user")
	if a.ScholarID != "" {
		a.PictureURL = PictureURL(a.ScholarID)
	}

	a.Name = clean(row.Find("h3.gs_ai_name").Text())
	aff := row.Find("div.gs_ai_aff")
	a.Affiliation = clean(aff.Text())
	if orgHref, ok := aff.Find("a").Attr("href"); ok {
		a.Organization = queryValue(orgHref, "org")
	}
	if email := clean(row.Find("div.gs_ai_eml").Text()); email != "" {
		a.EmailDomain = "@" + strings.TrimPrefix(email, emailPrefix)
	}
	row.Find("a.gs_ai_one_int").Each(func(_ int, s *goquery.Selection) {
		a.Interests = append(a.Interests, clean(s.Text()))
	})
	a.CitedBy = firstNumber(row.Find("div.gs_ai_cby").Text())
	return a
}

// CoAuthor extracts an entry of the co-author sidebar (span.gsc_rsb_a_desc).
func CoAuthor(row *goquery.Selection) model.Author {
	link := row.Find("a").First()
	href, _ := link.Attr("href")
	return model.Author{
		ScholarID:   queryValue(href, "user"),
		Name:        clean(link.Text()),
		Affiliation: clean(row.Find("span.gsc_rsb_a_ext").First().Text()),
		Source:      model.SourceCoAuthorList,
	}
}

// Profile fills the requested sections of a from an author profile page.
// Publications are not handled here because they span several pages; see
// CitationRows. The filled sections are recorded in a.Filled.
func Profile(page *goquery.Selection, a *model.Author, sections []string) {
	for _, section := range sections {
		switch section {
		case model.SectionBasics:
			profileBasics(page, a)
		case model.SectionIndices:
			profileIndices(page, a)
		case model.SectionCounts:
			profileCounts(page, a)
		case model.SectionCoAuthors:
			a.CoAuthors = a.CoAuthors[:0]
			page.Find(CoAuthorRowSelector).Each(func(_ int, s *goquery.Selection) {
				a.CoAuthors = append(a.CoAuthors, CoAuthor(s))
			})
		default:
			continue
		}
		if !a.HasSection(section) {
			a.Filled = append(a.Filled, section)
		}
	}
	a.Source = model.SourceAuthorProfile
}

func profileBasics(page *goquery.Selection, a *model.Author) {
	a.Name = clean(page.Find("#gsc_prf_in").Text())

	if src, ok := page.Find("img#gsc_prf_pup-img").Attr("src"); ok && !strings.Contains(src, "avatar_scholar") {
		a.PictureURL = src
	}

	aff := page.Find("div.gsc_prf_il").First()
	a.Affiliation = clean(aff.Text())
	if href, ok := aff.Find("a").Attr("href"); ok {
		a.Organization = queryValue(href, "org")
	}

	a.Interests = nil
	page.Find("a.gsc_prf_inta").Each(func(_ int, s *goquery.Selection) {
		a.Interests = append(a.Interests, clean(s.Text()))
	})

	email := page.Find("div#gsc_prf_ivh")
	if text := clean(email.Text()); strings.HasPrefix(text, emailPrefix) {
		domain, _, _ := strings.Cut(strings.TrimPrefix(text, emailPrefix), " ")
		a.EmailDomain = "@" + domain
	}
	if href, ok := email.Find("a.gsc_prf_ila").Attr("href"); ok {
		a.Homepage = href
	}

	if cells := page.Find("td.gsc_rsb_std"); cells.Length() > 0 {
		a.CitedBy = firstNumber(cells.First().Text())
	}
}

// profileIndices reads the citation index table: all-time then 5-year
// columns for citations, h-index and i10-index.
func profileIndices(page *goquery.Selection, a *model.Author) {
	var values []int
	page.Find("td.gsc_rsb_std").Each(func(_ int, s *goquery.Selection) {
		values = append(values, firstNumber(s.Text()))
	})
	values = append(values, make([]int, max(0, 6-len(values)))...)

	a.CitedBy, a.CitedBy5y = values[0], values[1]
	a.HIndex, a.HIndex5y = values[2], values[3]
	a.I10Index, a.I10Index5y = values[4], values[5]
}

// profileCounts reads the citations-per-year histogram. Bars are positioned
// with a z-index counted from the most recent year, and years without
// citations have no bar.
func profileCounts(page *goquery.Selection, a *model.Author) {
	var years []int
	page.Find("span.gsc_g_t").Each(func(_ int, s *goquery.Selection) {
		if y, err := strconv.Atoi(clean(s.Text())); err == nil {
			years = append(years, y)
		}
	})
	cites := make([]int, len(years))
	page.Find("a.gsc_g_a").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		_, z, ok := strings.Cut(style, "z-index:")
		if !ok {
			return
		}
		i, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(z), ";")))
		if err != nil || i < 1 || i > len(cites) {
			return
		}
		cites[len(cites)-i] = firstNumber(s.Find("span.gsc_g_al").Text())
	})

	a.CitesPerYear = make(map[int]int, len(years))
	for i, y := range years {
		a.CitesPerYear[y] = cites[i]
	}
}

// NormalizeSections validates and orders requested sections. An empty
// request selects every section.
func NormalizeSections(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(model.AllSections), nil
	}
	var out []string
	for _, s := range model.AllSections {
		if slices.Contains(requested, s) {
			out = append(out, s)
		}
	}
	for _, r := range requested {
		if !slices.Contains(model.AllSections, r) {
			return nil, &UnknownSectionError{Section: r}
		}
	}
	return out, nil
}
