package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nickng/bibtex"

	"github.com/nao1215/scholarnav/internal/model"
)

// Cite is the content of the "Cite" popup of a search result: formatted
// references by style and export links by format.
type Cite struct {
	// Styles maps a style name such as "MLA" to the formatted reference.
	Styles map[string]string

	// Exports maps a format name such as "BibTeX" to its download link.
	Exports map[string]string
}

// CiteURL returns the path of the cite popup for a search result.
func CiteURL(p model.Publication) string {
	return "/scholar?hl=en&q=info:" + p.ClusterID + ":scholar.google.com/&output=cite&scirp=" + strconv.Itoa(max(p.Rank-1, 0))
}

// CitePopup extracts the cite popup page.
func CitePopup(page *goquery.Selection) Cite {
	c := Cite{Styles: map[string]string{}, Exports: map[string]string{}}
	page.Find("#gs_citt tr").Each(func(_ int, row *goquery.Selection) {
		style := clean(row.Find("th").Text())
		ref := clean(row.Find("div.gs_citr").Text())
		if style != "" && ref != "" {
			c.Styles[style] = ref
		}
	})
	page.Find("a.gs_citi").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			c.Exports[clean(a.Text())] = href
		}
	})
	return c
}

// BibTeXLink returns the BibTeX export link of the popup.
func (c Cite) BibTeXLink() (string, bool) {
	href, ok := c.Exports["BibTeX"]
	return href, ok && href != ""
}

// BibTeX is one parsed BibTeX entry.
type BibTeX struct {
	Type   string
	Key    string
	Fields map[string]string
}

// ParseBibTeX parses the first entry of raw. Entry types and field names
// are lower-cased and brace groups inside values are flattened.
func ParseBibTeX(raw string) (BibTeX, error) {
	if !strings.Contains(raw, "@") {
		return BibTeX{}, ErrNoBibTeX
	}
	bib, err := bibtex.Parse(strings.NewReader(raw))
	if err != nil {
		return BibTeX{}, fmt.Errorf("%w: %w", ErrNoBibTeX, err)
	}
	if len(bib.Entries) == 0 {
		return BibTeX{}, ErrNoBibTeX
	}

	first := bib.Entries[0]
	entry := BibTeX{
		Type:   strings.ToLower(first.Type),
		Key:    strings.TrimSpace(first.CiteName),
		Fields: make(map[string]string, len(first.Fields)),
	}
	for name, value := range first.Fields {
		if value == nil {
			continue
		}
		entry.Fields[strings.ToLower(strings.TrimSpace(name))] = clean(braces.Replace(value.String()))
	}
	return entry, nil
}

var braces = strings.NewReplacer("{", "", "}", "")

// ApplyBibTeX copies the bibliographic fields of e into p and marks it filled.
func ApplyBibTeX(e BibTeX, p *model.Publication) {
	f := e.Fields
	if v := f["title"]; v != "" {
		p.Title = v
	}
	if v := f["author"]; v != "" {
		p.Authors = nil
		for _, n := range strings.Split(v, " and ") {
			if n = strings.TrimSpace(n); n != "" {
				p.Authors = append(p.Authors, n)
			}
		}
	}
	if y, err := strconv.Atoi(f["year"]); err == nil {
		p.Year = y
	}
	set := func(dst *string, key string) {
		if v := f[key]; v != "" {
			*dst = v
		}
	}
	set(&p.Journal, "journal")
	set(&p.Conference, "booktitle")
	set(&p.Volume, "volume")
	set(&p.Number, "number")
	set(&p.Pages, "pages")
	set(&p.Publisher, "publisher")
	p.Filled = true
}
