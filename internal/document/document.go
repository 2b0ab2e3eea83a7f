package document

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// emptyResultPhrase is the text Scholar shows when a query has no matches.
const emptyResultPhrase = "did not match any articles"

// NextButtonSelector matches the "next page" button on author listings by
// its full class signature.
const NextButtonSelector = ".gs_btnPR.gs_in_ib.gs_btn_half.gs_btn_lsb.gs_btn_srt.gsc_pgn_pnx"

// onclickPrefix is the JavaScript that wraps the target in a next button's
// onclick attribute: window.location='<target>'.
const onclickPrefix = "window.location='"

const nbsp = "\u00a0"

// Document is a parsed, normalized result page.
type Document struct {
	doc *goquery.Document
}

// Normalize parses raw HTML into a Document.
// Non-breaking spaces are replaced with ordinary spaces both in the raw
// markup and in the decoded text nodes, so "&nbsp;" entities are covered too.
// A page announcing that the query matched nothing yields ErrEmptyResultSet.
func Normalize(raw string) (*Document, error) {
	raw = strings.ReplaceAll(raw, nbsp, " ")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	for _, n := range doc.Nodes {
		replaceNBSP(n)
	}

	d := &Document{doc: doc}
	if strings.Contains(d.Text(), emptyResultPhrase) {
		return nil, ErrEmptyResultSet
	}
	return d, nil
}

// replaceNBSP rewrites non-breaking spaces in every text node under n.
func replaceNBSP(n *html.Node) {
	if n.Type == html.TextNode {
		n.Data = strings.ReplaceAll(n.Data, nbsp, " ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		replaceNBSP(c)
	}
}

// Root returns the underlying goquery document.
func (d *Document) Root() *goquery.Document {
	return d.doc
}

// Find returns the elements matching selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Require returns the elements matching selector, or a MalformedPageError
// when none exist.
func (d *Document) Require(selector string) (*goquery.Selection, error) {
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, &MalformedPageError{Marker: selector, Reason: "element not found"}
	}
	return sel, nil
}

// Text returns the visible text of the page. Script and style contents are
// excluded.
func (d *Document) Text() string {
	var b strings.Builder
	for _, n := range d.doc.Nodes {
		visibleText(&b, n)
	}
	return b.String()
}

func visibleText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(b, c)
	}
}

// Publib returns the data-sva attribute of the result container.
// Pages without the container or attribute return an unset Optional.
func (d *Document) Publib() Optional[string] {
	v, ok := d.doc.Find("div#gs_res_glb").First().Attr("data-sva")
	if !ok {
		return None[string]()
	}
	return Some(v)
}

// NextTarget locates the button matching selector and decodes the relative
// URL embedded in its onclick handler. ok is false when the button is
// absent or disabled. A present, enabled button whose handler cannot be
// decoded is a MalformedPageError.
func (d *Document) NextTarget(selector string) (target string, ok bool, err error) {
	btn := d.doc.Find(selector).First()
	if btn.Length() == 0 {
		return "", false, nil
	}
	if _, disabled := btn.Attr("disabled"); disabled {
		return "", false, nil
	}

	onclick, found := btn.Attr("onclick")
	if !found {
		return "", false, &MalformedPageError{Marker: selector, Reason: "next button has no onclick handler"}
	}
	quoted, hasPrefix := strings.CutPrefix(onclick, onclickPrefix)
	quoted, hasSuffix := strings.CutSuffix(quoted, "'")
	if !hasPrefix || !hasSuffix {
		return "", false, &MalformedPageError{Marker: selector, Reason: fmt.Sprintf("onclick handler is not a location assignment: %q", onclick)}
	}

	target, err = Unescape(quoted)
	if err != nil {
		return "", false, &MalformedPageError{Marker: selector, Reason: "cannot decode next target", Err: err}
	}
	if target == "" {
		return "", false, &MalformedPageError{Marker: selector, Reason: "empty next target"}
	}
	return target, true, nil
}

// NextLink returns the href of the link enclosing the first element that
// matches selector. Publication listings mark their next link with an icon
// inside an anchor rather than a button.
func (d *Document) NextLink(selector string) (string, bool) {
	el := d.doc.Find(selector).First()
	if el.Length() == 0 {
		return "", false
	}
	link := el
	if goquery.NodeName(el) != "a" {
		link = el.Closest("a")
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return href, true
}
