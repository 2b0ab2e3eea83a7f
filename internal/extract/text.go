package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	numberPattern = regexp.MustCompile(`\d[\d,]*`)
	yearPattern   = regexp.MustCompile(`\b(1[5-9]|20)\d{2}\b`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// ellipsis marks truncated snippets.
const ellipsis = "\u2026"

// clean collapses runs of white space and trims the result.
func clean(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// firstNumber returns the first integer in s, ignoring thousands separators.
// It returns 0 when s carries no digits.
func firstNumber(s string) int {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// firstYear returns the first plausible publication year in s.
func firstYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// queryValue returns the value of key in the query string of href.
// Scholar links are relative, so href is parsed as a URL reference.
func queryValue(href, key string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

// markdown converts the inner HTML of sel to Markdown, keeping the
// emphasis Scholar uses to highlight matched terms.
func markdown(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	converter := md.NewConverter("", true, nil)
	out := converter.Convert(sel)
	return strings.TrimSpace(out)
}

// cleanAbstract strips snippet artifacts from an abstract.
func cleanAbstract(s string) string {
	s = strings.ReplaceAll(s, ellipsis, "")
	s = clean(s)
	if len(s) >= 8 && strings.EqualFold(s[:8], "abstract") {
		s = strings.TrimLeft(s[8:], " :")
	}
	return s
}
