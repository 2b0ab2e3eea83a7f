package report

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/scholarnav/internal/model"
)

// MarkdownWriter outputs results as GitHub-flavored Markdown tables.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeStatus(md, result)

	switch result.Kind {
	case KindAuthors:
		w.writeAuthors(md, result.Authors)
	case KindAuthor:
		for i := range result.Authors {
			w.writeProfile(md, &result.Authors[i])
		}
	case KindPublications, KindPublication:
		w.writePublications(md, result.Publications)
	case KindOrganizations:
		w.writeOrganizations(md, result.Organizations)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *Result) {
	md.H1("Scholar " + cases.Title(language.English).String(string(result.Kind)))
	md.PlainText("")

	rows := [][]string{
		{"Query", "`" + result.Query + "`"},
		{"Generated", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Records", strconv.Itoa(result.Count())},
	}
	if result.ProxyMode != "" {
		rows = append(rows, []string{"Proxy Mode", result.ProxyMode})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, result *Result) {
	switch {
	case result.Partial:
		md.Warningf("Results are incomplete: %s", result.Error)
		md.PlainText("")
	case result.Count() == 0:
		md.Note("No records matched the query.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeAuthors(md *markdown.Markdown, authors []model.Author) {
	if len(authors) == 0 {
		return
	}
	md.H2("Authors")
	md.PlainText("")

	rows := make([][]string, len(authors))
	for i, a := range authors {
		rows[i] = []string{
			cell(a.Name),
			cell(a.Affiliation),
			strconv.Itoa(a.CitedBy),
			cell(strings.Join(a.Interests, ", ")),
			cell(a.ScholarID),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Affiliation", "Cited by", "Interests", "Scholar ID"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeProfile(md *markdown.Markdown, a *model.Author) {
	md.H2(a.Name)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scholar ID", cell(a.ScholarID)},
			{"Affiliation", cell(a.Affiliation)},
			{"Email Domain", cell(a.EmailDomain)},
			{"Homepage", cell(a.Homepage)},
			{"Interests", cell(strings.Join(a.Interests, ", "))},
		},
	})
	md.PlainText("")

	if a.HasSection(model.SectionIndices) {
		md.H3("Citation Indices")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Index", "All", "Last 5 Years"},
			Rows: [][]string{
				{"Citations", strconv.Itoa(a.CitedBy), strconv.Itoa(a.CitedBy5y)},
				{"h-index", strconv.Itoa(a.HIndex), strconv.Itoa(a.HIndex5y)},
				{"i10-index", strconv.Itoa(a.I10Index), strconv.Itoa(a.I10Index5y)},
			},
		})
		md.PlainText("")
	}

	if len(a.CitesPerYear) > 0 {
		w.writeCitesPerYear(md, a.CitesPerYear)
	}

	if len(a.CoAuthors) > 0 {
		md.H3("Co-authors")
		md.PlainText("")
		names := make([]string, len(a.CoAuthors))
		for i, c := range a.CoAuthors {
			names[i] = c.Name
			if c.Affiliation != "" {
				names[i] += " (" + c.Affiliation + ")"
			}
		}
		md.BulletList(names...)
		md.PlainText("")
	}

	if a.HasSection(model.SectionPublications) {
		w.writePublications(md, a.Publications)
	}
}

// writeCitesPerYear writes a mermaid pie chart of citations by year.
func (w *MarkdownWriter) writeCitesPerYear(md *markdown.Markdown, cites map[int]int) {
	md.H3("Citations per Year")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Citations per Year"),
		piechart.WithShowData(true),
	)
	for _, year := range slices.Sorted(maps.Keys(cites)) {
		if n := cites[year]; n > 0 {
			chart.LabelAndIntValue(strconv.Itoa(year), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePublications(md *markdown.Markdown, pubs []model.Publication) {
	if len(pubs) == 0 {
		return
	}
	md.H2("Publications")
	md.PlainText("")

	rows := make([][]string, len(pubs))
	for i, p := range pubs {
		year := "-"
		if p.Year > 0 {
			year = strconv.Itoa(p.Year)
		}
		rows[i] = []string{
			cell(truncateString(p.Title, 80)),
			cell(truncateString(strings.Join(p.Authors, ", "), 50)),
			cell(truncateString(venue(p), 40)),
			year,
			strconv.Itoa(p.NumCitations),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Authors", "Venue", "Year", "Cited by"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, p := range pubs {
		if p.Abstract != "" {
			md.Details(p.Title, p.Abstract)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeOrganizations(md *markdown.Markdown, orgs []model.Organization) {
	if len(orgs) == 0 {
		return
	}
	md.H2("Organizations")
	md.PlainText("")

	rows := make([][]string, len(orgs))
	for i, o := range orgs {
		from := "no"
		if o.FromAuthor {
			from = "yes"
		}
		rows[i] = []string{cell(o.Name), cell(o.ID), from}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Organization", "ID", "From Author"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [scholarnav](https://github.com/nao1215/scholarnav)*")
}

// venue prefers the bibliographic venue of a filled record.
func venue(p model.Publication) string {
	switch {
	case p.Journal != "":
		return p.Journal
	case p.Conference != "":
		return p.Conference
	default:
		return p.Venue
	}
}

// cell makes a value safe for a table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
