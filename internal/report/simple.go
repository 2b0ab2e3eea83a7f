package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/nao1215/scholarnav/internal/model"
)

// SimpleWriter outputs plain text for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds abstracts and links.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with abstracts and links.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *Result) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	switch result.Kind {
	case KindAuthors:
		for i, a := range result.Authors {
			w.writeAuthor(&sb, i+1, a)
		}
	case KindAuthor:
		for _, a := range result.Authors {
			w.writeProfile(&sb, a)
		}
	case KindPublications, KindPublication:
		for i, p := range result.Publications {
			w.writePublication(&sb, i+1, p)
		}
	case KindOrganizations:
		for _, o := range result.Organizations {
			line := fmt.Sprintf("  [+] %s (org=%s)", o.Name, o.ID)
			if o.FromAuthor {
				line += " [from author]"
			}
			sb.WriteString(line + "\n")
		}
	}
	w.writeFooter(&sb, result)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *Result) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%s: %s\n", strings.ToUpper(string(result.Kind)), result.Query)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeAuthor(sb *strings.Builder, n int, a model.Author) {
	fmt.Fprintf(sb, "%3d. %s [%s]\n", n, a.Name, a.ScholarID)
	if a.Affiliation != "" {
		fmt.Fprintf(sb, "     %s\n", a.Affiliation)
	}
	if len(a.Interests) > 0 {
		fmt.Fprintf(sb, "     Interests: %s\n", strings.Join(a.Interests, ", "))
	}
	fmt.Fprintf(sb, "     Cited by: %d\n\n", a.CitedBy)
}

func (w *SimpleWriter) writeProfile(sb *strings.Builder, a model.Author) {
	fmt.Fprintf(sb, "Name:        %s\n", a.Name)
	fmt.Fprintf(sb, "Scholar ID:  %s\n", a.ScholarID)
	if a.Affiliation != "" {
		fmt.Fprintf(sb, "Affiliation: %s\n", a.Affiliation)
	}
	if a.EmailDomain != "" {
		fmt.Fprintf(sb, "Email:       %s\n", a.EmailDomain)
	}
	if a.Homepage != "" {
		fmt.Fprintf(sb, "Homepage:    %s\n", a.Homepage)
	}
	if len(a.Interests) > 0 {
		fmt.Fprintf(sb, "Interests:   %s\n", strings.Join(a.Interests, ", "))
	}
	sb.WriteString("\n")

	if a.HasSection(model.SectionIndices) {
		writeSection(sb, "CITATION INDICES")
		fmt.Fprintf(sb, "  %-10s %8s %8s\n", "", "All", "Since 5y")
		fmt.Fprintf(sb, "  %-10s %8d %8d\n", "Citations", a.CitedBy, a.CitedBy5y)
		fmt.Fprintf(sb, "  %-10s %8d %8d\n", "h-index", a.HIndex, a.HIndex5y)
		fmt.Fprintf(sb, "  %-10s %8d %8d\n\n", "i10-index", a.I10Index, a.I10Index5y)
	}

	if len(a.CitesPerYear) > 0 {
		writeSection(sb, "CITATIONS PER YEAR")
		for _, year := range slices.Sorted(maps.Keys(a.CitesPerYear)) {
			fmt.Fprintf(sb, "  %d: %d\n", year, a.CitesPerYear[year])
		}
		sb.WriteString("\n")
	}

	if len(a.CoAuthors) > 0 {
		writeSection(sb, "CO-AUTHORS")
		for _, c := range a.CoAuthors {
			fmt.Fprintf(sb, "  [+] %s [%s]\n", c.Name, c.ScholarID)
		}
		sb.WriteString("\n")
	}

	if a.HasSection(model.SectionPublications) {
		writeSection(sb, "PUBLICATIONS")
		for i, p := range a.Publications {
			w.writePublication(sb, i+1, p)
		}
	}
}

func (w *SimpleWriter) writePublication(sb *strings.Builder, n int, p model.Publication) {
	fmt.Fprintf(sb, "%3d. %s\n", n, p.Title)
	if len(p.Authors) > 0 {
		fmt.Fprintf(sb, "     %s\n", strings.Join(p.Authors, ", "))
	}
	var meta []string
	if v := venue(p); v != "" {
		meta = append(meta, v)
	}
	if p.Year > 0 {
		meta = append(meta, fmt.Sprint(p.Year))
	}
	meta = append(meta, fmt.Sprintf("cited by %d", p.NumCitations))
	fmt.Fprintf(sb, "     %s\n", strings.Join(meta, " | "))

	if w.verbose {
		if p.PubURL != "" {
			fmt.Fprintf(sb, "     URL: %s\n", p.PubURL)
		}
		if p.EprintURL != "" {
			fmt.Fprintf(sb, "     PDF: %s\n", p.EprintURL)
		}
		if p.Abstract != "" {
			fmt.Fprintf(sb, "     Abstract: %s\n", p.Abstract)
		}
	}
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, result *Result) {
	if result.Count() == 0 && !result.Partial {
		sb.WriteString("  No records matched the query.\n\n")
	}
	if result.Partial {
		fmt.Fprintf(sb, "WARNING: results are incomplete: %s\n\n", result.Error)
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "%d record(s), generated %s\n", result.Count(), result.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
}
