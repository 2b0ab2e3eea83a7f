package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/scholarnav/internal/model"
)

var generated = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func authorsResult() *Result {
	r := NewResult(KindAuthors, "marie curie")
	r.GeneratedAt = generated
	r.ProxyMode = "tor"
	r.Authors = []model.Author{
		{ScholarID: "U1", Name: "Marie Curie", Affiliation: "Example University", Interests: []string{"Physics", "Chemistry"}, CitedBy: 1000},
		{ScholarID: "U2", Name: "Pierre Curie", Affiliation: "Example Institute", CitedBy: 800},
	}
	return r
}

func profileResult() *Result {
	r := NewResult(KindAuthor, "U1")
	r.GeneratedAt = generated
	r.Authors = []model.Author{{
		ScholarID:    "U1",
		Name:         "Marie Curie",
		Affiliation:  "Example University",
		EmailDomain:  "@example.edu",
		CitedBy:      1000,
		CitedBy5y:    400,
		HIndex:       20,
		HIndex5y:     10,
		I10Index:     30,
		I10Index5y:   15,
		CitesPerYear: map[int]int{2019: 40, 2020: 55},
		CoAuthors:    []model.Author{{ScholarID: "U2", Name: "Pierre Curie", Affiliation: "Example Institute"}},
		Publications: []model.Publication{{Title: "On Radioactivity", Year: 1903, NumCitations: 500, Venue: "Comptes Rendus"}},
		Filled:       model.AllSections,
		Source:       model.SourceAuthorProfile,
	}}
	return r
}

func publicationsResult() *Result {
	r := NewResult(KindPublications, "radioactivity")
	r.GeneratedAt = generated
	r.Publications = []model.Publication{
		{
			Title:        "On Radioactivity",
			Authors:      []string{"M Curie", "P Curie"},
			Venue:        "Comptes Rendus",
			Year:         1903,
			Abstract:     "A study of *radioactive* substances.",
			NumCitations: 500,
			PubURL:       "https://example.org/radioactivity",
			ClusterID:    "C1",
			Source:       model.SourceSearchSnippet,
		},
		{Title: "Pipes | Filters", Journal: "Journal of Tests", NumCitations: 3, Source: model.SourceSearchSnippet},
	}
	return r
}

func organizationsResult() *Result {
	r := NewResult(KindOrganizations, "example")
	r.GeneratedAt = generated
	r.Organizations = []model.Organization{
		{Name: "Example University", ID: "1234"},
		{Name: "Example Institute", ID: "5678", FromAuthor: true},
	}
	return r
}

func TestResult(t *testing.T) {
	t.Parallel()

	t.Run("counts records of its kind", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			result *Result
			want   int
		}{
			{authorsResult(), 2},
			{profileResult(), 1},
			{publicationsResult(), 2},
			{organizationsResult(), 2},
			{&Result{Kind: "unknown", Authors: []model.Author{{}}}, 0},
		}
		for _, tt := range tests {
			if got := tt.result.Count(); got != tt.want {
				t.Errorf("%s: Count() = %d, want %d", tt.result.Kind, got, tt.want)
			}
		}
	})

	t.Run("fail marks partial", func(t *testing.T) {
		t.Parallel()

		r := authorsResult()
		r.Fail(nil)
		if r.Partial {
			t.Error("Fail(nil) marked the result partial")
		}
		r.Fail(errors.New("blocked by challenge page"))
		if !r.Partial || r.Error != "blocked by challenge page" {
			t.Errorf("Partial = %v, Error = %q", r.Partial, r.Error)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes author rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(authorsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"AUTHORS: marie curie", "1. Marie Curie [U1]", "Interests: Physics, Chemistry", "Cited by: 800", "2 record(s)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("writes profile sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(profileResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"CITATION INDICES", "CITATIONS PER YEAR", "2019: 40", "CO-AUTHORS", "Pierre Curie [U2]", "PUBLICATIONS", "On Radioactivity"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Index(output, "2019: 40") > strings.Index(output, "2020: 55") {
			t.Error("expected years in ascending order")
		}
	})

	t.Run("verbose mode includes abstracts", func(t *testing.T) {
		t.Parallel()

		var quiet, verbose bytes.Buffer
		if _, err := NewSimpleWriter(&quiet).Write(publicationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewSimpleWriter(&verbose, WithVerbose(true)).Write(publicationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(quiet.String(), "Abstract:") {
			t.Error("expected no abstract without verbose")
		}
		if !strings.Contains(verbose.String(), "Abstract: A study of *radioactive* substances.") {
			t.Error("expected abstract in verbose output")
		}
		if !strings.Contains(quiet.String(), "Journal of Tests | cited by 3") {
			t.Error("expected the journal to be used as venue")
		}
	})

	t.Run("marks organizations inferred from authors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(organizationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Example Institute (org=5678) [from author]") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("reports partial and empty results", func(t *testing.T) {
		t.Parallel()

		empty := NewResult(KindPublications, "zzzz")
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(empty); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No records matched the query.") {
			t.Error("expected empty notice")
		}

		partial := authorsResult()
		partial.Fail(errors.New("status 429"))
		buf.Reset()
		if _, err := NewSimpleWriter(&buf).Write(partial); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "WARNING: results are incomplete: status 429") {
			t.Error("expected partial warning")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the envelope", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(authorsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got Result
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if diff := cmp.Diff(authorsResult().Authors, got.Authors); diff != "" {
			t.Errorf("authors mismatch (-want +got):\n%s", diff)
		}
		if got.Kind != KindAuthors || got.ProxyMode != "tor" || !got.GeneratedAt.Equal(generated) {
			t.Errorf("envelope = %+v", got)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact output by default")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(authorsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"kind\": \"authors\"") {
			t.Errorf("expected two-space indentation:\n%s", buf.String())
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).Write(organizationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t\"kind\"") {
			t.Errorf("expected prefix and tab indentation:\n%s", buf.String())
		}
	})

	t.Run("records only", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			result *Result
			want   string
		}{
			{name: "single author is an object", result: profileResult(), want: `{"scholar_id":"U1"`},
			{name: "list is an array", result: organizationsResult(), want: `[{"Organization":"Example University","id":"1234"}`},
			{name: "empty list is an empty array", result: NewResult(KindAuthors, "zzzz"), want: "[]\n"},
			{name: "missing single record is null", result: NewResult(KindPublication, "zzzz"), want: "null\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				var buf bytes.Buffer
				if _, err := NewJSONWriter(&buf, WithRecordsOnly()).Write(tt.result); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !strings.HasPrefix(buf.String(), tt.want) {
					t.Errorf("output = %q, want prefix %q", buf.String(), tt.want)
				}
			})
		}
	})

	t.Run("source tags are names", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithRecordsOnly()).Write(publicationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"source":"search-snippet"`) {
			t.Errorf("expected readable source tag:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and author table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(authorsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Scholar Authors", "`marie curie`", "Proxy Mode", "## Authors", "Marie Curie", "Example Institute", "Scholar ID"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes profile with pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(profileResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"## Marie Curie", "### Citation Indices", "h-index", "pie", "### Co-authors", "Pierre Curie (Example Institute)", "## Publications"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes publications with details", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(publicationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "<details>") || !strings.Contains(output, "radioactive") {
			t.Error("expected abstract in a details block")
		}
		if !strings.Contains(output, "Journal of Tests") {
			t.Error("expected journal as venue")
		}
	})

	t.Run("writes organizations", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(organizationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "## Organizations") || !strings.Contains(buf.String(), "5678") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("alerts", func(t *testing.T) {
		t.Parallel()

		partial := authorsResult()
		partial.Fail(errors.New("status 429"))
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(partial); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected WARNING alert for a partial result")
		}

		buf.Reset()
		if _, err := NewMarkdownWriter(&buf).Write(NewResult(KindAuthors, "zzzz")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!NOTE]") {
			t.Error("expected NOTE alert for an empty result")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(organizationsResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "https://github.com/nao1215/scholarnav") {
			t.Error("expected footer link")
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		multi := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := multi.Write(authorsResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
		if !strings.Contains(text.String(), "Marie Curie") || !strings.Contains(js.String(), "Marie Curie") {
			t.Error("expected both outputs to contain the author")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(authorsResult())
		if err != nil || n != 0 {
			t.Errorf("Write() = %d, %v; want 0 and nil", n, err)
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{FormatText, "*report.SimpleWriter"},
		{"", "*report.SimpleWriter"},
		{FormatJSON, "*report.JSONWriter"},
		{FormatMarkdown, "*report.MarkdownWriter"},
	}
	for _, tt := range tests {
		w, err := New(tt.format, &bytes.Buffer{}, true)
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.format, err)
		}
		if got := typeName(w); got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}

	_, err := New("yaml", &bytes.Buffer{}, false)
	var unknown *UnknownFormatError
	if !errors.As(err, &unknown) || unknown.Format != "yaml" {
		t.Errorf("New(yaml) error = %v", err)
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *SimpleWriter:
		return "*report.SimpleWriter"
	case *JSONWriter:
		return "*report.JSONWriter"
	case *MarkdownWriter:
		return "*report.MarkdownWriter"
	default:
		return "unknown"
	}
}
