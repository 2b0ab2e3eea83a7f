package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/scholarnav/internal/fetch"
	"github.com/nao1215/scholarnav/internal/model"
	"github.com/nao1215/scholarnav/internal/navigator"
	"github.com/nao1215/scholarnav/internal/report"
)

// site is a fake Scholar serving registered pages by path and query.
type site struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newSite(t *testing.T) (*site, *httptest.Server) {
	t.Helper()

	s := &site{pages: map[string]string{}, hits: map[string]int{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func siteKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u.Path + "?" + u.Query().Encode()
}

func (s *site) page(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[siteKey(path)] = body
}

func (s *site) hitsOf(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[siteKey(path)]
}

func (s *site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path + "?" + r.URL.Query().Encode()
	s.mu.Lock()
	s.hits[key]++
	body, ok := s.pages[key]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func authorsPage(ids []string, next string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="gsc_1usr"><div class="gs_ai gs_scl">`+
			`<div class="gs_ai_t"><h3 class="gs_ai_name"><a href="/citations?hl=en&amp;user=%[1]s">Author %[1]s</a></h3>`+
			`<div class="gs_ai_aff">Example University</div></div></div></div>`, id)
	}
	if next != "" {
		target := strings.NewReplacer("/", `\x2F`, "=", `\x3d`, "&", `\x26`).Replace(next)
		fmt.Fprintf(&b, `<button type="button" class="gs_btnPR gs_in_ib gs_btn_half gs_btn_lsb gs_btn_srt gsc_pgn_pnx" onclick="window.location='%s'"></button>`, target)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func publicationsPage(cids []string, next string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="gs_res_ccl_mid">`)
	for _, cid := range cids {
		fmt.Fprintf(&b, `<div class="gs_r gs_or gs_scl" data-cid="%[1]s"><div class="gs_ri">`+
			`<h3 class="gs_rt"><a href="https://example.org/%[1]s">Paper %[1]s</a></h3>`+
			`<div class="gs_a">J Doe - Journal of Tests, 2020 - example.org</div>`+
			`<div class="gs_fl"><a href="/scholar?cites=%[1]s&amp;hl=en">Cited by 3</a></div>`+
			`</div></div>`, cid)
	}
	b.WriteString(`</div>`)
	if next != "" {
		fmt.Fprintf(&b, `<div id="gs_n"><a href="%s"><span class="gs_ico gs_ico_nav_next"></span></a></div>`, html.EscapeString(next))
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

const emptyListing = `<html><body>Your search - <b>zzzz</b> - did&nbsp;not match any articles.</body></html>`

var (
	curiePage1 = navigator.AuthorSearchPath("curie")
	curiePage2 = curiePage1 + "&astart=10"
)

// runCLI executes the root command against srv and returns stdout.
func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	args = append(args,
		"--base-url", srv.URL,
		"--rate-limit", "0",
		"--retries", "0",
		"-q",
		"-c", writeConfig(t, "{}\n"),
	)
	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func readResult(t *testing.T, path string) report.Result {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var result report.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON report: %v\n%s", err, data)
	}
	return result
}

func scholarIDs(authors []model.Author) []string {
	ids := []string{}
	for _, a := range authors {
		ids = append(ids, a.ScholarID)
	}
	return ids
}

func TestAuthorsCmd(t *testing.T) {
	t.Parallel()

	t.Run("text output follows every page", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(curiePage1, authorsPage([]string{"a1", "a2"}, curiePage2))
		s.page(curiePage2, authorsPage([]string{"b1"}, ""))

		out, err := runCLI(t, srv, "authors", "curie")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"AUTHORS: curie", "Author a1 [a1]", "Author b1 [b1]", "Example University"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("json report file", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(curiePage1, authorsPage([]string{"a1", "a2"}, curiePage2))
		s.page(curiePage2, authorsPage([]string{"b1"}, ""))

		path := filepath.Join(t.TempDir(), "out", "authors.json")
		out, err := runCLI(t, srv, "authors", "--json", "-o", path, "curie")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "" {
			t.Errorf("expected nothing on stdout with -o, got %q", out)
		}

		result := readResult(t, path)
		if result.Kind != report.KindAuthors || result.ProxyMode != "direct" || result.Partial {
			t.Errorf("kind = %s, proxy = %s, partial = %v", result.Kind, result.ProxyMode, result.Partial)
		}
		if diff := cmp.Diff([]string{"a1", "a2", "b1"}, scholarIDs(result.Authors)); diff != "" {
			t.Errorf("authors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("tee prints text next to the report file", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(curiePage1, authorsPage([]string{"a1"}, ""))

		path := filepath.Join(t.TempDir(), "authors.json")
		out, err := runCLI(t, srv, "authors", "--json", "--tee", "-o", path, "curie")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "AUTHORS: curie") || !strings.Contains(out, "Author a1 [a1]") {
			t.Errorf("expected the text report on stdout, got:\n%s", out)
		}
		if diff := cmp.Diff([]string{"a1"}, scholarIDs(readResult(t, path).Authors)); diff != "" {
			t.Errorf("authors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("limit stops before the next page", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(curiePage1, authorsPage([]string{"a1", "a2"}, curiePage2))
		s.page(curiePage2, authorsPage([]string{"b1"}, ""))

		path := filepath.Join(t.TempDir(), "authors.json")
		if _, err := runCLI(t, srv, "authors", "-n", "2", "--json", "-o", path, "curie"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := scholarIDs(readResult(t, path).Authors); len(got) != 2 {
			t.Errorf("authors = %v, want 2", got)
		}
		if s.hitsOf(curiePage2) != 0 {
			t.Error("second page fetched despite the limit")
		}
	})

	t.Run("empty listing", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(curiePage1, emptyListing)

		path := filepath.Join(t.TempDir(), "authors.json")
		if _, err := runCLI(t, srv, "authors", "--json", "-o", path, "curie"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result := readResult(t, path)
		if len(result.Authors) != 0 || result.Partial {
			t.Errorf("result = %+v, want empty and complete", result)
		}
	})

	t.Run("failure keeps the records collected so far", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(curiePage1, authorsPage([]string{"a1", "a2"}, curiePage2))

		path := filepath.Join(t.TempDir(), "authors.json")
		_, err := runCLI(t, srv, "authors", "--json", "-o", path, "curie")
		var statusErr *fetch.HTTPStatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 HTTPStatusError, got %v", err)
		}

		result := readResult(t, path)
		if !result.Partial || result.Error == "" {
			t.Errorf("partial = %v, error = %q, want a partial result", result.Partial, result.Error)
		}
		if diff := cmp.Diff([]string{"a1", "a2"}, scholarIDs(result.Authors)); diff != "" {
			t.Errorf("authors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("organization members", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(navigator.OrganizationAuthorsPath("1234"), authorsPage([]string{"m1"}, ""))

		out, err := runCLI(t, srv, "authors", "--org", "1234")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "org:1234") || !strings.Contains(out, "[m1]") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()

		_, srv := newSite(t)
		if _, err := runCLI(t, srv, "authors"); err == nil {
			t.Error("expected error without a name")
		}
	})
}

func TestPublicationsCmd(t *testing.T) {
	t.Parallel()

	query := navigator.PublicationSearchPath("graphs")
	page2 := query + "&start=10"

	s, srv := newSite(t)
	s.page(query, publicationsPage([]string{"c1", "c2"}, page2))
	s.page(page2, publicationsPage([]string{"c3"}, ""))

	path := filepath.Join(t.TempDir(), "pubs.json")
	if _, err := runCLI(t, srv, "publications", "--json", "--records-only", "-o", path, "graphs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var pubs []model.Publication
	if err := json.Unmarshal(data, &pubs); err != nil {
		t.Fatalf("expected a bare JSON array: %v\n%s", err, data)
	}
	var titles []string
	for _, p := range pubs {
		titles = append(titles, p.Title)
	}
	if diff := cmp.Diff([]string{"Paper c1", "Paper c2", "Paper c3"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceExport(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies [][]byte
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.URL.Path == "/v1/traces" {
			mu.Lock()
			bodies = append(bodies, body)
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/x-protobuf")
	}))
	t.Cleanup(collector.Close)

	s, srv := newSite(t)
	s.page(curiePage1, authorsPage([]string{"a1"}, ""))

	if _, err := runCLI(t, srv, "authors", "--trace-endpoint", collector.URL+"/v1/traces", "curie"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	exported := bytes.Join(bodies, nil)
	for _, want := range []string{"fetch.page", "scholarnav"} {
		if !bytes.Contains(exported, []byte(want)) {
			t.Errorf("exported spans do not mention %q (%d requests)", want, len(bodies))
		}
	}
}

func TestPublicationCmd(t *testing.T) {
	t.Parallel()

	t.Run("first result", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(navigator.PublicationSearchPath("graphs"), publicationsPage([]string{"c1", "c2"}, ""))

		out, err := runCLI(t, srv, "publication", "--markdown", "graphs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Paper c1") || strings.Contains(out, "Paper c2") {
			t.Errorf("expected only the first result, got:\n%s", out)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(navigator.PublicationSearchPath("zzzz"), emptyListing)

		path := filepath.Join(t.TempDir(), "pub.json")
		if _, err := runCLI(t, srv, "publication", "--json", "-o", path, "zzzz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := readResult(t, path); len(got.Publications) != 0 {
			t.Errorf("publications = %v, want none", got.Publications)
		}
	})
}

func TestCitedByCmd(t *testing.T) {
	t.Parallel()

	t.Run("citing publications", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(navigator.PublicationSearchPath("graphs"), publicationsPage([]string{"c1"}, ""))
		s.page("/scholar?cites=c1&hl=en", publicationsPage([]string{"x1", "x2"}, ""))

		path := filepath.Join(t.TempDir(), "citing.json")
		if _, err := runCLI(t, srv, "cited-by", "--json", "-o", path, "graphs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result := readResult(t, path)
		if len(result.Publications) != 2 || result.Publications[0].Title != "Paper x1" {
			t.Errorf("publications = %+v", result.Publications)
		}
		if result.Publications[0].Source != model.SourceCitationListing {
			t.Errorf("Source = %s, want %s", result.Publications[0].Source, model.SourceCitationListing)
		}
	})

	t.Run("uncited publication", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page(navigator.PublicationSearchPath("graphs"), `<html><body><div id="gs_res_ccl_mid">`+
			`<div class="gs_r gs_or gs_scl" data-cid="c9"><div class="gs_ri">`+
			`<h3 class="gs_rt"><a href="https://example.org/c9">Paper c9</a></h3>`+
			`<div class="gs_a">J Doe - Journal of Tests, 2020 - example.org</div>`+
			`</div></div></div></body></html>`)

		path := filepath.Join(t.TempDir(), "citing.json")
		if _, err := runCLI(t, srv, "cited-by", "--json", "-o", path, "graphs"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := readResult(t, path).Publications; len(got) != 0 {
			t.Errorf("publications = %+v, want none", got)
		}
	})
}

func TestOrgCmd(t *testing.T) {
	t.Parallel()

	s, srv := newSite(t)
	s.page(navigator.OrganizationSearchPath("example"), `<html><body>
<h3 class="gsc_inst_res"><a href="/citations?view_op=view_org&amp;hl=en&amp;org=1234">Example University</a></h3>
</body></html>`)

	path := filepath.Join(t.TempDir(), "orgs.json")
	if _, err := runCLI(t, srv, "org", "--json", "-o", path, "example"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Organization{{Name: "Example University", ID: "1234"}}
	if diff := cmp.Diff(want, readResult(t, path).Organizations); diff != "" {
		t.Errorf("organizations mismatch (-want +got):\n%s", diff)
	}
}

func TestProxyCheckCmd(t *testing.T) {
	t.Parallel()

	t.Run("reachable", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page("/", "<html><body>Scholar</body></html>")

		out, err := runCLI(t, srv, "proxy", "check")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"mode:   direct", "exit:   direct", "status: ok"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("blocked", func(t *testing.T) {
		t.Parallel()

		s, srv := newSite(t)
		s.page("/", `<html><body><form id="gs_captcha_f"></form></body></html>`)

		out, err := runCLI(t, srv, "proxy", "check")
		if !fetch.IsBlocked(err) {
			t.Fatalf("expected a blocked error, got %v", err)
		}
		if !strings.Contains(out, "status: blocked") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}
