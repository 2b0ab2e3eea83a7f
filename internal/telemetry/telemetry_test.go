package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// collector records the OTLP export requests it receives.
type collector struct {
	mu     sync.Mutex
	paths  []string
	bodies [][]byte
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.paths = append(c.paths, r.URL.Path)
	c.bodies = append(c.bodies, body)
	c.mu.Unlock()
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
}

func (c *collector) received(s string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.bodies {
		if bytes.Contains(b, []byte(s)) {
			return true
		}
	}
	return false
}

func TestSetup(t *testing.T) {
	t.Parallel()

	t.Run("exports spans on shutdown", func(t *testing.T) {
		t.Parallel()

		c := &collector{}
		srv := httptest.NewServer(c)
		t.Cleanup(srv.Close)

		tp, err := Setup(context.Background(), "scholarnav-test", "v0.0.1", Config{Endpoint: srv.URL + "/v1/traces"})
		if err != nil {
			t.Fatalf("Setup() error: %v", err)
		}
		_, span := tp.Tracer("test").Start(context.Background(), "fetch citations page")
		span.End()

		if err := Shutdown(tp, 5*time.Second); err != nil {
			t.Fatalf("Shutdown() error: %v", err)
		}
		c.mu.Lock()
		paths := append([]string(nil), c.paths...)
		c.mu.Unlock()
		if len(paths) == 0 || paths[0] != "/v1/traces" {
			t.Fatalf("export paths = %v, want /v1/traces", paths)
		}
		for _, want := range []string{"scholarnav-test", "fetch citations page"} {
			if !c.received(want) {
				t.Errorf("export did not carry %q", want)
			}
		}
	})

	t.Run("requires an endpoint", func(t *testing.T) {
		t.Parallel()

		if _, err := Setup(context.Background(), "scholarnav-test", "", Config{}); !errors.Is(err, ErrNoEndpoint) {
			t.Errorf("Setup() error = %v, want ErrNoEndpoint", err)
		}
	})
}
