//go:build !integration

package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telegram-imgbb-uploader/internal/infra/metrics"
)

func TestLivenessRouter(t *testing.T) {
	r := LivenessRouter("bot is alive", nil)

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"root get", http.MethodGet, "/", http.StatusOK},
		{"root post", http.MethodPost, "/", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/health", http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
			if rec.Code != c.want {
				t.Fatalf("want %d, got %d", c.want, rec.Code)
			}
			if c.want == http.StatusOK && rec.Body.String() != "bot is alive" {
				t.Fatalf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestLivenessRouter_TraceHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessRouter("ok", nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestMetricsRouter(t *testing.T) {
	metrics.MustRegister()
	metrics.IncFloodWait()

	rec := httptest.NewRecorder()
	MetricsRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "telegram_flood_waits_total") {
		t.Fatalf("metrics output missing flood wait counter")
	}
}

func TestServer_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := NewServer("liveness", 0, LivenessRouter("up", nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := waitGet("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "up" {
		t.Fatalf("unexpected body %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func waitGet(url string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		resp, err := http.Get(url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}
	return nil, lastErr
}
