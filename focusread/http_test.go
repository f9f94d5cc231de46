package focusread

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestHTTP_Settings(t *testing.T) {
	r := testReader(t)
	srv := httptest.NewServer(r.Handler(nil))
	defer srv.Close()

	code, body := do(t, srv, http.MethodGet, "/settings", "")
	if code != http.StatusOK {
		t.Fatalf("GET /settings: %d %s", code, body)
	}
	var s Settings
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatal(err)
	}
	if s != DefaultSettings() {
		t.Errorf("initial settings: %+v", s)
	}

	code, body = do(t, srv, http.MethodPatch, "/settings", `{"boldRatio":150,"lineHeight":2}`)
	if code != http.StatusOK {
		t.Fatalf("PATCH /settings: %d %s", code, body)
	}
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatal(err)
	}
	if s.BoldRatio != 100 || s.LineHeight != 2 {
		t.Errorf("patched: %+v", s)
	}

	code, _ = do(t, srv, http.MethodDelete, "/settings", "")
	if code != http.StatusOK {
		t.Fatalf("DELETE /settings: %d", code)
	}
	if got := r.Settings(t.Context()); got != DefaultSettings() {
		t.Errorf("after reset: %+v", got)
	}
}

func TestHTTP_TransformAndPreview(t *testing.T) {
	r := testReader(t)
	srv := httptest.NewServer(r.Handler(nil))
	defer srv.Close()

	code, body := do(t, srv, http.MethodPost, "/transform", `{"text":"reading"}`)
	if code != http.StatusOK {
		t.Fatalf("POST /transform: %d %s", code, body)
	}
	var tr transformResponse
	if err := json.Unmarshal([]byte(body), &tr); err != nil {
		t.Fatal(err)
	}
	if want := emph(800, "read") + "ing"; tr.HTML != want {
		t.Errorf("transform: got %q, want %q", tr.HTML, want)
	}

	code, body = do(t, srv, http.MethodPost, "/preview", "")
	if code != http.StatusOK || !strings.Contains(body, "focusread-preview") {
		t.Errorf("POST /preview: %d %s", code, body)
	}

	code, _ = do(t, srv, http.MethodPost, "/transform", `{"text":`)
	if code != http.StatusBadRequest {
		t.Errorf("malformed body: got %d, want 400", code)
	}
}

func TestHTTP_HealthStatsRescan(t *testing.T) {
	r := testReader(t)
	srv := httptest.NewServer(r.Handler(nil))
	defer srv.Close()

	if code, body := do(t, srv, http.MethodGet, "/health", ""); code != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("GET /health: %d %s", code, body)
	}
	if code, body := do(t, srv, http.MethodGet, "/stats", ""); code != http.StatusOK || !strings.Contains(body, `"running":false`) {
		t.Errorf("GET /stats: %d %s", code, body)
	}
	if code, body := do(t, srv, http.MethodPost, "/rescan", ""); code != http.StatusOK || !strings.Contains(body, `"queued":false`) {
		t.Errorf("POST /rescan: %d %s", code, body)
	}
}

func TestHTTP_SecurityHeaders(t *testing.T) {
	r := testReader(t)
	srv := httptest.NewServer(r.Handler(nil))
	defer srv.Close()

	resp, err := srv.Client().Head(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("HEAD /health: got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
}
