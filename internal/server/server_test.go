package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mtxspy/pkg/cache"
	"github.com/matzehuels/mtxspy/pkg/pipeline"
)

const diagonal4 = `%%MatrixMarket matrix coordinate real general
4 4 4
1 1 1.0
2 2 2.0
3 3 3.0
4 4 4.0
`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(fc, nil, log.New(io.Discard))
	ts := httptest.NewServer(New(runner, log.New(io.Discard), opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	ts := newTestServer(t)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		id := resp.Header.Get(RequestIDHeader)
		if seen[id] {
			t.Fatalf("request ID %q repeated", id)
		}
		seen[id] = true
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		query       string
		contentType string
		prefix      string
	}{
		{"", "image/png", "\x89PNG"},
		{"?format=svg&legend=true", "image/svg+xml", "<?xml"},
		{"?format=json&resolution=2", "application/json", "{"},
		{"?format=jpg&size=64", "image/jpeg", "\xff\xd8"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/render"+tt.query, diagonal4)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			var body bytes.Buffer
			_, _ = body.ReadFrom(resp.Body)
			if !strings.HasPrefix(body.String(), tt.prefix) {
				t.Errorf("body starts with %q, want %q", body.String()[:min(8, body.Len())], tt.prefix)
			}
		})
	}
}

func TestRenderCacheHeader(t *testing.T) {
	ts := newTestServer(t)

	first := post(t, ts.URL+"/v1/render?format=svg", diagonal4)
	if got := first.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	second := post(t, ts.URL+"/v1/render?format=svg", diagonal4)
	if got := second.Header.Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
	if first.Header.Get("X-Grid-Hash") != second.Header.Get("X-Grid-Hash") {
		t.Error("grid hash changed between identical requests")
	}
}

func TestBin(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/bin?resolution=2", diagonal4)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	want := "4 4 2 2 2\n0 0 2\n1 1 2\n"
	if body.String() != want {
		t.Errorf("body = %q, want %q", body.String(), want)
	}
}

func TestInfo(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/info?resolution=2&name=diag", diagonal4)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var info infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Name != "diag" {
		t.Errorf("Name = %q, want diag", info.Name)
	}
	if info.Summary.NNZ != 4 || info.Summary.NonEmpty != 2 {
		t.Errorf("Summary = %+v, want 4 nonzeros in 2 cells", info.Summary)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t, WithMaxBodyBytes(256))

	full := "%%MatrixMarket matrix coordinate pattern general\n1 1 1\n1 1\n"
	empty := "%%MatrixMarket matrix coordinate real general\n3 3 0\n"
	outOfRange := "%%MatrixMarket matrix coordinate real general\n2 2 1\n3 1 1.0\n"
	huge := "%%MatrixMarket matrix coordinate pattern general\n" + strings.Repeat("% padding\n", 64)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed", "/v1/render", "hello", http.StatusUnprocessableEntity, "MALFORMED_INPUT"},
		{"out of range", "/v1/bin", outOfRange, http.StatusUnprocessableEntity, "MALFORMED_INPUT"},
		{"empty matrix", "/v1/render", empty, http.StatusUnprocessableEntity, "EMPTY_MATRIX"},
		{"full matrix", "/v1/render", full, http.StatusUnprocessableEntity, "INVALID_WINDOW"},
		{"negative delta", "/v1/render?delta=-1", diagonal4, http.StatusUnprocessableEntity, "INVALID_WINDOW"},
		{"zero delta", "/v1/render?delta=0", diagonal4, http.StatusUnprocessableEntity, "INVALID_WINDOW"},
		{"bad format", "/v1/render?format=pdf", diagonal4, http.StatusBadRequest, "INVALID_OPTION"},
		{"bad resolution", "/v1/render?resolution=abc", diagonal4, http.StatusBadRequest, "INVALID_OPTION"},
		{"bad legend", "/v1/render?legend=maybe", diagonal4, http.StatusBadRequest, "INVALID_OPTION"},
		{"bad name", "/v1/info?name=../etc", diagonal4, http.StatusBadRequest, "INVALID_OPTION"},
		{"too large", "/v1/render", huge, http.StatusRequestEntityTooLarge, "INVALID_OPTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if got := decodeError(t, resp); string(got.Code) != tt.code {
				t.Errorf("code = %q, want %q (%s)", got.Code, tt.code, got.Message)
			}
			if resp.Header.Get(RequestIDHeader) == "" {
				t.Error("missing request ID header")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(bytes.ErrTooLarge); got != http.StatusInternalServerError {
		t.Errorf("statusFor(plain) = %d, want 500", got)
	}
}
