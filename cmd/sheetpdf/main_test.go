package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sheetpdf "github.com/porticus-lab/go-sheet-pdf"
	"github.com/porticus-lab/go-sheet-pdf/assemble"
	"github.com/porticus-lab/go-sheet-pdf/surface/static"
)

func TestParseExportArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    exportArgs
		wantErr bool
	}{
		{
			name: "default output next to payload",
			args: []string{"data/kopi.json"},
			want: exportArgs{input: "data/kopi.json", output: "data/kopi.pdf"},
		},
		{
			name: "stdin to stdout",
			args: []string{"-"},
			want: exportArgs{input: "-", output: "-"},
		},
		{
			name: "all options",
			args: []string{"-o", "out.pdf", "-surface", "static", "-mail-to", "a@b.id", "-no-sandbox", "-v", "list.json"},
			want: exportArgs{
				surfaceFlags: surfaceFlags{surface: "static", noSandbox: true, verbose: true},
				output:       "out.pdf", mailTo: "a@b.id", input: "list.json",
			},
		},
		{
			name: "blob keeps output empty",
			args: []string{"-blob", "list.json"},
			want: exportArgs{blob: true, input: "list.json"},
		},
		{name: "missing payload", args: []string{"-o", "x.pdf"}, wantErr: true},
		{name: "dangling -o", args: []string{"list.json", "-o"}, wantErr: true},
		{name: "dangling -surface", args: []string{"list.json", "-surface"}, wantErr: true},
		{name: "unknown option", args: []string{"-x", "list.json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExportArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseExportArgs: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseServeArgs(t *testing.T) {
	a, err := parseServeArgs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.addr != ":8080" || a.redis != "" || a.ttl != 15*time.Minute {
		t.Errorf("defaults = %+v", a)
	}

	a, err = parseServeArgs([]string{"-addr", ":9000", "-redis", "localhost:6379", "-ttl", "2m", "-surface", "static"})
	if err != nil {
		t.Fatal(err)
	}
	if a.addr != ":9000" || a.redis != "localhost:6379" || a.ttl != 2*time.Minute || a.surface != "static" {
		t.Errorf("parsed = %+v", a)
	}

	for _, bad := range [][]string{{"-ttl", "soon"}, {"-addr"}, {"extra"}} {
		if _, err := parseServeArgs(bad); err == nil {
			t.Errorf("parseServeArgs(%q) succeeded", bad)
		}
	}
}

func TestSurfaceFlags_UnknownSurface(t *testing.T) {
	if _, err := (surfaceFlags{surface: "gpu"}).exporterOptions(); err == nil {
		t.Fatal("expected error for unknown surface")
	}
}

func TestSubjectFor(t *testing.T) {
	tests := []struct {
		p    assemble.Payload
		want string
	}{
		{assemble.Payload{Item: &assemble.Item{Name: "Kopi"}}, "Detail Produk: Kopi"},
		{assemble.Payload{List: &assemble.List{Group: assemble.Group{Name: "Minuman"}}}, "Daftar Harga: Minuman"},
		{assemble.Payload{}, "sheetpdf"},
	}
	for _, tt := range tests {
		if got := subjectFor(tt.p); got != tt.want {
			t.Errorf("subjectFor = %q, want %q", got, tt.want)
		}
	}
}

func TestMailConfigFromEnv(t *testing.T) {
	t.Setenv("SHEETPDF_SMTP_HOST", "smtp.example.com")
	t.Setenv("SHEETPDF_SMTP_FROM", "toko@example.com")
	t.Setenv("SHEETPDF_SMTP_PORT", "2525")

	cfg, err := mailConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 2525 || cfg.Host != "smtp.example.com" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("SHEETPDF_SMTP_PORT", "abc")
	if _, err := mailConfigFromEnv(); err == nil {
		t.Error("expected error for bad port")
	}
	t.Setenv("SHEETPDF_SMTP_PORT", "")
	t.Setenv("SHEETPDF_SMTP_HOST", "")
	if _, err := mailConfigFromEnv(); err == nil {
		t.Error("expected error without host")
	}
}

func TestNewMailMessage(t *testing.T) {
	cfg := mailConfig{From: "toko@example.com"}
	msg := newMailMessage(cfg, "pembeli@example.com", "Daftar Harga: Minuman", "minuman.pdf", []byte("%PDF-1.3"))

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"pembeli@example.com", "Daftar Harga: Minuman", `filename="minuman.pdf"`} {
		if !strings.Contains(out, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *sheetpdf.Exporter) {
	t.Helper()
	s, err := static.New()
	if err != nil {
		t.Fatal(err)
	}
	e, err := sheetpdf.NewExporter(sheetpdf.WithSurface(s))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })

	srv := httptest.NewServer(newServer(e, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv, e
}

func TestServer_ExportAndPreview(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"group":{"name":"Minuman"},"items":[{"name":"Teh","price":5000,"quantity":3}]}`
	resp, err := http.Post(srv.URL+"/exports", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var ref struct {
		ID    string `json:"id"`
		URL   string `json:"url"`
		Pages int    `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		t.Fatal(err)
	}
	if ref.Pages != 1 || ref.URL != "/blobs/"+ref.ID {
		t.Fatalf("ref = %+v", ref)
	}

	pdfResp, err := http.Get(srv.URL + ref.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK {
		t.Fatalf("preview status = %d", pdfResp.StatusCode)
	}
	if ct := pdfResp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := pdfResp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(pdfResp.Body)
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("preview is not a PDF")
	}
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/exports", "{", http.StatusBadRequest},
		{"missing price", http.MethodPost, "/exports", `{"name":"Teh"}`, http.StatusBadRequest},
		{"missing name", http.MethodPost, "/exports", `{"price":1000}`, http.StatusBadRequest},
		{"unknown blob", http.MethodGet, "/blobs/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/exports", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestRunInspect(t *testing.T) {
	_, e := newTestServer(t)
	path := filepath.Join(t.TempDir(), "teh.pdf")
	_, err := e.ExportDetail(context.Background(), assemble.Item{Name: "Teh", Price: 5000}, sheetpdf.ExportOptions{Mode: sheetpdf.ModeFile, Path: path})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runInspect([]string{path}, &out); err != nil {
		t.Fatalf("runInspect: %v", err)
	}
	for _, want := range []string{"Pages:   1", "Page 1: 595 x 842 pt", `"Halaman 1 dari 1"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if err := runInspect(nil, &out); err == nil {
		t.Error("expected error without input")
	}
}
