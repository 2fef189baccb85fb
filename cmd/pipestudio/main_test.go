package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/pipestudio/api/middleware"
	"github.com/kbukum/pipestudio/bootstrap"
	"github.com/kbukum/pipestudio/logger"
)

const salesETL = "testdata/sales_etl.json"

func writeConfig(t *testing.T, backendURL, extra string) string {
	t.Helper()
	if backendURL == "" {
		backendURL = "http://127.0.0.1:1"
	}
	dir := t.TempDir()
	body := fmt.Sprintf(`logging:
  level: disabled
backend:
  base_url: %s
  timeout: 2s
preview:
  poll_interval: 100ms
  autosave_delay: 1h
state:
  driver: file
  path: %s
%s`, backendURL, filepath.Join(dir, "state"), extra)
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut, bootstrap.WithLogger(logger.Nop()))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestVersionCmd(t *testing.T) {
	cfg := writeConfig(t, "", "")

	out, _, err := run(t, cfg, "version")
	if err != nil || !strings.HasPrefix(out, "pipestudio ") {
		t.Fatalf("version = %q, %v", out, err)
	}

	out, _, err = run(t, cfg, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil || info["version"] == nil {
		t.Errorf("version --json = %q (%v)", out, err)
	}
}

func TestImportSaveAndExport(t *testing.T) {
	cfg := writeConfig(t, "", "")

	out, _, err := run(t, cfg, "import", salesETL, "--save")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported Sales_ETL: 3 stages, 2 connections") {
		t.Errorf("import output:\n%s", out)
	}
	if !strings.Contains(out, "Draft saved: ") {
		t.Fatalf("no draft id in:\n%s", out)
	}
	id := strings.TrimSpace(out[strings.Index(out, "Draft saved: ")+len("Draft saved: "):])

	last, _, err := run(t, cfg, "draft", "last")
	if err != nil || strings.TrimSpace(last) != id {
		t.Errorf("draft last = %q, %v; want %s", last, err, id)
	}

	shown, _, err := run(t, cfg, "draft", "show", id)
	if err != nil || !strings.Contains(shown, `"Sales_ETL"`) {
		t.Errorf("draft show = %q, %v", shown, err)
	}

	exported := filepath.Join(t.TempDir(), "out.json")
	if _, _, err := run(t, cfg, "export", id, "-o", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) || !strings.Contains(string(data), `"schedule"`) {
		t.Errorf("exported document:\n%s", data)
	}
	if strings.Contains(string(data), "__ui__") {
		t.Error("export should drop the editor state")
	}
}

func TestImport_Errors(t *testing.T) {
	cfg := writeConfig(t, "", "")
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	notJSON := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(notJSON, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		file string
	}{
		{"missing file", "testdata/nope.json"},
		{"malformed", bad},
		{"not json", notJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, cfg, "import", tt.file); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidateCmd(t *testing.T) {
	cfg := writeConfig(t, "", "")

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"valid", []string{"validate", salesETL}, "Validation success! Pipeline Sales_ETL is valid.", false},
		{"missing name", []string{"validate", "testdata/unnamed.json"}, "MISSING-NAME", true},
		{"nothing to validate", []string{"validate"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, cfg, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestTokenCmd(t *testing.T) {
	if _, _, err := run(t, writeConfig(t, "", ""), "token"); err == nil {
		t.Error("expected an error without an auth secret")
	}

	cfg := writeConfig(t, "", "server:\n  auth_secret: s3cret\n")
	out, _, err := run(t, cfg, "token", "--subject", "ci", "--ttl", "1m")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := middleware.HMACValidator("s3cret")(strings.TrimSpace(out))
	if err != nil || claims["sub"] != "ci" {
		t.Errorf("claims = %v, %v", claims, err)
	}
}

type fakeBackend struct {
	mu      sync.Mutex
	status  string
	submits int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/ping":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/v3/namespaces/default/artifacts":
		fmt.Fprint(w, `[{"name":"cdap-data-pipeline","version":"6.10.0","scope":"SYSTEM"}]`)
	case r.Method == http.MethodPost && r.URL.Path == "/v3/namespaces/default/previews":
		f.submits++
		fmt.Fprint(w, `{"application":"run-1"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/v3/namespaces/default/previews/run-1/status":
		fmt.Fprintf(w, `{"status":%q}`, f.status)
	default:
		http.NotFound(w, r)
	}
}

func TestPreviewRun_Plain(t *testing.T) {
	tests := []struct {
		status  string
		wantErr bool
	}{
		{"COMPLETED", false},
		{"FAILED", true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			backend := &fakeBackend{status: tt.status}
			srv := httptest.NewServer(backend)
			defer srv.Close()
			cfg := writeConfig(t, srv.URL, "")

			out, errOut, err := run(t, cfg, "preview", "run", salesETL, "--plain", "--no-color", "--arg", "date=2024-01-01")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v\n%s%s", err, tt.wantErr, out, errOut)
			}
			if !strings.Contains(out, "Preview run-1 "+tt.status) {
				t.Errorf("output missing the outcome:\n%s", out)
			}
			if !strings.Contains(errOut, "Draft saved: ") {
				t.Errorf("expected the draft to be saved before submitting:\n%s", errOut)
			}
			if backend.submits != 1 {
				t.Errorf("submits = %d", backend.submits)
			}
		})
	}
}

func TestPreviewRun_NeedsInput(t *testing.T) {
	if _, _, err := run(t, writeConfig(t, "", ""), "preview", "run"); err == nil {
		t.Error("expected an error without a file or draft")
	}
}

func TestPreviewStop_NothingRunning(t *testing.T) {
	srv := httptest.NewServer(&fakeBackend{status: "COMPLETED"})
	defer srv.Close()
	cfg := writeConfig(t, srv.URL, "")

	_, _, err := run(t, cfg, "preview", "stop")
	if err == nil || !strings.Contains(err.Error(), "no preview is running") {
		t.Errorf("err = %v", err)
	}
}
