package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/idom/internal/config"
	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/session"
	"github.com/vango-dev/idom/pkg/vdom"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != "dev\n" {
		t.Errorf("version --short = %q", out)
	}
}

func TestHTMLJSON(t *testing.T) {
	out, err := execute(t, `<p title="note">hi<script>alert(1)</script></p>`, "html")
	if err != nil {
		t.Fatal(err)
	}
	var node vdom.Node
	if err := json.Unmarshal([]byte(out), &node); err != nil {
		t.Fatalf("output is not a node: %v\n%s", err, out)
	}
	if node.Tag != "div" || len(node.Children) != 1 {
		t.Fatalf("root = %+v", node)
	}
	p := node.Children[0]
	if p.Tag != "p" || p.Attrs["title"] != "note" || p.TextContent() != "hi" {
		t.Errorf("p = %+v", p)
	}
	if strings.Contains(out, "script") {
		t.Errorf("script survived sanitizing:\n%s", out)
	}
}

func TestHTMLFormatHTML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(file, []byte(`<b>bold</b> text`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "", "html", "--trusted", "--format", "html", file)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<div><b>bold</b> text</div>\n" {
		t.Errorf("html = %q", out)
	}
}

func TestHTMLErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"bad format", []string{"html", "--format", "yaml"}, "E152"},
		{"missing file", []string{"html", filepath.Join(t.TempDir(), "nope.html")}, "E151"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "<p>x</p>", tt.args...)
			if !stderrors.Is(err, errors.New(tt.code)) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	errors.DisableColors()
	defer errors.EnableColors()

	var buf bytes.Buffer
	printError(&buf, errors.New("E105").WithSuggestion(`Got "redis"`))
	if !strings.Contains(buf.String(), "E105") || !strings.Contains(buf.String(), `Hint: Got "redis"`) {
		t.Errorf("coded error = %q", buf.String())
	}

	buf.Reset()
	printError(&buf, io.ErrUnexpectedEOF)
	if !strings.Contains(buf.String(), "unexpected EOF") {
		t.Errorf("plain error = %q", buf.String())
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  address: \":9100\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":9100" || cfg.Path() != path {
		t.Errorf("cfg = %+v from %q", cfg.Server, cfg.Path())
	}
}

func TestNewApp(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Sessions.Store = "sqlite"
	cfg.Sessions.Path = filepath.Join(dir, "sessions.db")
	cfg.Uploads.Sink = "disk"
	cfg.Uploads.Dir = filepath.Join(dir, "uploads")
	cfg.Server.Title = "Test App"
	cfg.Log.Level = "error"

	a, err := newApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(a.web)
	t.Cleanup(func() {
		a.web.Shutdown(context.Background())
		ts.Close()
		a.close()
	})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{"<title>Test App</title>", "Sample Application", `id="upload"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("index missing %q", want)
		}
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Error("no session cookie")
	}
	if _, err := os.Stat(cfg.Uploads.Dir); err != nil {
		t.Errorf("upload dir: %v", err)
	}
}

func TestNewAppBadSessionPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Sessions.Store = "sqlite"
	cfg.Sessions.Path = filepath.Join(file, "sessions.db")

	_, err := newApp(cfg)
	if !stderrors.Is(err, errors.New("E250")) {
		t.Errorf("err = %v, want E250", err)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1},
		{0.5, 5},
		{0.95, 10},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(nil) = %v", got)
	}
}

func TestBench(t *testing.T) {
	out, err := execute(t, "", "bench", "--clients=2", "--duration=500ms", "--rate=50")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Clients:    2", "p50:", "Errors:     0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
