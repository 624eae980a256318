package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vango-dev/idom/pkg/upload"
)

func TestConfigDefaults(t *testing.T) {
	var nilConfig *Config
	c := nilConfig.withDefaults()
	if c.Address != ":8000" || c.EventQueueSize != 64 || c.Uploads == nil {
		t.Errorf("defaults = %+v", c)
	}

	partial := &Config{Address: ":9000", WriteTimeout: time.Second}
	c = partial.withDefaults()
	if c.Address != ":9000" || c.WriteTimeout != time.Second {
		t.Errorf("set fields overwritten: %+v", c)
	}
	if c.ReadTimeout != DefaultConfig().ReadTimeout {
		t.Errorf("ReadTimeout = %v, want default", c.ReadTimeout)
	}
	if partial.ReadTimeout != 0 {
		t.Error("withDefaults modified its receiver")
	}

	files := upload.FilesConfig{MaxStreamCount: 1}
	c = (&Config{Uploads: &files}).withDefaults()
	if c.Uploads.MaxStreamCount != 1 {
		t.Errorf("Uploads = %+v", c.Uploads)
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"https://EXAMPLE.com", true},
		{"http://evil.com", false},
		{"::", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://example.com/_api/stream", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := sameOrigin(r); got != tt.want {
			t.Errorf("sameOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestLocationOf(t *testing.T) {
	tests := []struct {
		url      string
		pathname string
		search   string
	}{
		{"/_api/stream", "/", ""},
		{"/docs/_api/stream", "/docs", ""},
		{"/a/b/_api/stream?x=1", "/a/b", "?x=1"},
	}
	for _, tt := range tests {
		loc := locationOf(httptest.NewRequest("GET", tt.url, nil))
		if loc.Pathname != tt.pathname || loc.Search != tt.search {
			t.Errorf("locationOf(%s) = %+v", tt.url, loc)
		}
	}
}

func TestEtagMatches(t *testing.T) {
	if !etagMatches(`"a", W/"b"`, `"b"`) {
		t.Error("weak tag in list should match")
	}
	if etagMatches(`"a"`, `"b"`) || etagMatches("", `"b"`) {
		t.Error("unexpected match")
	}
}
