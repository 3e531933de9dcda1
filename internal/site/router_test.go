package site

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		target string
		path   string
		query  string
	}{
		{"", "/", ""},
		{"/", "/", ""},
		{"#/topics", "/topics", ""},
		{"/#/topics/grain-production", "/topics/grain-production", ""},
		{"topics", "/topics", ""},
		{"  /topics  ", "/topics", ""},
		{"/topics/inflation-story?preset=1y#category-analysis", "/topics/inflation-story", "preset=1y"},
		{"#/topics/inflation-story?start=2020-01", "/topics/inflation-story", "start=2020-01"},
		{"/topics/grain-production?year=1950&hover=1960", "/topics/grain-production", "hover=1960&year=1950"},
	}
	for _, tt := range tests {
		req := ParseTarget(tt.target)
		if req.Path != tt.path {
			t.Errorf("ParseTarget(%q).Path = %q, want %q", tt.target, req.Path, tt.path)
		}
		if got := req.Query.Encode(); got != tt.query {
			t.Errorf("ParseTarget(%q).Query = %q, want %q", tt.target, got, tt.query)
		}
	}
}

func TestHashPath(t *testing.T) {
	assert.Equal(t, "/", HashPath(""))
	assert.Equal(t, "/", HashPath("#"))
	assert.Equal(t, "/topics", HashPath("#/topics"))
	assert.Equal(t, "/topics", HashPath("#topics"))
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "Canada in Data", DocumentTitle(""))
	assert.Equal(t, "Topics | Canada in Data", DocumentTitle("Topics"))
}

func TestRouterHandleAndLookup(t *testing.T) {
	r := NewRouter()
	build := func(tag string) PageFunc {
		return func(ctx context.Context, req Request) (*Page, error) {
			return newPage(ctx, req.Path, tag, tag, nil), nil
		}
	}
	r.Handle("/", build("home"))
	r.Handle("topics", build("topics"))
	r.Handle("/topics", build("topics2"))

	if diff := cmp.Diff([]string{"/", "/topics"}, r.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}

	fn, ok := r.Lookup("/topics")
	assert.True(t, ok)
	p, _ := fn(context.Background(), Request{Path: "/topics"})
	assert.Equal(t, "topics2", p.Title, "later registration replaces the earlier one")
	p.Destroy()

	_, ok = r.Lookup("/missing")
	assert.False(t, ok)
}
