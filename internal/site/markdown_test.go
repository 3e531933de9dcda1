package site

import (
	"html/template"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canviz/canadaindata/web"
)

func TestTopicsCatalogue(t *testing.T) {
	list, err := Topics()
	require.NoError(t, err)
	require.Len(t, list, 3)

	slugs := []string{list[0].Slug, list[1].Slug, list[2].Slug}
	assert.Equal(t, []string{"inflation-story", "consumer-price-index", "grain-production"}, slugs)
	for _, tp := range list {
		assert.NotEmpty(t, tp.Description, tp.Slug)
		assert.Equal(t, "#/topics/"+tp.Slug, tp.Href)
	}

	grain, ok := TopicBySlug(list, "grain-production")
	require.True(t, ok)
	assert.Equal(t, PathGrain, grain.Path())
	_, ok = TopicBySlug(list, "missing")
	assert.False(t, ok)
}

func TestParseTopicsErrors(t *testing.T) {
	tests := map[string]string{
		"no slug":   "- title: A\n",
		"no title":  "- slug: a\n",
		"duplicate": "- {slug: a, title: A}\n- {slug: a, title: B}\n",
		"bad yaml":  "- {slug: a",
	}
	for name, src := range tests {
		_, err := ParseTopics([]byte(src))
		assert.Error(t, err, name)
	}

	list, err := ParseTopics([]byte("- {slug: a, title: A}\n"))
	require.NoError(t, err)
	assert.Equal(t, "#/topics/a", list[0].Href)
}

func TestInsertCharts(t *testing.T) {
	h := template.HTML("<p>a</p>\n<!-- chart:production -->\n<p>b</p>\n<!--chart:missing-->")
	assert.Equal(t, []string{"production", "missing"}, ChartKeys(h))

	slot := NewSlot("plot-history-production-container", "")
	slot.set("<svg></svg>")
	out := string(InsertCharts(h, map[string]*Slot{"production": slot}))

	assert.Contains(t, out, `<div class="chart-container" id="plot-history-production-container"><svg></svg></div>`)
	assert.NotContains(t, out, "chart:missing")
	assert.NotContains(t, out, "chart:production")
}

func TestNarrativeFillsFigures(t *testing.T) {
	r := NewRenderer(fstest.MapFS{
		"n.md": {Data: []byte("# Title\n\nProduction rose {{.Ratio}}x -- a \"big\" change.\n\n<!-- chart:x -->\n")},
	})
	h, err := r.Narrative("n.md", map[string]string{"Ratio": "7.5"})
	require.NoError(t, err)
	out := string(h)
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, "7.5x")
	assert.Contains(t, out, "&ndash;", "typographer converts dashes")
	assert.Equal(t, []string{"x"}, ChartKeys(h), "raw HTML comments survive conversion")

	_, err = r.Narrative("n.md", map[string]string{})
	assert.Error(t, err, "missing figures fail")
	_, err = r.Narrative("absent.md", nil)
	assert.Error(t, err)
}

func TestGrainNarrativeDefaults(t *testing.T) {
	r := NewRenderer(web.Content())
	h, err := r.Narrative(GrainNarrative, EmptyNarrativeStats())
	require.NoError(t, err)
	assert.Equal(t, []string{"production", "area", "crops", "cumulative"}, ChartKeys(h))
	assert.True(t, strings.Contains(string(h), "methodology-details"))
}
