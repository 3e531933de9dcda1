package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canviz/canadaindata/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>The Daily</title>
<item><title>Consumer Price Index, October 2025</title><link>https://example.org/cpi</link>
<description>&lt;p&gt;Prices &lt;b&gt;rose&lt;/b&gt; 2.2%.&lt;/p&gt;</description>
<pubDate>Tue, 18 Nov 2025 08:30:00 -0500</pubDate></item>
<item><title>Field crop production, 2025</title><link>https://example.org/crops</link>
<description>Record canola.</description>
<pubDate>Thu, 04 Dec 2025 08:30:00 -0500</pubDate></item>
<item><title>Older release</title><link>https://example.org/old</link>
<pubDate>Mon, 03 Nov 2025 08:30:00 -0500</pubDate></item>
</channel></rss>`

func feedServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDailyLatest(t *testing.T) {
	var hits int32
	srv := feedServer(t, &hits)
	d := NewDaily(config.NewsConfig{FeedURL: srv.URL, MaxItems: 2, CacheTTL: 60}, nil)

	items, err := d.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Field crop production, 2025", items[0].Title)
	assert.Equal(t, "Consumer Price Index, October 2025", items[1].Title)
	assert.Equal(t, "Prices rose 2.2%.", items[1].Summary)

	_, err = d.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second call served from cache")
}

func TestDailyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDaily(config.NewsConfig{FeedURL: srv.URL}, nil)
	_, err := d.Latest(context.Background())
	assert.Error(t, err)
}

func TestDailyNoURL(t *testing.T) {
	d := NewDaily(config.NewsConfig{}, nil)
	_, err := d.Latest(context.Background())
	assert.Error(t, err)
}

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "", cleanHTML(""))
	assert.Equal(t, "a b c", cleanHTML("<p>a</p>\n<p>b   c</p>"))
}
