package site

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canviz/canadaindata/internal/chart"
	"github.com/canviz/canadaindata/internal/dataset"
	"github.com/canviz/canadaindata/pkg/models"
)

type stubHeadlines struct {
	items []models.Headline
	err   error
}

func (s stubHeadlines) Latest(context.Context) ([]models.Headline, error) { return s.items, s.err }

func TestHomePage(t *testing.T) {
	s := newTestSite(t, testData(t))
	_, doc := renderPage(t, s, "/")

	assert.Equal(t, "Home | Canada in Data", doc.Find("title").Text())
	assert.Equal(t, "Canada, made easier to understand", text(doc.Find("h1")))
	assert.Equal(t, 2, doc.Find(".card").Length())
	assert.Equal(t, 0, doc.Find(".headlines").Length(), "no headline source, no section")

	active := doc.Find(".nav-links a.active")
	assert.Equal(t, "Home", text(active))
	body := doc.Find("body")
	assert.Equal(t, "/", body.AttrOr("data-base", ""))
	assert.Equal(t, "false", body.AttrOr("data-static", ""))
}

func TestHomeHeadlines(t *testing.T) {
	s := newTestSite(t, testData(t))
	s.headlines = stubHeadlines{items: []models.Headline{{
		Title:       "Consumer Price Index, October 2025",
		URL:         "https://www150.statcan.gc.ca/n1/daily-quotidien/251118/dq251118a-eng.htm",
		PublishedAt: time.Date(2025, 11, 18, 8, 30, 0, 0, time.UTC),
	}}}
	_, doc := renderPage(t, s, "/")
	items := doc.Find(".headlines li")
	require.Equal(t, 1, items.Length())
	assert.Equal(t, "Consumer Price Index, October 2025", text(items.Find("a")))
	assert.Equal(t, "2025-11-18", items.Find("time").AttrOr("datetime", ""))

	s.headlines = stubHeadlines{err: errors.New("feed down")}
	p, doc := renderPage(t, s, "/")
	assert.Equal(t, http.StatusOK, p.Status, "headline failures do not fail the page")
	assert.Equal(t, 0, doc.Find(".headlines").Length())
}

func TestTopicsPage(t *testing.T) {
	s := newTestSite(t, testData(t))
	_, doc := renderPage(t, s, "#/topics")

	cards := doc.Find(".card")
	require.Equal(t, 3, cards.Length())
	var hrefs []string
	cards.Each(func(_ int, c *goquery.Selection) { hrefs = append(hrefs, c.AttrOr("href", "")) })
	assert.Equal(t, []string{PathInflation, PathCPI, PathGrain}, hrefs)
	assert.Equal(t, "The Inflation Story", text(cards.First().Find("h3")))
}

func TestCPIPage(t *testing.T) {
	s := newTestSite(t, testData(t))
	_, doc := renderPage(t, s, PathCPI)

	assert.Equal(t, "Consumer Price Index | Canada in Data", doc.Find("title").Text())
	container := doc.Find("#cpi-chart-container")
	require.Equal(t, 1, container.Length())
	assert.Equal(t, 1, container.Find("svg").Length())
	assert.Equal(t, 0, container.Find(".loading").Length())
	assert.Equal(t, "Consumer Price Index", text(doc.Find(".nav-links a.active")))
	assert.Equal(t, "/previews/cpi.png", doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))
	assert.NotEmpty(t, doc.Find(`meta[name="description"]`).AttrOr("content", ""))
}

func TestCPIPageMissingData(t *testing.T) {
	data := testData(t)
	delete(data, dataset.CPISample)
	s := newTestSite(t, data)
	_, doc := renderPage(t, s, PathCPI)
	assert.Contains(t, text(doc.Find("#cpi-chart-container")), chart.MsgLoadError)
}

func TestInflationPage(t *testing.T) {
	s := newTestSite(t, testData(t))
	_, doc := renderPage(t, s, PathInflation)

	assert.Equal(t, "33%", text(doc.Find("#overall-increase")))
	assert.Contains(t, text(doc.Find(".big-stat-label")), "since January 2015")

	active := doc.Find(".preset-btn.active")
	require.Equal(t, 1, active.Length())
	assert.Equal(t, "all", active.AttrOr("data-preset", ""))
	assert.Equal(t, 6, doc.Find(".preset-btn").Length())

	start := doc.Find("#startDate")
	assert.Equal(t, "2015-01", start.AttrOr("value", ""))
	assert.Equal(t, "2015-01", start.AttrOr("min", ""))
	assert.Equal(t, "2025-11", doc.Find("#endDate").AttrOr("max", ""))

	// Food 40% × 16.5% + Shelter 30% × 29%.
	assert.Equal(t, "15.3%", text(doc.Find("#totalInflation")))
	assert.True(t, doc.Find("#totalInflation").HasClass("positive"))
	assert.Equal(t, "January 2015 — November 2025", text(doc.Find("#dateRangeText")))
	assert.Equal(t, 1, doc.Find("#food-chart-container svg#food-chart").Length())
	assert.Equal(t, 1, doc.Find("#overview svg").Length())
}

func TestInflationPageCustomRange(t *testing.T) {
	s := newTestSite(t, testData(t))
	_, doc := renderPage(t, s, PathInflation+"?preset=1y&start=2016-03&end=2030-01")

	assert.Equal(t, 0, doc.Find(".preset-btn.active").Length(), "explicit months override the preset")
	assert.Equal(t, "2016-03", doc.Find("#startDate").AttrOr("value", ""))
	assert.Equal(t, "2025-11", doc.Find("#endDate").AttrOr("value", ""), "end is clamped to the data")
}

func TestInflationPageLoadError(t *testing.T) {
	data := testData(t)
	data[dataset.AllSubcategories].Data = []byte(`{"series":[`)
	s := newTestSite(t, data)
	_, doc := renderPage(t, s, PathInflation)

	assert.Equal(t, chart.MsgLoadError, text(doc.Find("#food-error")))
	assert.Equal(t, 0, doc.Find("#totalInflation").Length())
	assert.Equal(t, 1, doc.Find("#overview svg").Length(), "other charts still render")
}

func TestContributionsFragment(t *testing.T) {
	s := newTestSite(t, testData(t))
	h, err := s.ContributionsFragment(context.Background(), ContributionQuery{Preset: "covid"}, "")
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(h)))
	require.NoError(t, err)
	panel := doc.Find("#contributions-panel")
	require.Equal(t, 1, panel.Length())
	assert.Equal(t, "covid", panel.AttrOr("data-preset", ""))
	assert.Equal(t, 0, doc.Find("nav").Length(), "fragment has no layout")
}

func TestGrainPage(t *testing.T) {
	s := newTestSite(t, testData(t))
	_, doc := renderPage(t, s, PathGrain+"?year=1909&hover=1910")

	ids := []string{
		"plot-history-production-container",
		"plot-history-area-container",
		"plot-history-by-crop-container",
		"plot-cumulative-container",
	}
	var got []string
	doc.Find(".chart-container").Each(func(_ int, c *goquery.Selection) {
		got = append(got, c.AttrOr("id", ""))
		assert.Equal(t, 1, c.Find("svg").Length(), c.AttrOr("id", ""))
	})
	assert.Equal(t, ids, got)

	assert.Equal(t, "1908", text(doc.Find("#first-year")))
	assert.Equal(t, "1910", text(doc.Find("#last-year")))
	assert.NotEqual(t, placeholder, text(doc.Find("#production-ratio")))
	assert.Equal(t, 1, doc.Find("details.methodology-details").Length())
	assert.Equal(t, "/previews/grain-production.png", doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))
}

func TestGrainPageWithoutComponents(t *testing.T) {
	data := testData(t)
	delete(data, dataset.GrainComponents)
	s := newTestSite(t, data)
	_, doc := renderPage(t, s, PathGrain)

	assert.Equal(t, placeholder, text(doc.Find("#production-ratio")), "figures fall back to a dash")
	assert.Contains(t, text(doc.Find("#plot-history-production-container")), chart.MsgLoadError)
}

func TestNotFoundPage(t *testing.T) {
	s := newTestSite(t, testData(t))
	p, doc := renderPage(t, s, "/topics/<script>alert(1)</script>")

	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "Not found | Canada in Data", doc.Find("title").Text())
	assert.Equal(t, "/topics/<script>alert(1)</script>", doc.Find("code").Text())
	assert.Equal(t, 0, doc.Find("main script").Length(), "path is escaped")
	assert.Equal(t, "/", doc.Find(".not-found a").AttrOr("href", ""))
}

func TestNarrativeStats(t *testing.T) {
	st := NewNarrativeStats(models.GrainStatistics{
		FirstYear: 1908, LastYear: 2025,
		ProductionRatio: 12.5, Production2025MillionTonnes: 91.3,
		AreaFirstYear: 1908, AreaLastYear: 2025, AreaMultiplier: "tripled",
		ProductionMultiplier: 12.5, CumulativeArea: 110,
		WithinExceeds15Pre1960: 14, WithinExceeds15Post1960: 3,
	})
	assert.Equal(t, "12.5", st.ProductionRatio)
	assert.Equal(t, "91.3", st.Production2025Million)
	assert.Equal(t, "110", st.CumulativeArea)
	assert.Equal(t, "0", st.CumulativeMix)
	assert.Equal(t, "117", st.Span)
	assert.Equal(t, "tripled", st.AreaMultiplier)

	empty := EmptyNarrativeStats()
	assert.Equal(t, placeholder, empty.Span)
	assert.Equal(t, placeholder, empty.AreaMultiplier)
}
