package site

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/canviz/canadaindata/internal/dataset"
	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/web"
)

// ── Fixtures ──

func series(category string, points ...any) models.CategorySeries {
	s := models.CategorySeries{Category: category}
	for i := 0; i+1 < len(points); i += 2 {
		s.Data = append(s.Data, models.SeriesPoint{Date: points[i].(string), Value: points[i+1].(float64)})
	}
	return s
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// testComponents is three years of two crops. Production and area grow
// every year; the aggregated files are absent so totals come from here.
func testComponents() *models.CropComponents {
	cc := &models.CropComponents{Crops: []string{"Wheat, all", "Barley"}}
	for i, year := range []int{1908, 1909, 1910} {
		for j, crop := range cc.Crops {
			area := float64(1000 * (i + 1) * (j + 1))
			prod := area * (1.5 + 0.1*float64(i))
			cc.Data = append(cc.Data,
				models.CropComponent{Year: year, Crop: crop, Measure: models.MeasureArea, Value: area},
				models.CropComponent{Year: year, Crop: crop, Measure: models.MeasureProduction, Value: prod},
				models.CropComponent{Year: year, Crop: crop, Measure: models.MeasureYield, Value: prod / area},
			)
		}
	}
	cc.XAxisBreaks = []int{1908, 1910}
	return cc
}

func testData(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		dataset.CPISample: {Data: []byte("month,index\n2020-01,100\n2020-02,101.5\n2020-03,102\n")},
		dataset.InflationMultiSeries: {Data: mustJSON(t, models.MultiSeries{Series: []models.CategorySeries{
			series("Overall", "2015-01", 100.0, "2020-01", 110.0, "2025-11", 133.0),
			series("Food", "2015-01", 100.0, "2020-01", 115.0, "2025-11", 140.0),
		}})},
		dataset.AllSubcategories: {Data: mustJSON(t, models.Subcategories{
			Series: []models.CategorySeries{
				series("Food", "2015-01", 100.0, "2025-11", 140.0),
				series("Shelter", "2015-01", 100.0, "2025-11", 130.0),
			},
			DateRange: &models.DateRange{Start: "2015-01", End: "2025-11"},
		})},
		dataset.BasketWeights: {Data: []byte(`{"all_weights_pct":{"Food":16.5,"Shelter":29.0}}`)},
		dataset.GrainComponents: {Data: mustJSON(t, testComponents())},
	}
}

func newTestSite(t *testing.T, data fstest.MapFS) *Site {
	t.Helper()
	store := dataset.NewStore(dataset.NewFSSource(data, "test"), nil, nil)
	s, err := New(Options{
		Charts:    NewCharts(store, nil),
		Templates: web.Templates(),
		Content:   web.Content(),
	})
	require.NoError(t, err)
	return s
}

// renderPage builds and renders target, returning the parsed document.
func renderPage(t *testing.T, s *Site, target string) (*Page, *goquery.Document) {
	t.Helper()
	p, err := s.Build(context.Background(), target)
	require.NoError(t, err)
	defer p.Destroy()
	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf, p, RenderOptions{}))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return p, doc
}

func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// blockingSource delays every read until release is closed.
type blockingSource struct {
	inner   dataset.Source
	started chan string
	release chan struct{}
}

func newBlockingSource(data fstest.MapFS) *blockingSource {
	return &blockingSource{
		inner:   dataset.NewFSSource(data, "test"),
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingSource) Name() string { return "blocking" }

func (b *blockingSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b.started <- name
	<-b.release
	return b.inner.Open(ctx, name)
}
