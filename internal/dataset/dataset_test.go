package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/canviz/canadaindata/internal/infra"
	"github.com/canviz/canadaindata/pkg/utils"
)

// ── ParseCPI ──

func TestParseCPIFiltersAndSorts(t *testing.T) {
	csv := "month,index\n" +
		"2020-03,137.5\n" +
		"2020-01,136.8\n" +
		"bad,140\n" +
		"2020-02,\n" +
		"2020-04,NaN\n" +
		"2020-05,Inf\n" +
		"2020-13,120\n" +
		"2020-02,137.4\n"

	points, err := ParseCPI(strings.NewReader(csv))
	require.NoError(t, err)

	got := make([]string, len(points))
	for i, p := range points {
		got[i] = utils.FormatMonth(p.Date)
	}
	want := []string{"2020-01", "2020-02", "2020-03"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 137.4, points[1].Value, 1e-9)
}

func TestParseCPIColumnAliases(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want float64
	}{
		{"Month/Index", "Month,Index\n2021-01,100\n", 100},
		{"month/value", "month,value\n2021-01,101\n", 101},
		{"Value fallback", "Month,Value\n2021-01,102\n", 102},
		{"index wins over value", "month,value,index\n2021-01,1,103\n", 103},
		{"bom header", "\ufeffmonth,index\n2021-01,104\n", 104},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := ParseCPI(strings.NewReader(tt.csv))
			require.NoError(t, err)
			require.Len(t, points, 1)
			assert.Equal(t, tt.want, points[0].Value)
		})
	}
}

func TestParseCPIMissingColumnsYieldsNoData(t *testing.T) {
	points, err := ParseCPI(strings.NewReader("date,price\n2021-01,100\n"))
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = ParseCPI(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestParseCPIMalformed(t *testing.T) {
	_, err := ParseCPI(strings.NewReader("month,index\n\"2021-01,100\n"))
	assert.Error(t, err)
}

// ── Store ──

func testFS() fstest.MapFS {
	return fstest.MapFS{
		CPISample:            {Data: []byte("month,index\n2020-01,100\n2020-02,101\n")},
		InflationMultiSeries: {Data: []byte(`{"series":[{"category":"Overall","data":[{"date":"2015-01","value":100},{"date":"2025-11","value":133}]}]}`)},
		BasketWeights:        {Data: []byte(`{"all_weights_pct":{"Food":16.5}}`)},
		AllSubcategories:     {Data: []byte(`{"series":[`)},
		GrainProduction:      {Data: []byte(`{"data":[{"year":1908,"value":5000000}],"xAxisBreaks":[1908]}`)},
		GrainComponents:      {Data: []byte(`{"crops":["Wheat, all"],"data":[]}`)},
	}
}

func TestStoreLoadsAndCaches(t *testing.T) {
	store := NewStore(NewFSSource(testFS(), "test"), nil, nil)
	ctx := context.Background()

	points, err := store.CPI(ctx)
	require.NoError(t, err)
	assert.Len(t, points, 2)

	ms, err := store.MultiSeries(ctx)
	require.NoError(t, err)
	require.NotNil(t, ms.Find("Overall"))
	assert.Nil(t, ms.Find("Food"))

	w, err := store.Weights(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16.5, w.AllWeightsPct["Food"])

	again, err := store.MultiSeries(ctx)
	require.NoError(t, err)
	assert.Same(t, ms, again, "second load should come from cache")

	store.Invalidate(InflationMultiSeries)
	fresh, err := store.MultiSeries(ctx)
	require.NoError(t, err)
	assert.NotSame(t, ms, fresh)
}

func TestStoreErrors(t *testing.T) {
	store := NewStore(NewFSSource(testFS(), "test"), nil, nil)
	ctx := context.Background()

	_, err := store.GrainArea(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Subcategories(ctx)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, AllSubcategories, perr.Resource)
}

func TestStoreLoadAll(t *testing.T) {
	store := NewStore(NewFSSource(testFS(), "test"), nil, nil)
	store.SetConcurrency(2)

	results, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(Resources))

	failed := map[string]bool{}
	for i, r := range results {
		assert.Equal(t, Resources[i], r.Resource)
		if !r.OK {
			failed[r.Resource] = true
			assert.NotEmpty(t, r.Error)
		}
	}
	assert.Equal(t, map[string]bool{AllSubcategories: true, GrainArea: true}, failed)
	assert.Equal(t, 5, store.InvalidateAll(), "failed loads are not cached")
}

func TestStoreRaw(t *testing.T) {
	store := NewStore(NewFSSource(testFS(), "test"), nil, nil)
	b, err := store.Raw(context.Background(), "/"+CPISample)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "month,index"))
}

// ── HTTPSource ──

func TestHTTPSource(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/data/"+CPISample {
			_, _ = w.Write([]byte("month,index\n2020-01,100\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/data", infra.NewRateLimiter(10, time.Second))
	assert.Equal(t, "http:"+srv.URL+"/data/", src.Name())

	store := NewStore(src, infra.NewCache(time.Minute), nil)
	points, err := store.CPI(context.Background())
	require.NoError(t, err)
	assert.Len(t, points, 1)

	_, err = store.GrainArea(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound), "404 should map to ErrNotFound, got %v", err)
	assert.Equal(t, int32(2), hits.Load())
}

// ── Discover ──

func TestDiscover(t *testing.T) {
	fsys := fstest.MapFS{
		"grain_production_by_year.json": {},
		"grain_area_by_year.json":       {},
		"cpi_sample.csv":                {},
		"archive/grain_old.json":        {},
		"README.md":                     {},
	}

	grain, err := Discover(fsys, "grain_*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"grain_area_by_year.json", "grain_production_by_year.json"}, grain)

	all, err := DiscoverAll(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"archive/grain_old.json",
		"cpi_sample.csv",
		"grain_area_by_year.json",
		"grain_production_by_year.json",
	}, all)
}

func TestIsDataFile(t *testing.T) {
	assert.True(t, IsDataFile("cpi_sample.csv"))
	assert.True(t, IsDataFile("nested/basket_weights.json"))
	assert.False(t, IsDataFile("notes.md"))
	assert.False(t, IsDataFile(".cpi_sample.csv.swp"))
}

// ── Watcher ──

func TestWatcherReportsSettledChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	changed := make(chan string, 4)
	w, err := NewWatcher(dir, func(name string) { changed <- name }, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, CPISample), []byte("month,index\n"), 0644))

	select {
	case name := <-changed:
		assert.Equal(t, CPISample, name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	w.Stop()
}

func TestWatcherStartMissingDir(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
