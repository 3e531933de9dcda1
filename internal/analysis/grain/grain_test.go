package grain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canviz/canadaindata/pkg/models"
)

func comp(year int, crop, measure string, v float64) models.CropComponent {
	return models.CropComponent{Year: year, Crop: crop, Measure: measure, Value: v}
}

// testComponents covers two crops over three years; barley is missing in
// 1910 and oats has zero area in 1909.
func testComponents() *models.CropComponents {
	return &models.CropComponents{
		Crops: []string{"Barley", "Wheat", "Oats"},
		Data: []models.CropComponent{
			comp(1908, "Wheat", models.MeasureProduction, 100),
			comp(1908, "Wheat", models.MeasureArea, 50),
			comp(1908, "Barley", models.MeasureProduction, 30),
			comp(1908, "Barley", models.MeasureArea, 20),
			comp(1909, "Wheat", models.MeasureProduction, 150),
			comp(1909, "Wheat", models.MeasureArea, 60),
			comp(1909, "Barley", models.MeasureProduction, 20),
			comp(1909, "Barley", models.MeasureArea, 20),
			comp(1909, "Oats", models.MeasureProduction, 10),
			comp(1909, "Oats", models.MeasureArea, 0),
			comp(1910, "Wheat", models.MeasureProduction, 120),
			comp(1910, "Wheat", models.MeasureArea, 40),
			comp(1910, "Oats", models.MeasureProduction, 40),
			comp(1910, "Oats", models.MeasureArea, 40),
			comp(1910, "Wheat", models.MeasureYield, 3),
		},
	}
}

func TestCropPanel(t *testing.T) {
	panel := CropPanel(testComponents().Data)
	require.Len(t, panel, 6)

	assert.Equal(t, "Barley", panel[0].Crop)
	assert.Equal(t, 1908, panel[0].Year)
	assert.InDelta(t, 1.5, panel[0].Yield, 1e-12)

	for _, r := range panel {
		assert.Greater(t, r.Production, 0.0)
		assert.Greater(t, r.Area, 0.0)
		if r.Crop == "Oats" {
			assert.Equal(t, 1910, r.Year, "zero-area oats row dropped")
		}
	}
}

func TestAggregates(t *testing.T) {
	aggs := Aggregates(CropPanel(testComponents().Data))
	require.Len(t, aggs, 3)

	first := aggs[0]
	assert.Equal(t, 1908, first.Year)
	assert.InDelta(t, 130, first.Production, 1e-12)
	assert.InDelta(t, 70, first.Area, 1e-12)
	// Ȳ = 50/70·2 + 20/70·1.5 = P/A when every crop is in the panel.
	assert.InDelta(t, 130.0/70.0, first.YBar, 1e-12)
}

func TestLogChangesIdentity(t *testing.T) {
	changes := Decompose(testComponents())
	require.Len(t, changes, 2)
	assert.Equal(t, 1909, changes[0].Year)
	assert.Equal(t, 1910, changes[1].Year)

	for _, c := range changes {
		assert.InDelta(t, c.DeltaLnYBar, c.Within+c.Mix, 1e-12, "within + mix = Δln Ȳ")
		assert.InDelta(t, c.DeltaLnP, c.DeltaLnA+c.Within+c.Mix, 1e-12, "Δln A + within + mix = Δln P")
	}

	// 1909 → 1910: only wheat is common; its 1909 area share is 60/80.
	want := 60.0 / 80.0 * (math.Log(3) - math.Log(2.5))
	assert.InDelta(t, want, changes[1].Within, 1e-12)
}

func TestDecomposeNil(t *testing.T) {
	assert.Nil(t, Decompose(nil))
	assert.Empty(t, Decompose(&models.CropComponents{}))
}

func TestTotals(t *testing.T) {
	got := Totals(testComponents(), models.MeasureArea)
	want := []models.YearValue{{Year: 1908, Value: 70}, {Year: 1909, Value: 80}, {Year: 1910, Value: 80}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Totals mismatch (-want +got):\n%s", diff)
	}

	s := SeriesFromComponents(testComponents(), models.MeasureProduction)
	assert.Equal(t, []int{1910}, s.XAxisBreaks)
	assert.Len(t, s.Data, 3)
}

func TestYearBreaks(t *testing.T) {
	tests := []struct {
		name  string
		years []int
		want  []int
	}{
		{"empty", nil, []int{}},
		{"long span", []int{1908, 2025}, []int{1925, 1950, 1975, 2000, 2025}},
		{"medium span", []int{1961, 2024}, []int{1980, 2000, 2020, 2024}},
		{"short span", []int{2003, 2025}, []int{2010, 2020, 2025}},
		{"on multiple", []int{2000, 2020}, []int{2000, 2010, 2020}},
		{"unsorted", []int{2020, 2000, 2010}, []int{2000, 2010, 2020}},
		{"single year off multiple", []int{2005}, []int{}},
		{"single year on multiple", []int{2010}, []int{2010}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, YearBreaks(tt.years))
		})
	}
}

func TestCumulative(t *testing.T) {
	changes := []models.LogChange{
		{Year: 1910, DeltaLnA: 0.1, Within: 0.2, Mix: -0.05},
		{Year: 1909, DeltaLnA: -0.1, Within: 0.05, Mix: 0.01},
	}
	dec := Cumulative(changes)
	require.Len(t, dec.CumulativeData, 6)

	area, within, mix := dec.CumulativeData[0], dec.CumulativeData[1], dec.CumulativeData[2]
	assert.Equal(t, models.ComponentArea, area.Component)
	assert.InDelta(t, 1909.75, area.XPosition, 1e-12)
	assert.InDelta(t, 0.1, area.CumulativeEnd, 1e-12)
	assert.InDelta(t, 0.1, within.CumulativeStart, 1e-12)
	assert.InDelta(t, 0.3, within.CumulativeEnd, 1e-12)
	assert.InDelta(t, 1910.25, mix.XPosition, 1e-12)
	assert.InDelta(t, 0.25, mix.CumulativeEnd, 1e-12)

	// The second year chains on from the first.
	assert.InDelta(t, 0.25, dec.CumulativeData[3].CumulativeStart, 1e-12)

	require.Len(t, dec.ConnectingSegments, 1)
	assert.Equal(t, models.ConnectingSegment{Year: 1910, YearEnd: 1909, YValue: 0.25}, dec.ConnectingSegments[0])

	require.Len(t, dec.ComponentConnectors, 4)
	assert.InDelta(t, 1909.75, dec.ComponentConnectors[0].XStart, 1e-12)
	assert.InDelta(t, 0.3, dec.ComponentConnectors[1].YValue, 1e-12)

	assert.Equal(t, []int{1909, 1910}, dec.UniqueYears)
	assert.Equal(t, []int{1910}, dec.XAxisBreaks)
	assert.Equal(t, ComponentColours, dec.Colours)
}

func TestCumulativeEmpty(t *testing.T) {
	dec := Cumulative(nil)
	assert.Empty(t, dec.CumulativeData)
	assert.Empty(t, dec.ConnectingSegments)
	assert.Equal(t, []int{}, dec.XAxisBreaks)
}

func TestWindows(t *testing.T) {
	dec := Cumulative([]models.LogChange{{Year: 1909, DeltaLnA: 0.1, Within: 0.2, Mix: -0.05}})
	w := Windows(dec)
	require.Len(t, w, 1)
	assert.InDelta(t, 0.25, w[0].Net, 1e-12)
	assert.InDelta(t, 0.25, w[0].Cumulative, 1e-12)
	assert.InDelta(t, 0.2, w[0].Within, 1e-12)
}

func TestAreaMultiplier(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "doubled"},
		{2.9, "doubled"},
		{3, "tripled"},
		{4.5, "quadrupled"},
		{5, "quintupled"},
		{6, "sextupled"},
		{7.2, "septupled"},
		{8, "octupled"},
		{9.99, "nonupled"},
		{10, "decupled"},
		{42, "decupled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AreaMultiplier(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestStatistics(t *testing.T) {
	production := []models.YearValue{{Year: 1908, Value: 10e6}, {Year: 2025, Value: 72.45e6}}
	area := []models.YearValue{{Year: 1908, Value: 5e6}, {Year: 2025, Value: 21e6}}
	changes := []models.LogChange{
		{Year: 1950, DeltaLnP: 0.5, DeltaLnA: 0.2, Within: 0.2, Mix: 0.1},
		{Year: 1960, DeltaLnP: -0.3, DeltaLnA: 0.0, Within: -0.25, Mix: -0.05},
		{Year: 1961, DeltaLnP: 0.1, DeltaLnA: 0.0, Within: 0.15, Mix: -0.05},
	}

	s := Statistics(production, area, changes)
	assert.Equal(t, 1908, s.FirstYear)
	assert.Equal(t, 2025, s.LastYear)
	assert.Equal(t, 72.5, s.Production2025MillionTonnes)
	assert.Equal(t, 7.2, s.ProductionRatio)
	assert.Equal(t, s.ProductionRatio, s.ProductionMultiplier)
	assert.Equal(t, "quadrupled", s.AreaMultiplier)
	assert.Equal(t, 30.0, s.CumulativeLogChangeProduction)
	assert.Equal(t, 20.0, s.CumulativeArea)
	assert.Equal(t, 10.0, s.CumulativeWithin)
	assert.Equal(t, 0.0, s.CumulativeMix)
	assert.Equal(t, 1, s.WithinExceeds15Pre1960)
	assert.Equal(t, 1, s.WithinExceeds15Post1960, "0.15 itself is not counted")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.12, round(0.125, 2), "exact tie goes to even")
	assert.Equal(t, 2.0, round(2.5, 0))
	assert.Equal(t, 72.5, round(72.45, 1), "72.45 is stored just above the tie")
	assert.Equal(t, 0.0, round(-0.0001, 0))
}

func TestStatisticsEmpty(t *testing.T) {
	s := Statistics(nil, nil, nil)
	assert.Equal(t, models.GrainStatistics{
		FirstYear:      1908,
		LastYear:       1908,
		AreaFirstYear:  1908,
		AreaLastYear:   1908,
		AreaMultiplier: "doubled",
	}, s)

	s = Statistics([]models.YearValue{{Year: 1950, Value: 0}, {Year: 1960, Value: 5e6}}, nil, nil)
	assert.Equal(t, 0.0, s.ProductionRatio)
	assert.Equal(t, 5.0, s.Production2025MillionTonnes)
}
