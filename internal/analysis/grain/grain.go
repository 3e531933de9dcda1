// Package grain derives the grain production figures: annual totals,
// the shift-share decomposition of production growth into seeded area,
// within-crop effective yield and crop mix, and the narrative statistics.
package grain

import (
	"math"
	"sort"

	"github.com/canviz/canadaindata/pkg/models"
)

// MeasureColours colour the crop component panels.
var MeasureColours = map[string]string{
	models.MeasureYield:      "#c87941",
	models.MeasureArea:       "#4a7c7a",
	models.MeasureProduction: "#000000",
}

// ComponentColours colour the cumulative decomposition bars.
var ComponentColours = map[string]string{
	models.ComponentArea:   "#4a7c7a",
	models.ComponentWithin: "#c87941",
	models.ComponentMix:    "#4b3d60",
}

// PanelRow is one crop-year with positive production and area.
type PanelRow struct {
	Year       int
	Crop       string
	Production float64
	Area       float64
	Yield      float64 // production / area
}

// Aggregate is the all-crop total for one year.
type Aggregate struct {
	Year       int
	Production float64
	Area       float64
	YBar       float64 // area-weighted mean effective yield
}

type cropYear struct {
	crop string
	year int
}

// CropPanel joins production and seeded area per crop and year, keeping
// rows where both are positive. Rows are ordered by crop, then year.
func CropPanel(data []models.CropComponent) []PanelRow {
	prod := make(map[cropYear]float64)
	area := make(map[cropYear]float64)
	for _, d := range data {
		k := cropYear{d.Crop, d.Year}
		switch d.Measure {
		case models.MeasureProduction:
			prod[k] = d.Value
		case models.MeasureArea:
			area[k] = d.Value
		}
	}

	var rows []PanelRow
	for k, p := range prod {
		a := area[k]
		if p > 0 && a > 0 {
			rows = append(rows, PanelRow{Year: k.year, Crop: k.crop, Production: p, Area: a, Yield: p / a})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Crop != rows[j].Crop {
			return rows[i].Crop < rows[j].Crop
		}
		return rows[i].Year < rows[j].Year
	})
	return rows
}

// Aggregates sums the panel by year. Ȳ is Σ sᵢ·Yᵢ with sᵢ the crop's
// share of that year's seeded area.
func Aggregates(panel []PanelRow) []Aggregate {
	byYear := groupByYear(panel)
	years := sortedYears(byYear)

	out := make([]Aggregate, 0, len(years))
	for _, y := range years {
		rows := byYear[y]
		agg := Aggregate{Year: y}
		for _, r := range rows {
			agg.Production += r.Production
			agg.Area += r.Area
		}
		if agg.Area <= 0 {
			continue
		}
		for _, r := range rows {
			agg.YBar += r.Area / agg.Area * r.Yield
		}
		out = append(out, agg)
	}
	return out
}

// LogChanges decomposes each year-over-year change in log production:
//
//	Δln P = Δln A + Δln Ȳ
//	Δln Ȳ = within + mix
//
// where within = Σ s_{i,t-1}·Δln Yᵢ over crops present in both years.
func LogChanges(panel []PanelRow, aggs []Aggregate) []models.LogChange {
	byYear := groupByYear(panel)

	var out []models.LogChange
	for i := 1; i < len(aggs); i++ {
		prev, curr := aggs[i-1], aggs[i]
		if prev.Production <= 0 || prev.Area <= 0 || curr.Production <= 0 || curr.Area <= 0 {
			continue
		}

		dlnP := math.Log(curr.Production) - math.Log(prev.Production)
		dlnA := math.Log(curr.Area) - math.Log(prev.Area)
		dlnY := math.Log(curr.YBar) - math.Log(prev.YBar)

		prevCrops := make(map[string]PanelRow)
		for _, r := range byYear[prev.Year] {
			prevCrops[r.Crop] = r
		}
		within := 0.0
		for _, c := range byYear[curr.Year] {
			p, ok := prevCrops[c.Crop]
			if !ok || p.Yield <= 0 || c.Yield <= 0 {
				continue
			}
			within += p.Area / prev.Area * (math.Log(c.Yield) - math.Log(p.Yield))
		}

		out = append(out, models.LogChange{
			Year:        curr.Year,
			DeltaLnP:    dlnP,
			DeltaLnA:    dlnA,
			DeltaLnYBar: dlnY,
			Within:      within,
			Mix:         dlnY - within,
		})
	}
	return out
}

// Decompose runs the full shift-share pipeline over crop components.
func Decompose(components *models.CropComponents) []models.LogChange {
	if components == nil {
		return nil
	}
	panel := CropPanel(components.Data)
	return LogChanges(panel, Aggregates(panel))
}

// Totals sums one measure across crops by year, keeping positive totals.
func Totals(components *models.CropComponents, measure string) []models.YearValue {
	if components == nil {
		return nil
	}
	sums := make(map[int]float64)
	for _, d := range components.Data {
		if d.Measure == measure {
			sums[d.Year] += d.Value
		}
	}
	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]models.YearValue, 0, len(years))
	for _, y := range years {
		if sums[y] > 0 {
			out = append(out, models.YearValue{Year: y, Value: sums[y]})
		}
	}
	return out
}

// SeriesFromComponents builds a grain series with breaks from component
// totals, used when the pre-aggregated file is absent.
func SeriesFromComponents(components *models.CropComponents, measure string) *models.GrainSeries {
	data := Totals(components, measure)
	years := make([]int, len(data))
	for i, d := range data {
		years[i] = d.Year
	}
	return &models.GrainSeries{Data: data, XAxisBreaks: YearBreaks(years)}
}

func groupByYear(panel []PanelRow) map[int][]PanelRow {
	m := make(map[int][]PanelRow)
	for _, r := range panel {
		m[r.Year] = append(m[r.Year], r)
	}
	return m
}

func sortedYears[T any](m map[int]T) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
