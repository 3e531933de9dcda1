package inflation

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// OverallCategory is the all-items series used for the headline figures.
const OverallCategory = "Overall"

// NoChangeAnnotation is shown when hovering at (or next to) the latest month.
const NoChangeAnnotation = "Hover over earlier dates to see change"

// CategoryColours are the line colours of the overview chart.
var CategoryColours = map[string]string{
	"Overall":   "#0D3B66",
	"Food":      "#C41E3A",
	"Shelter":   "#2E8B57",
	"Transport": "#E07B39",
	"Goods":     "#6B4C9A",
	"Services":  "#D4A574",
}

// DefaultColour is used for categories without an assigned colour.
const DefaultColour = "#666"

// ColourFor returns the line colour for a category.
func ColourFor(category string) string {
	if c, ok := CategoryColours[category]; ok {
		return c
	}
	return DefaultColour
}

// ErrNoSeries is returned when no series has any usable point.
var ErrNoSeries = errors.New("inflation: no series with data")

// Line is one category series, normalised so its first value is 1.
type Line struct {
	Category   string      `json:"category"`
	Colour     string      `json:"colour"`
	Dates      []time.Time `json:"dates"`
	Values     []float64   `json:"values"`
	Normalised []float64   `json:"normalised"`
}

// IndexAt returns the index of the first point at or after t, clamped to
// the series.
func (l *Line) IndexAt(t time.Time) int {
	i := sort.Search(len(l.Dates), func(i int) bool { return !l.Dates[i].Before(t) })
	if i > len(l.Dates)-1 {
		i = len(l.Dates) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Last returns the final normalised value.
func (l *Line) Last() float64 { return l.Normalised[len(l.Normalised)-1] }

// Overview holds the normalised category series and the log-scale extent
// for the "Consumer Price Index by Category" chart.
type Overview struct {
	Lines   []*Line   `json:"lines"`
	K       float64   `json:"k"` // y domain is [1/K, K]
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	overall *Line
}

// BuildOverview parses and normalises the multi-series file. Points with
// unparseable dates are dropped, and series left empty are skipped.
func BuildOverview(ms *models.MultiSeries) (*Overview, error) {
	if ms == nil {
		return nil, ErrNoSeries
	}
	ov := &Overview{K: 1}
	for _, s := range ms.Series {
		line := &Line{Category: s.Category, Colour: ColourFor(s.Category)}
		for _, p := range s.Data {
			t, err := utils.ParseMonth(p.Date)
			if err != nil {
				continue
			}
			line.Dates = append(line.Dates, t)
			line.Values = append(line.Values, p.Value)
		}
		if len(line.Values) == 0 || line.Values[0] == 0 {
			continue
		}

		base := line.Values[0]
		line.Normalised = make([]float64, len(line.Values))
		lo, hi := math.Inf(1), math.Inf(-1)
		for i, v := range line.Values {
			n := v / base
			line.Normalised[i] = n
			lo = math.Min(lo, n)
			hi = math.Max(hi, n)
		}
		if lo > 0 && hi/lo > ov.K {
			ov.K = hi / lo
		}

		first, last := line.Dates[0], line.Dates[len(line.Dates)-1]
		if ov.Start.IsZero() || first.Before(ov.Start) {
			ov.Start = first
		}
		if last.After(ov.End) {
			ov.End = last
		}

		ov.Lines = append(ov.Lines, line)
		if s.Category == OverallCategory && ov.overall == nil {
			ov.overall = line
		}
	}
	if len(ov.Lines) == 0 {
		return nil, ErrNoSeries
	}
	return ov, nil
}

// Overall returns the all-items line, or nil.
func (ov *Overview) Overall() *Line { return ov.overall }

// Months returns every month from Start to End inclusive.
func (ov *Overview) Months() []time.Time {
	var out []time.Time
	for t := ov.Start; !t.After(ov.End); t = t.AddDate(0, 1, 0) {
		out = append(out, t)
	}
	return out
}

// OverallIncrease formats the all-items change from the first to the last
// month as a whole percentage, e.g. "33%". Empty without an Overall series.
func (ov *Overview) OverallIncrease() string {
	if ov.overall == nil {
		return ""
	}
	v := ov.overall.Values
	first, last := v[0], v[len(v)-1]
	return utils.ToFixed((last-first)/first*100, 0) + "%"
}

// OverallIncreaseFrom is OverallIncrease for raw first/last values.
func OverallIncreaseFrom(first, last float64) string {
	return utils.ToFixed((last-first)/first*100, 0) + "%"
}

// Subtitle formats the hovered month, e.g. "January 2015".
func Subtitle(t time.Time) string {
	return utils.LongMonth(t)
}

// Annotation describes the all-items change from the hovered month to the
// latest month, with the compound yearly average.
func (ov *Overview) Annotation(t time.Time) string {
	if ov.overall == nil {
		return ""
	}
	o := ov.overall
	idx := o.IndexAt(t)
	hoverValue, hoverDate := o.Values[idx], o.Dates[idx]
	latestValue, latestDate := o.Values[len(o.Values)-1], o.Dates[len(o.Dates)-1]
	return AnnotationFor(hoverValue, latestValue, hoverDate, latestDate)
}

// AnnotationFor formats "+X.X% since Mon 'YY (Y.Y%/yr avg)" for a change
// from hover to latest.
func AnnotationFor(hoverValue, latestValue float64, hoverDate, latestDate time.Time) string {
	years := float64(utils.MonthsBetween(hoverDate, latestDate)) / 12
	if years <= 0.01 || hoverValue == 0 {
		return NoChangeAnnotation
	}
	pct := (latestValue - hoverValue) / hoverValue * 100
	rate := (math.Pow(latestValue/hoverValue, 1/years) - 1) * 100
	return utils.Signed(pct, 1) + "% since " + utils.ShortMonthYear(hoverDate) +
		" (" + utils.ToFixed(rate, 1) + "%/yr avg)"
}
