package grain

import (
	"sort"

	"github.com/canviz/canadaindata/pkg/models"
)

// Bar offsets from the year for each component.
const (
	areaOffset = -0.25
	mixOffset  = 0.25
)

// Cumulative chains each year's components area → within → mix on top
// of the running total, and builds the connectors drawn between them.
func Cumulative(changes []models.LogChange) *models.Decomposition {
	dec := &models.Decomposition{
		CumulativeData:      []models.CumulativeBar{},
		ConnectingSegments:  []models.ConnectingSegment{},
		ComponentConnectors: []models.ComponentConnector{},
		Colours:             ComponentColours,
	}

	start := 0.0
	years := make([]int, 0, len(changes))
	for i, c := range changes {
		y := float64(c.Year)
		areaEnd := start + c.DeltaLnA
		withinEnd := areaEnd + c.Within
		mixEnd := withinEnd + c.Mix

		dec.CumulativeData = append(dec.CumulativeData,
			models.CumulativeBar{Year: c.Year, Component: models.ComponentArea, Value: c.DeltaLnA,
				CumulativeStart: start, CumulativeEnd: areaEnd, XPosition: y + areaOffset},
			models.CumulativeBar{Year: c.Year, Component: models.ComponentWithin, Value: c.Within,
				CumulativeStart: areaEnd, CumulativeEnd: withinEnd, XPosition: y},
			models.CumulativeBar{Year: c.Year, Component: models.ComponentMix, Value: c.Mix,
				CumulativeStart: withinEnd, CumulativeEnd: mixEnd, XPosition: y + mixOffset},
		)

		if i < len(changes)-1 {
			dec.ConnectingSegments = append(dec.ConnectingSegments, models.ConnectingSegment{
				Year: c.Year, YearEnd: changes[i+1].Year, YValue: mixEnd,
			})
		}

		dec.ComponentConnectors = append(dec.ComponentConnectors,
			models.ComponentConnector{Year: c.Year, XStart: y + areaOffset, XEnd: y, YValue: areaEnd},
			models.ComponentConnector{Year: c.Year, XStart: y, XEnd: y + mixOffset, YValue: withinEnd},
		)

		years = append(years, c.Year)
		start = mixEnd
	}

	sort.Ints(years)
	dec.UniqueYears = dedupe(years)
	dec.XAxisBreaks = YearBreaks(dec.UniqueYears)
	return dec
}

// YearWindow summarises one year for the decomposition mini-window.
type YearWindow struct {
	Year       int     `json:"year"`
	Area       float64 `json:"area"`
	Within     float64 `json:"within"`
	Mix        float64 `json:"mix"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"` // crop mix cumulative end
}

// Windows groups the cumulative bars by year.
func Windows(dec *models.Decomposition) []YearWindow {
	idx := make(map[int]int)
	var out []YearWindow
	for _, b := range dec.CumulativeData {
		i, ok := idx[b.Year]
		if !ok {
			i = len(out)
			idx[b.Year] = i
			out = append(out, YearWindow{Year: b.Year})
		}
		w := &out[i]
		switch b.Component {
		case models.ComponentArea:
			w.Area = b.Value
		case models.ComponentWithin:
			w.Within = b.Value
		case models.ComponentMix:
			w.Mix = b.Value
			w.Cumulative = b.CumulativeEnd
		}
		w.Net = w.Area + w.Within + w.Mix
	}
	return out
}

// YearBreaks picks x-axis tick years: every 25 years for spans over a
// century, 20 for spans of 50 or more, else 10, starting at the first
// multiple inside the range. The last year is always included.
func YearBreaks(years []int) []int {
	if len(years) == 0 {
		return []int{}
	}
	lo, hi := years[0], years[0]
	for _, y := range years {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}

	span := hi - lo
	interval := 10
	switch {
	case span > 100:
		interval = 25
	case span >= 50:
		interval = 20
	}

	first := lo
	for first%interval != 0 {
		first++
	}
	var breaks []int
	for y := first; y <= hi; y += interval {
		breaks = append(breaks, y)
	}
	if len(breaks) > 0 && breaks[len(breaks)-1] < hi {
		breaks = append(breaks, hi)
	}
	if breaks == nil {
		breaks = []int{}
	}
	return breaks
}

func dedupe(sorted []int) []int {
	out := make([]int, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
