package grain

import (
	"math"
	"strconv"

	"github.com/canviz/canadaindata/pkg/models"
)

// Defaults used when a series is empty.
const defaultYear = 1908

// extremeWithin is the |Δln Y| threshold counted in the narrative.
const extremeWithin = 0.15

// Statistics computes the figures quoted in the grain narrative.
func Statistics(production, area []models.YearValue, changes []models.LogChange) models.GrainStatistics {
	s := models.GrainStatistics{
		FirstYear:      defaultYear,
		LastYear:       defaultYear,
		AreaFirstYear:  defaultYear,
		AreaLastYear:   defaultYear,
		AreaMultiplier: "doubled",
	}

	if first, last, ok := endpoints(production); ok {
		s.FirstYear, s.LastYear = first.Year, last.Year
		s.Production2025MillionTonnes = round(last.Value/1e6, 1)
		if first.Value > 0 {
			s.ProductionRatio = round(last.Value/first.Value, 1)
			s.ProductionMultiplier = round(last.Value/first.Value, 1)
		}
	}

	if first, last, ok := endpoints(area); ok {
		s.AreaFirstYear, s.AreaLastYear = first.Year, last.Year
		ratio := 0.0
		if first.Value > 0 {
			ratio = last.Value / first.Value
		}
		s.AreaMultiplier = AreaMultiplier(ratio)
	}

	var sumP, sumA, sumW, sumM float64
	for _, c := range changes {
		sumP += c.DeltaLnP
		sumA += c.DeltaLnA
		sumW += c.Within
		sumM += c.Mix
		if math.Abs(c.Within) > extremeWithin {
			if c.Year < 1960 {
				s.WithinExceeds15Pre1960++
			} else {
				s.WithinExceeds15Post1960++
			}
		}
	}
	s.CumulativeLogChangeProduction = round(sumP*100, 0)
	s.CumulativeArea = round(sumA*100, 0)
	s.CumulativeWithin = round(sumW*100, 0)
	s.CumulativeMix = round(sumM*100, 0)
	return s
}

// AreaMultiplier names a growth ratio: 3 → "tripled", 10 → "decupled".
// Anything under 3 reads "doubled".
func AreaMultiplier(ratio float64) string {
	words := []struct {
		min  float64
		word string
	}{
		{10, "decupled"},
		{9, "nonupled"},
		{8, "octupled"},
		{7, "septupled"},
		{6, "sextupled"},
		{5, "quintupled"},
		{4, "quadrupled"},
		{3, "tripled"},
	}
	for _, w := range words {
		if ratio >= w.min {
			return w.word
		}
	}
	return "doubled"
}

// endpoints returns the observations at the earliest and latest years.
func endpoints(series []models.YearValue) (first, last models.YearValue, ok bool) {
	if len(series) == 0 {
		return first, last, false
	}
	first, last = series[0], series[0]
	for _, v := range series {
		if v.Year < first.Year {
			first = v
		}
		if v.Year > last.Year {
			last = v
		}
	}
	return first, last, true
}

// round rounds the exact binary value to the given number of decimals,
// breaking exact ties to even.
func round(v float64, digits int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}
