// Package cpi summarises the monthly Consumer Price Index series.
package cpi

import (
	"errors"
	"math"
	"time"

	"github.com/canviz/canadaindata/pkg/models"
)

// ErrEmpty is returned when a series has no points.
var ErrEmpty = errors.New("cpi: empty series")

// Summary describes a series at a glance.
type Summary struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Points     int       `json:"points"`
	First      float64   `json:"first"`
	Last       float64   `json:"last"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	ChangePct  float64   `json:"changePct"`
	AnnualRate float64   `json:"annualRatePct"`
}

// Summarise computes the extent and overall change of a date-sorted series.
func Summarise(points []models.Point) (Summary, error) {
	if len(points) == 0 {
		return Summary{}, ErrEmpty
	}
	first, last := points[0], points[len(points)-1]
	s := Summary{
		Start:  first.Date,
		End:    last.Date,
		Points: len(points),
		First:  first.Value,
		Last:   last.Value,
		Min:    first.Value,
		Max:    first.Value,
	}
	for _, p := range points[1:] {
		if p.Value < s.Min {
			s.Min = p.Value
		}
		if p.Value > s.Max {
			s.Max = p.Value
		}
	}
	if first.Value != 0 {
		s.ChangePct = (last.Value - first.Value) / first.Value * 100
		s.AnnualRate = AnnualisedRate(first.Value, last.Value, monthsBetween(first.Date, last.Date)) * 100
	}
	return s, nil
}

// AnnualisedRate returns the compound yearly growth rate that takes from
// to to over the given number of months. Spans under a month return 0.
func AnnualisedRate(from, to float64, months int) float64 {
	if months <= 0 || from <= 0 || to <= 0 {
		return 0
	}
	return math.Pow(to/from, 12/float64(months)) - 1
}

// Extent returns the value range of the series.
func Extent(points []models.Point) (min, max float64) {
	for i, p := range points {
		if i == 0 || p.Value < min {
			min = p.Value
		}
		if i == 0 || p.Value > max {
			max = p.Value
		}
	}
	return min, max
}

// Rebase keeps the points from the last `years` calendar years (counted
// back from the year of the latest point) and rescales them so the first
// kept point is 100.
func Rebase(points []models.Point, years int) []models.Point {
	if len(points) == 0 {
		return nil
	}
	cutoff := points[len(points)-1].Date.Year() - years

	var kept []models.Point
	for _, p := range points {
		if p.Date.Year() >= cutoff {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 || kept[0].Value == 0 {
		return nil
	}

	base := kept[0].Value
	out := make([]models.Point, len(kept))
	for i, p := range kept {
		out[i] = models.Point{Date: p.Date, Value: p.Value / base * 100}
	}
	return out
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
