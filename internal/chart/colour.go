package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot/palette/brewer"
)

// Sequential maps a value onto a ColorBrewer ramp. The domain is mapped
// linearly onto [0,1] without clamping, then the nine-class scheme is
// sampled with a uniform B-spline through its colours.
type Sequential struct {
	Scheme string
	D0, D1 float64
	r      []float64
	g      []float64
	b      []float64
}

// NewSequential loads the nine-class scheme by name, e.g. "Reds".
func NewSequential(scheme string, d0, d1 float64) (*Sequential, error) {
	p, err := brewer.GetPalette(brewer.TypeSequential, scheme, 9)
	if err != nil {
		return nil, fmt.Errorf("chart: palette %q: %w", scheme, err)
	}
	s := &Sequential{Scheme: scheme, D0: d0, D1: d1}
	for _, c := range p.Colors() {
		r, g, b, _ := c.RGBA()
		s.r = append(s.r, float64(r>>8))
		s.g = append(s.g, float64(g>>8))
		s.b = append(s.b, float64(b>>8))
	}
	return s, nil
}

// At returns the colour for v as "rgb(r, g, b)".
func (s *Sequential) At(v float64) string {
	t := v
	if s.D1 != s.D0 {
		t = (v - s.D0) / (s.D1 - s.D0)
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", channel(basis(s.r, t)), channel(basis(s.g, t)), channel(basis(s.b, t)))
}

// basis evaluates a uniform cubic B-spline through values at t in [0,1].
// The end segments use reflected phantom points.
func basis(values []float64, t float64) float64 {
	n := len(values) - 1
	var i int
	switch {
	case t <= 0:
		t, i = 0, 0
	case t >= 1:
		t, i = 1, n-1
	default:
		i = int(math.Floor(t * float64(n)))
	}
	v1, v2 := values[i], values[i+1]
	v0 := 2*v1 - v2
	if i > 0 {
		v0 = values[i-1]
	}
	v3 := 2*v2 - v1
	if i < n-1 {
		v3 = values[i+2]
	}
	t1 := (t - float64(i)/float64(n)) * float64(n)
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 + (4-6*t2+3*t3)*v1 + (1+3*t1+3*t2-3*t3)*v2 + t3*v3) / 6
}

func channel(v float64) int {
	r := math.Round(v)
	if math.IsNaN(r) {
		return 0
	}
	return int(math.Max(0, math.Min(255, r)))
}

// categoryScheme is the ramp and domain used for one top-level CPI group.
type categoryScheme struct {
	scheme string
	d0, d1 float64
}

// RootCategory names the icicle root.
const RootCategory = "CPI Basket"

var categorySchemes = map[string]categoryScheme{
	RootCategory:             {"Greys", 0, 1},
	"Food":                   {"Reds", 0.2, 0.9},
	"Shelter":                {"Blues", 0.2, 0.9},
	"Transportation":         {"Oranges", 0.3, 0.9},
	"Household":              {"Purples", 0.2, 0.9},
	"Clothing":               {"PuRd", 0.3, 0.9},
	"Health & Care":          {"Greens", 0.2, 0.9},
	"Recreation & Education": {"YlOrBr", 0.3, 0.9},
	"Alcohol & Tobacco":      {"RdPu", 0.3, 0.9},
}

// CategoryColour returns the fill for a node at depth under the given
// top-level category. Unknown categories use the root greys.
func CategoryColour(category string, depth int) string {
	cs, ok := categorySchemes[category]
	if !ok {
		cs = categorySchemes[RootCategory]
	}
	s, err := NewSequential(cs.scheme, cs.d0, cs.d1)
	if err != nil {
		return "#999"
	}
	return s.At(0.4 + math.Min(float64(depth)/5, 1)*0.5)
}
