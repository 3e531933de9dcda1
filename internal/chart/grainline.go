package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// Caption credits the grain data source on every grain chart.
const Caption = "Data from Statistics Canada, Table 32-10-0359"

// DefaultGrainLineConfig is the layout of the production and area charts.
func DefaultGrainLineConfig() Config {
	return Config{
		Width:  960,
		Height: 576,
		Margin: Margin{Top: 40, Right: 20, Bottom: 50, Left: 80},
	}
}

// xLabelProximity hides break labels this many years from a hovered year.
const xLabelProximity = 4

// GrainLineChart is an annual series drawn as a thin line with a point
// per year.
type GrainLineChart struct {
	Series *models.GrainSeries
	Title  string
	YLabel string
	Config Config
	X, Y   Linear
}

// NewGrainLineChart binds a series to its scales: x over the year extent,
// y from zero to the nice maximum.
func NewGrainLineChart(s *models.GrainSeries, title, yLabel string, cfg Config) *GrainLineChart {
	if cfg.Width == 0 {
		cfg = DefaultGrainLineConfig()
	}
	c := &GrainLineChart{Series: s, Title: title, YLabel: yLabel, Config: cfg}
	w, h := cfg.innerWidth(), cfg.innerHeight()
	if len(s.Data) == 0 {
		return c
	}
	lo, hi, top := s.Data[0].Year, s.Data[0].Year, 0.0
	for _, d := range s.Data {
		lo, hi = min(lo, d.Year), max(hi, d.Year)
		top = math.Max(top, d.Value)
	}
	c.X = NewLinear(float64(lo), float64(hi), 0, w)
	c.Y = NewLinear(0, top, h, 0).Nice(10)
	return c
}

// HoverPoint is the hover state for one year.
type HoverPoint struct {
	Year        int     `json:"year"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Label       string  `json:"label"`
	HiddenTicks []int   `json:"hiddenTicks"`
}

// Hover returns the hover state for year, or false when the series has no
// point there.
func (c *GrainLineChart) Hover(year int) (HoverPoint, bool) {
	for _, d := range c.Series.Data {
		if d.Year != year {
			continue
		}
		return HoverPoint{
			Year:        year,
			X:           c.X.Map(float64(year)),
			Y:           c.Y.Map(d.Value),
			Label:       utils.LabelClean(d.Value),
			HiddenTicks: nearbyYears(c.Series.XAxisBreaks, year, xLabelProximity),
		}, true
	}
	return HoverPoint{}, false
}

// nearbyYears returns the breaks within distance of year.
func nearbyYears(breaks []int, year, distance int) []int {
	out := []int{}
	for _, b := range breaks {
		if abs(b-year) <= distance {
			out = append(out, b)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Render draws the chart with invisible hover targets reaching from each
// point down to the x axis.
func (c *GrainLineChart) Render() string {
	cfg := c.Config
	if len(c.Series.Data) == 0 {
		return Message(cfg, MsgNoData)
	}
	w, h := cfg.innerWidth(), cfg.innerHeight()
	id := cfg.id("grain")

	var sb strings.Builder
	svgOpen(&sb, id, cfg.Width, cfg.Height, ` class="grain-line-chart" preserveAspectRatio="xMidYMid meet"`)
	sb.WriteString(fmt.Sprintf(`<g transform="translate(%s,%s)">`, num(cfg.Margin.Left), num(cfg.Margin.Top)))

	sb.WriteString(`<line class="hover-line" x1="0" x2="0" y1="0" y2="0" style="opacity: 0;"/>`)
	for _, b := range c.Series.XAxisBreaks {
		x := c.X.Map(float64(b))
		sb.WriteString(fmt.Sprintf(`<line class="grid-line" x1="%s" x2="%s" y1="0" y2="%s"/>`, num(x), num(x), num(h)))
	}
	yTicks := c.Y.Ticks(5)
	for _, v := range yTicks {
		y := c.Y.Map(v)
		sb.WriteString(fmt.Sprintf(`<line class="grid-line" x1="0" x2="%s" y1="%s" y2="%s"/>`, num(w), num(y), num(y)))
	}

	xs := make([]float64, len(c.Series.Data))
	ys := make([]float64, len(c.Series.Data))
	for i, d := range c.Series.Data {
		xs[i], ys[i] = c.X.Map(float64(d.Year)), c.Y.Map(d.Value)
	}
	sb.WriteString(fmt.Sprintf(`<path class="line" d="%s"/>`, pathD(xs, ys)))

	for i, d := range c.Series.Data {
		hp, _ := c.Hover(d.Year)
		sb.WriteString(fmt.Sprintf(`<rect class="hover-rect" x="%s" y="%s" width="20" height="%s" style="fill: transparent; cursor: pointer;" data-hover='%s'/>`,
			num(xs[i]-10), num(ys[i]), num(h-ys[i]), dataJSON(hp)))
	}
	for i := range c.Series.Data {
		sb.WriteString(fmt.Sprintf(`<circle class="point" cx="%s" cy="%s" r="1.5"/>`, num(xs[i]), num(ys[i])))
	}

	st := axisStyle{tickSize: 0, padding: 8, domain: true}
	axisBottom(&sb, h, 0, w, yearLabels(c.Series.XAxisBreaks, c.X.Map), st)
	sb.WriteString(fmt.Sprintf(`<text class="hover-year-label" x="0" y="%s" dy="0.71em" text-anchor="middle" style="font-size: 11px; opacity: 0;"></text>`, num(h+8)))

	var yt []tick
	for _, v := range yTicks {
		yt = append(yt, tick{pos: c.Y.Map(v), label: utils.LabelClean(v)})
	}
	axisLeft(&sb, 0, h, 0, yt, st)

	sb.WriteString(fmt.Sprintf(`<text class="title" x="0" y="-20" text-anchor="start">%s</text>`, escapeXML(c.Title)))
	sb.WriteString(fmt.Sprintf(`<text class="axis-label" x="%s" y="%s" text-anchor="middle">Year</text>`, num(w/2), num(h+40)))
	sb.WriteString(fmt.Sprintf(`<text class="axis-label" transform="rotate(-90)" x="%s" y="-50" text-anchor="middle">%s</text>`, num(-h/2), escapeXML(c.YLabel)))
	sb.WriteString(fmt.Sprintf(`<text class="caption" x="%s" y="%s" text-anchor="end">%s</text>`, num(w), num(h+40), Caption))

	sb.WriteString("</g></svg>")
	return sb.String()
}
