package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/canviz/canadaindata/internal/analysis/grain"
	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// DefaultCumulativeConfig is the layout of the decomposition chart.
func DefaultCumulativeConfig() Config {
	return Config{
		Width:  960,
		Height: 500,
		Margin: Margin{Top: 60, Right: 20, Bottom: 50, Left: 80},
	}
}

// Mini-window layout, relative to the plot area.
const (
	miniX       = 10
	miniY       = 15
	miniWidth   = 120
	miniHeight  = 185
	miniPadding = 10

	miniChartX      = 70
	miniChartY      = 35
	miniChartWidth  = 40
	miniChartHeight = 110

	miniLabelStartY  = miniChartY + 15
	miniLabelSpacing = 32

	// Break labels within this many years of the hovered year are hidden.
	cumulativeXProximity = 10
)

var shortComponentNames = map[string]string{
	models.ComponentArea:   "Area",
	models.ComponentWithin: "Yield",
	models.ComponentMix:    "Mix",
}

// CumulativeChart draws the chained shift-share decomposition: one short
// vertical bar per component per year, joined within a year by component
// connectors and across years by connecting segments.
type CumulativeChart struct {
	Dec     *models.Decomposition
	Config  Config
	X, Y    Linear
	windows map[int]grain.YearWindow
}

// NewCumulativeChart pads the x domain by a year on each side and the y
// domain by 5% of the cumulative extent, always including zero.
func NewCumulativeChart(dec *models.Decomposition, cfg Config) *CumulativeChart {
	if cfg.Width == 0 {
		cfg = DefaultCumulativeConfig()
	}
	c := &CumulativeChart{Dec: dec, Config: cfg, windows: make(map[int]grain.YearWindow)}
	if len(dec.CumulativeData) == 0 {
		return c
	}
	for _, w := range grain.Windows(dec) {
		c.windows[w.Year] = w
	}

	first := dec.CumulativeData[0]
	xlo, xhi := first.XPosition, first.XPosition
	ylo, yhi := first.CumulativeStart, first.CumulativeStart
	for _, b := range dec.CumulativeData {
		xlo, xhi = math.Min(xlo, b.XPosition), math.Max(xhi, b.XPosition)
		ylo = math.Min(ylo, math.Min(b.CumulativeStart, b.CumulativeEnd))
		yhi = math.Max(yhi, math.Max(b.CumulativeStart, b.CumulativeEnd))
	}
	pad := (yhi - ylo) * 0.05
	c.X = NewLinear(xlo-1, xhi+1, 0, cfg.innerWidth())
	c.Y = NewLinear(math.Min(ylo-pad, 0), yhi+pad, cfg.innerHeight(), 0)
	return c
}

// MiniBar is one bar of the mini-window chart in mini-chart pixels.
type MiniBar struct {
	Component string  `json:"component"`
	X         float64 `json:"x"`
	Y1        float64 `json:"y1"`
	Y2        float64 `json:"y2"`
	Label     string  `json:"label"`
}

// MiniWindow is everything the hover overlay shows for one year.
type MiniWindow struct {
	Year        int       `json:"year"`
	RibbonX     float64   `json:"ribbonX"`
	RibbonWidth float64   `json:"ribbonWidth"`
	YearX       float64   `json:"yearX"`
	ZeroY       float64   `json:"zeroY"`
	Bars        []MiniBar `json:"bars"`
	Connectors  []float64 `json:"connectors"`
	Net         string    `json:"net"`
	Cumulative  string    `json:"cumulative"`
	HiddenTicks []int     `json:"hiddenTicks"`
}

// Window returns the hover overlay for year, or false when the year has
// no bars.
func (c *CumulativeChart) Window(year int) (MiniWindow, bool) {
	w, ok := c.windows[year]
	if !ok {
		return MiniWindow{}, false
	}
	bars := make(map[string]models.CumulativeBar, 3)
	for _, b := range c.Dec.CumulativeData {
		if b.Year == year {
			bars[b.Component] = b
		}
	}

	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, math.Min(b.CumulativeStart, b.CumulativeEnd))
		hi = math.Max(hi, math.Max(b.CumulativeStart, b.CumulativeEnd))
	}
	pad := (hi - lo) * 0.1
	y := NewLinear(lo-pad, hi+pad, miniChartHeight, 0)
	spacing := miniChartWidth / 3.0

	mw := MiniWindow{
		Year:        year,
		RibbonX:     c.X.Map(float64(year) - 0.5),
		RibbonWidth: c.X.Map(float64(year)+0.5) - c.X.Map(float64(year)-0.5),
		YearX:       c.X.Map(float64(year)),
		ZeroY:       y.Map(0),
		Net:         utils.WholePct(w.Net),
		Cumulative:  utils.WholePct(w.Cumulative),
		HiddenTicks: nearbyYears(c.Dec.XAxisBreaks, year, cumulativeXProximity),
	}
	for i, comp := range models.Components {
		b := bars[comp]
		mw.Bars = append(mw.Bars, MiniBar{
			Component: comp,
			X:         (float64(i) + 0.5) * spacing,
			Y1:        y.Map(b.CumulativeStart),
			Y2:        y.Map(b.CumulativeEnd),
			Label:     utils.WholePct(b.Value),
		})
	}
	mw.Connectors = []float64{
		y.Map(bars[models.ComponentArea].CumulativeEnd),
		y.Map(bars[models.ComponentWithin].CumulativeEnd),
	}
	return mw, true
}

// yearWidth is the hover target width: the distance between the first two
// years.
func (c *CumulativeChart) yearWidth() float64 {
	years := c.Dec.UniqueYears
	if len(years) < 2 {
		return c.Config.innerWidth()
	}
	return c.X.Map(float64(years[1])) - c.X.Map(float64(years[0]))
}

// Render draws the chart. A non-zero hover year draws that year's
// mini-window visible.
func (c *CumulativeChart) Render(hover int) string {
	cfg := c.Config
	if len(c.Dec.CumulativeData) == 0 {
		return Message(cfg, MsgNoData)
	}
	w, h := cfg.innerWidth(), cfg.innerHeight()
	colours := c.Dec.Colours
	if len(colours) == 0 {
		colours = grain.ComponentColours
	}
	active, shown := c.Window(hover)

	var sb strings.Builder
	svgOpen(&sb, cfg.id("plot-cumulative"), cfg.Width, cfg.Height, ` class="cumulative-chart" preserveAspectRatio="xMidYMid meet"`)
	sb.WriteString(fmt.Sprintf(`<g transform="translate(%s,%s)">`, num(cfg.Margin.Left), num(cfg.Margin.Top)))

	ribbon := `style="opacity: 0;"`
	if shown {
		ribbon = fmt.Sprintf(`x="%s" width="%s" style="opacity: 1;"`, num(active.RibbonX), num(active.RibbonWidth))
	}
	sb.WriteString(fmt.Sprintf(`<rect class="highlight-ribbon" y="0" height="%s" %s/>`, num(h), ribbon))

	yTicks := c.Y.Ticks(6)
	for _, v := range yTicks {
		y := c.Y.Map(v)
		sb.WriteString(fmt.Sprintf(`<line class="grid-line" x1="0" x2="%s" y1="%s" y2="%s"/>`, num(w), num(y), num(y)))
	}
	zero := c.Y.Map(0)
	sb.WriteString(fmt.Sprintf(`<line class="zero-line" x1="0" x2="%s" y1="%s" y2="%s" stroke-width="0.5"/>`, num(w), num(zero), num(zero)))

	for _, s := range c.Dec.ConnectingSegments {
		y := c.Y.Map(s.YValue)
		sb.WriteString(fmt.Sprintf(`<line class="connecting-segment" x1="%s" x2="%s" y1="%s" y2="%s" stroke-width="0.5"/>`,
			num(c.X.Map(float64(s.Year)+0.4)), num(c.X.Map(float64(s.YearEnd)-0.4)), num(y), num(y)))
	}
	for _, cc := range c.Dec.ComponentConnectors {
		y := c.Y.Map(cc.YValue)
		sb.WriteString(fmt.Sprintf(`<line class="component-connector" x1="%s" x2="%s" y1="%s" y2="%s" stroke-width="0.5"/>`,
			num(c.X.Map(cc.XStart)), num(c.X.Map(cc.XEnd)), num(y), num(y)))
	}
	for _, b := range c.Dec.CumulativeData {
		x := c.X.Map(b.XPosition)
		sb.WriteString(fmt.Sprintf(`<line class="component-bar" x1="%s" x2="%s" y1="%s" y2="%s" stroke="%s" stroke-width="1.5" data-year="%d" data-component="%s"/>`,
			num(x), num(x), num(c.Y.Map(b.CumulativeStart)), num(c.Y.Map(b.CumulativeEnd)), colours[b.Component], b.Year, escapeXML(b.Component)))
	}

	st := axisStyle{tickSize: 0, padding: 8, domain: true}
	xt := yearLabels(c.Dec.XAxisBreaks, c.X.Map)
	if shown {
		for i, y := range c.Dec.XAxisBreaks {
			if abs(y-hover) <= cumulativeXProximity {
				xt[i].attrs += ` style="opacity: 0;"`
			}
		}
	}
	axisBottom(&sb, h, 0, w, xt, st)
	yearLabel := `x="0" style="font-size: 11px; opacity: 0;">`
	if shown {
		yearLabel = fmt.Sprintf(`x="%s" style="font-size: 11px; opacity: 1;">%d`, num(active.YearX), hover)
	}
	sb.WriteString(fmt.Sprintf(`<text class="hover-year-label" y="%s" dy="0.71em" text-anchor="middle" %s</text>`, num(h+9), yearLabel))

	var yt []tick
	for _, v := range yTicks {
		yt = append(yt, tick{pos: c.Y.Map(v), label: utils.AxisPct(v)})
	}
	axisLeft(&sb, 0, h, 0, yt, st)

	sb.WriteString(fmt.Sprintf(`<text class="title" x="%s" y="-35" text-anchor="middle">Cumulative Production Change Decomposition</text>`, num(w/2)))
	const legendSpacing = 200
	sb.WriteString(fmt.Sprintf(`<g class="legend" transform="translate(%s,-15)">`, num(w/2-float64(len(models.Components)*legendSpacing)/2)))
	for i, comp := range models.Components {
		sb.WriteString(fmt.Sprintf(`<g transform="translate(%d,0)"><line x1="0" x2="20" y1="0" y2="0" stroke="%s" stroke-width="2"/><text class="legend-text" x="25" y="0" dy="0.32em">%s</text></g>`,
			i*legendSpacing, colours[comp], escapeXML(comp)))
	}
	sb.WriteString("</g>")
	sb.WriteString(fmt.Sprintf(`<text class="axis-label" x="%s" y="%s" text-anchor="middle">Year</text>`, num(w/2), num(h+40)))
	sb.WriteString(fmt.Sprintf(`<text class="axis-label" transform="rotate(-90)" x="%s" y="-60" text-anchor="middle">Cumulative change from 1908</text>`, num(-h/2)))

	c.renderMiniWindow(&sb, active, shown, colours)

	yw := c.yearWidth()
	for _, year := range c.Dec.UniqueYears {
		mw, _ := c.Window(year)
		sb.WriteString(fmt.Sprintf(`<rect class="hover-rect" x="%s" y="0" width="%s" height="%s" fill="transparent" style="cursor: crosshair;" data-year="%d" data-window='%s'/>`,
			num(c.X.Map(float64(year))-yw/2), num(yw), num(h), year, dataJSON(mw)))
	}

	sb.WriteString("</g></svg>")
	return sb.String()
}

func (c *CumulativeChart) renderMiniWindow(sb *strings.Builder, mw MiniWindow, shown bool, colours map[string]string) {
	opacity := "0"
	if shown {
		opacity = "1"
	}
	sb.WriteString(fmt.Sprintf(`<g class="mini-window" transform="translate(%d,%d)" style="opacity: %s;">`, miniX, miniY, opacity))
	sb.WriteString(fmt.Sprintf(`<rect class="mini-window-bg" width="%d" height="%d" rx="4" ry="4"/>`, miniWidth, miniHeight))
	title := ""
	if shown {
		title = fmt.Sprint(mw.Year)
	}
	sb.WriteString(fmt.Sprintf(`<text class="mini-window-title" x="%d" y="20" text-anchor="middle">%s</text>`, miniWidth/2, title))

	sb.WriteString(fmt.Sprintf(`<g transform="translate(%d,%d)">`, miniChartX, miniChartY))
	sb.WriteString(fmt.Sprintf(`<line class="mini-zero-line" x1="0" x2="%d" y1="%s" y2="%s" stroke-width="0.5"/>`, miniChartWidth, num(mw.ZeroY), num(mw.ZeroY)))
	spacing := miniChartWidth / 3.0
	for i, comp := range models.Components {
		var b MiniBar
		if i < len(mw.Bars) {
			b = mw.Bars[i]
		}
		x := (float64(i) + 0.5) * spacing
		sb.WriteString(fmt.Sprintf(`<line class="mini-bar" x1="%s" x2="%s" y1="%s" y2="%s" stroke="%s" stroke-width="4"/>`,
			num(x), num(x), num(b.Y1), num(b.Y2), colours[comp]))
	}
	for i := 0; i < 2; i++ {
		var y float64
		if i < len(mw.Connectors) {
			y = mw.Connectors[i]
		}
		sb.WriteString(fmt.Sprintf(`<line class="mini-connector" x1="%s" x2="%s" y1="%s" y2="%s" stroke-width="0.5"/>`,
			num((float64(i)+0.5)*spacing), num((float64(i)+1.5)*spacing), num(y), num(y)))
	}
	sb.WriteString("</g>")

	for i, comp := range models.Components {
		label := ""
		if i < len(mw.Bars) {
			label = mw.Bars[i].Label
		}
		sb.WriteString(fmt.Sprintf(`<g transform="translate(%d,%d)"><rect width="8" height="8" y="-4" fill="%s"/><text class="mini-window-label" x="12" dy="0.32em">%s</text><text class="mini-window-value" x="12" y="12" dy="0.32em">%s</text></g>`,
			miniPadding, miniLabelStartY+i*miniLabelSpacing, colours[comp], shortComponentNames[comp], label))
	}
	sb.WriteString(fmt.Sprintf(`<g transform="translate(%d,%d)"><text class="mini-window-label" dy="0.32em" style="font-weight: bold;">Year Net:</text><text class="mini-window-value mini-net" x="55" dy="0.32em" style="font-weight: bold;">%s</text></g>`,
		miniPadding, miniLabelStartY+3*miniLabelSpacing, mw.Net))
	sb.WriteString(fmt.Sprintf(`<g transform="translate(%d,%s)"><text class="mini-window-label" dy="0.32em" style="font-weight: bold;">Cumulative:</text><text class="mini-window-value mini-cumulative" x="70" dy="0.32em" style="font-weight: bold;">%s</text></g>`,
		miniPadding, num(miniLabelStartY+3.8*miniLabelSpacing), mw.Cumulative))
	sb.WriteString("</g>")
}
