package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/canviz/canadaindata/internal/analysis/inflation"
	"github.com/canviz/canadaindata/pkg/utils"
)

// DefaultOverviewConfig is the layout of the category CPI chart. The SVG
// is LabelSpace wider than Width to fit the end-of-line labels.
func DefaultOverviewConfig() Config {
	return Config{
		Width:     928,
		Height:    520,
		Margin:    Margin{Top: 20, Right: 120, Bottom: 30, Left: 50},
		TextColor: "#7A7A7A",
		LineColor: "rgba(26,26,26,0.08)",
		FontSize:  11,
	}
}

// LabelSpace is the extra width reserved right of the plot for labels.
const LabelSpace = 80

// Frame is the state of the overview chart with the reference month at
// one position: every series divided by its value at that month.
type Frame struct {
	Date       string    `json:"date"` // YYYY-MM
	X          float64   `json:"x"`    // rule position
	Subtitle   string    `json:"subtitle"`
	Annotation string    `json:"annotation"`
	Offsets    []float64 `json:"offsets"` // per-line vertical translate
}

// OverviewChart is a laid-out category chart with one frame per month.
type OverviewChart struct {
	Overview *inflation.Overview
	Config   Config
	X        Time
	Y        Log
	Frames   []Frame
}

// NewOverviewChart binds the overview to scales and precomputes a frame
// for every month in the data.
func NewOverviewChart(ov *inflation.Overview, cfg Config) *OverviewChart {
	if cfg.Width == 0 {
		cfg = DefaultOverviewConfig()
	}
	c := &OverviewChart{
		Overview: ov,
		Config:   cfg,
		X:        Time{D0: ov.Start, D1: ov.End, R0: cfg.Margin.Left, R1: cfg.Width - cfg.Margin.Right},
		Y:        Log{D0: 1 / ov.K, D1: ov.K, R0: cfg.Height - cfg.Margin.Bottom, R1: cfg.Margin.Top},
	}
	for _, m := range ov.Months() {
		c.Frames = append(c.Frames, c.frameAt(m))
	}
	return c
}

func (c *OverviewChart) frameAt(m time.Time) Frame {
	f := Frame{
		Date:       utils.FormatMonth(m),
		X:          c.X.Map(m) + 0.5,
		Subtitle:   inflation.Subtitle(m),
		Annotation: c.Overview.Annotation(m),
		Offsets:    make([]float64, len(c.Overview.Lines)),
	}
	one := c.Y.Map(1)
	for i, l := range c.Overview.Lines {
		idx := l.IndexAt(m)
		f.Offsets[i] = one - c.Y.Map(l.Normalised[idx]/l.Normalised[0])
	}
	return f
}

// FrameAt returns the frame nearest to pixel x, the way hovering snaps to
// the closest month.
func (c *OverviewChart) FrameAt(x float64) Frame {
	best, dist := 0, math.Inf(1)
	for i, f := range c.Frames {
		if d := math.Abs(f.X - x); d < dist {
			best, dist = i, d
		}
	}
	return c.Frames[best]
}

// Render draws the chart in its initial state, re-indexed at the first
// month, which is also the state restored when the pointer leaves.
func (c *OverviewChart) Render() string {
	cfg := c.Config
	if len(c.Frames) == 0 {
		return Message(cfg, MsgNoData)
	}
	svgWidth := cfg.Width + LabelSpace
	initial := c.Frames[0]

	var sb strings.Builder
	svgOpen(&sb, cfg.id("cpi-chart"), svgWidth, cfg.Height,
		fmt.Sprintf(` class="overview-chart" preserveAspectRatio="xMidYMid meet" data-frames='%s'`, dataJSON(c.Frames)))

	st := axisStyle{tickSize: 6, padding: 3, domain: true, textColor: cfg.TextColor, lineColor: cfg.LineColor, fontSize: "11px"}

	var xt []tick
	for _, t := range c.X.Ticks(int(cfg.Width / 80)) {
		xt = append(xt, tick{pos: c.X.Map(t), label: TimeLabel(t)})
	}
	axisBottom(&sb, cfg.Height-cfg.Margin.Bottom, c.X.R0, c.X.R1, xt, st)

	// Log axis with full-width grid lines; the line at 1× is stronger.
	sb.WriteString(fmt.Sprintf(`<g class="axis y-axis" transform="translate(%s,0)" fill="none" text-anchor="end">`, num(cfg.Margin.Left)))
	gridW := cfg.Width - cfg.Margin.Left - cfg.Margin.Right
	for _, v := range c.Y.Ticks(10) {
		opacity := "0.15"
		if v == 1 {
			opacity = "0.4"
		}
		sb.WriteString(fmt.Sprintf(`<g class="tick" transform="translate(0,%s)"><line stroke="%s" x2="-6"/><line stroke="%s" stroke-opacity="%s" x2="%s"/><text fill="%s" font-size="11px" x="-9" dy="0.32em">%s</text></g>`,
			num(c.Y.Map(v)), cfg.LineColor, cfg.LineColor, opacity, num(gridW), cfg.TextColor, utils.Multiplier(v)))
	}
	sb.WriteString("</g>")

	sb.WriteString(fmt.Sprintf(`<g><line class="rule" y1="%s" y2="0" stroke="#1A1A1A" stroke-opacity="0.3" stroke-dasharray="3,3" transform="translate(%s,0)"/></g>`,
		num(cfg.Height), num(initial.X)))

	pad := 10.0
	sb.WriteString(fmt.Sprintf(`<g class="annotation-group"><rect class="annotation-bg" rx="4" x="10" y="%s" fill="#fff" stroke="#C41E3A" stroke-width="1"/><text class="annotation-text" x="%s" y="%s" fill="#1A1A1A" font-size="12px" font-weight="500">%s</text></g>`,
		num(cfg.Margin.Top+10), num(10+pad), num(cfg.Margin.Top+10+pad+12), escapeXML(initial.Annotation)))

	sb.WriteString(`<g class="series" style="font: bold 10px sans-serif;">`)
	for i, l := range c.Overview.Lines {
		xs := make([]float64, len(l.Dates))
		ys := make([]float64, len(l.Dates))
		for j := range l.Dates {
			xs[j], ys[j] = c.X.Map(l.Dates[j]), c.Y.Map(l.Normalised[j])
		}
		sb.WriteString(fmt.Sprintf(`<g class="serie" data-index="%d" data-category="%s" transform="translate(0,%s)">`,
			i, escapeXML(l.Category), num(initial.Offsets[i])))
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke-width="2" stroke-linejoin="round" stroke-linecap="round" stroke="%s" d="%s"/>`,
			l.Colour, pathD(xs, ys)))
		sb.WriteString(fmt.Sprintf(`<text fill="%s" paint-order="stroke" stroke="#fff" stroke-width="3" x="%s" y="%s" dy="0.35em" style="font-size: 12px; font-weight: 600;">%s</text>`,
			l.Colour, num(c.X.R1+6), num(c.Y.Map(l.Last())), escapeXML(l.Category)))
		sb.WriteString("</g>")
	}
	sb.WriteString("</g>")

	sb.WriteString("</svg>")
	return sb.String()
}
