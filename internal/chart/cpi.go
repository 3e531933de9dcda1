package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/canviz/canadaindata/pkg/models"
)

// Status messages shown in place of a chart.
const (
	MsgNoData    = "No data available."
	MsgLoadError = "Error loading chart data."
)

// DefaultCPIConfig is the layout of the Consumer Price Index line chart.
func DefaultCPIConfig() Config {
	return Config{
		Width:     860,
		Height:    380,
		Margin:    Margin{Top: 16, Right: 18, Bottom: 40, Left: 56},
		TextColor: "#6c757d",
		LineColor: "#e0e0e0",
		FontSize:  13,
	}
}

// CPILine renders the CPI index as a single line with the latest point
// highlighted. Points must already be validated and sorted by date.
func CPILine(points []models.Point, cfg Config) string {
	if cfg.Width == 0 {
		cfg = DefaultCPIConfig()
	}
	if len(points) == 0 {
		return Message(cfg, MsgNoData)
	}

	innerW, innerH := cfg.innerWidth(), cfg.innerHeight()

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points {
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}
	x := Time{D0: points[0].Date, D1: points[len(points)-1].Date, R0: 0, R1: innerW}
	y := NewLinear(lo, hi, innerH, 0).Nice(10)

	var sb strings.Builder
	svgOpen(&sb, cfg.id("cpi"), cfg.Width, cfg.Height, ` role="img" aria-label="Consumer Price Index line chart"`)
	sb.WriteString(fmt.Sprintf(`<g transform="translate(%s,%s)">`, num(cfg.Margin.Left), num(cfg.Margin.Top)))

	st := defaultAxis
	st.textColor, st.lineColor, st.fontSize = cfg.TextColor, cfg.LineColor, strconv.Itoa(cfg.FontSize)+"px"

	var xt []tick
	for _, t := range x.Ticks(6) {
		xt = append(xt, tick{pos: x.Map(t), label: TimeLabel(t)})
	}
	axisBottom(&sb, innerH, 0, innerW, xt, st)

	var yt []tick
	for _, v := range y.Ticks(6) {
		yt = append(yt, tick{pos: y.Map(v), label: formatTick(v)})
	}
	axisLeft(&sb, 0, innerH, 0, yt, st)

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = x.Map(p.Date), y.Map(p.Value)
	}
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="#0066cc" stroke-width="2.5" d="%s"/>`, pathD(xs, ys)))

	last := len(points) - 1
	sb.WriteString(fmt.Sprintf(`<circle cx="%s" cy="%s" r="4" fill="#ff6b35" stroke="#ffffff" stroke-width="2"/>`,
		num(xs[last]), num(ys[last])))

	sb.WriteString("</g></svg>")
	return sb.String()
}

// formatTick prints a linear tick value without trailing zeros and with
// thousands separators, e.g. 1200 → "1,200", 0.5 → "0.5".
func formatTick(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var out []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	s = string(out)
	if hasFrac {
		s += "." + frac
	}
	if neg {
		s = "−" + s
	}
	return s
}
