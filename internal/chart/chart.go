// Package chart renders the Canada in Data charts as standalone SVG.
//
// Every chart follows the same pipeline: validated series in, scales
// bound to the plot area, SVG elements out. Interactive charts also emit
// precomputed data-* attributes that web/static/app.js reads to update
// the view on hover, click or year selection.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Margin is the space between the SVG edge and the plot area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Config holds rendering parameters shared by every chart.
type Config struct {
	Width     float64
	Height    float64
	Margin    Margin
	TextColor string // axis label colour
	LineColor string // axis and tick colour
	FontSize  int    // axis label font size in px
	ID        string // element id; generated when empty
}

// innerWidth returns the plot area width.
func (c Config) innerWidth() float64 { return c.Width - c.Margin.Left - c.Margin.Right }

// innerHeight returns the plot area height.
func (c Config) innerHeight() float64 { return c.Height - c.Margin.Top - c.Margin.Bottom }

func (c Config) id(prefix string) string {
	if c.ID != "" {
		return c.ID
	}
	return newID(prefix)
}

// newID returns a unique element id such as "cpi-1b4e28ba".
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

// svgOpen writes the root element with a viewBox so the chart scales to
// its container.
func svgOpen(sb *strings.Builder, id string, width, height float64, attrs string) {
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" id="%s" width="%s" height="%s" viewBox="0 0 %s %s" style="max-width: 100%%; height: auto;" font-family="sans-serif"%s>`,
		id, num(width), num(height), num(width), num(height), attrs))
}

// Message renders a chart-sized SVG holding a single status line, used
// for "No data available." and load failures.
func Message(cfg Config, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	var sb strings.Builder
	svgOpen(&sb, cfg.id("chart"), cfg.Width, cfg.Height, ` role="img"`)
	sb.WriteString(fmt.Sprintf(`<g transform="translate(%s,%s)"><text class="chart-message" x="0" y="16" fill="currentColor">%s</text></g>`,
		num(cfg.Margin.Left), num(cfg.Margin.Top), escapeXML(msg)))
	sb.WriteString("</svg>")
	return sb.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// pathD builds an SVG polyline path from coordinate pairs.
func pathD(xs, ys []float64) string {
	var sb strings.Builder
	for i := range xs {
		if i == 0 {
			sb.WriteByte('M')
		} else {
			sb.WriteByte('L')
		}
		sb.WriteString(num(xs[i]))
		sb.WriteByte(',')
		sb.WriteString(num(ys[i]))
	}
	return sb.String()
}

// dataJSON encodes v for use inside a single-quoted attribute.
func dataJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return strings.ReplaceAll(string(b), "'", "&#39;")
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

// ════════════════════════════════════════════════════════════════════
// Axes
// ════════════════════════════════════════════════════════════════════

// tick is one axis tick at a pixel offset along the axis.
type tick struct {
	pos   float64
	label string
	attrs string // extra attributes on the tick's <g>
}

// axisStyle controls how an axis is drawn.
type axisStyle struct {
	class     string
	tickSize  float64
	padding   float64
	domain    bool // draw the domain path
	textColor string
	lineColor string
	fontSize  string
}

var defaultAxis = axisStyle{tickSize: 6, padding: 3, domain: true}

// axisBottom draws a horizontal axis translated to y.
func axisBottom(sb *strings.Builder, y, r0, r1 float64, ticks []tick, st axisStyle) {
	sb.WriteString(fmt.Sprintf(`<g class="%s" transform="translate(0,%s)" fill="none" text-anchor="middle">`,
		strings.TrimSpace("axis x-axis "+st.class), num(y)))
	if st.domain {
		sb.WriteString(fmt.Sprintf(`<path class="domain"%s d="M%s,%sV0H%sV%s"/>`,
			strokeAttr(st.lineColor), num(r0), num(st.tickSize), num(r1), num(st.tickSize)))
	}
	for _, t := range ticks {
		sb.WriteString(fmt.Sprintf(`<g class="tick" transform="translate(%s,0)"%s>`, num(t.pos), t.attrs))
		if st.tickSize > 0 {
			sb.WriteString(fmt.Sprintf(`<line%s y2="%s"/>`, strokeAttr(st.lineColor), num(st.tickSize)))
		}
		sb.WriteString(fmt.Sprintf(`<text%s%s y="%s" dy="0.71em">%s</text></g>`,
			fillAttr(st.textColor), fontAttr(st.fontSize), num(math.Max(st.tickSize, 0)+st.padding), escapeXML(t.label)))
	}
	sb.WriteString("</g>")
}

// axisLeft draws a vertical axis translated to x.
func axisLeft(sb *strings.Builder, x, r0, r1 float64, ticks []tick, st axisStyle) {
	sb.WriteString(fmt.Sprintf(`<g class="%s" transform="translate(%s,0)" fill="none" text-anchor="end">`,
		strings.TrimSpace("axis y-axis "+st.class), num(x)))
	if st.domain {
		sb.WriteString(fmt.Sprintf(`<path class="domain"%s d="M-%s,%sH0V%sH-%s"/>`,
			strokeAttr(st.lineColor), num(st.tickSize), num(r0), num(r1), num(st.tickSize)))
	}
	for _, t := range ticks {
		sb.WriteString(fmt.Sprintf(`<g class="tick" transform="translate(0,%s)"%s>`, num(t.pos), t.attrs))
		if st.tickSize > 0 {
			sb.WriteString(fmt.Sprintf(`<line%s x2="-%s"/>`, strokeAttr(st.lineColor), num(st.tickSize)))
		}
		sb.WriteString(fmt.Sprintf(`<text%s%s x="-%s" dy="0.32em">%s</text></g>`,
			fillAttr(st.textColor), fontAttr(st.fontSize), num(math.Max(st.tickSize, 0)+st.padding), escapeXML(t.label)))
	}
	sb.WriteString("</g>")
}

func strokeAttr(c string) string {
	if c == "" {
		return ` stroke="currentColor"`
	}
	return ` stroke="` + c + `"`
}

func fillAttr(c string) string {
	if c == "" {
		return ` fill="currentColor"`
	}
	return ` fill="` + c + `"`
}

func fontAttr(size string) string {
	if size == "" {
		return ""
	}
	return ` font-size="` + size + `"`
}

// yearLabels formats integer years as plain strings (no separators).
func yearLabels(years []int, pos func(float64) float64) []tick {
	out := make([]tick, len(years))
	for i, y := range years {
		out[i] = tick{pos: pos(float64(y)), label: strconv.Itoa(y), attrs: fmt.Sprintf(` data-year="%d"`, y)}
	}
	return out
}
