package chart

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/canviz/canadaindata/internal/analysis/grain"
	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// Crop panel layout.
const (
	panelWidth   = 250
	panelHeight  = 120
	panelGapX    = 40
	panelGapY    = 50
	yAxisWidth   = 60
	panelsTop    = 100
	panelsRight  = 20
	panelsBottom = 50
	panelsLeft   = 10

	// Hover marks hide x break labels within this many years and y tick
	// labels within this many pixels.
	panelXProximity = 10
	panelYProximity = 15
)

// Panel is one crop × measure small multiple.
type Panel struct {
	Crop      string
	Measure   string
	Colour    string
	Row, Col  int
	OriginX   float64
	OriginY   float64
	Data      []models.YearValue
	X, Y      Linear
	YTicks    []float64
	BottomRow bool
}

// PanelGrid lays out one row per crop and one column per measure. All
// panels share the global year extent so gaps in coverage stay visible.
type PanelGrid struct {
	Crops       []string
	Extent      [2]int
	XAxisBreaks []int
	Width       float64
	Height      float64
	panels      map[string]map[string]*Panel
}

// NewPanelGrid organises crop components into panels. Panels with no
// observations are omitted.
func NewPanelGrid(cc *models.CropComponents) *PanelGrid {
	g := &PanelGrid{
		Crops:       cc.Crops,
		XAxisBreaks: cc.XAxisBreaks,
		Width:       panelsLeft + yAxisWidth + 3*panelWidth + 2*panelGapX + panelsRight,
		Height:      panelsTop + float64(len(cc.Crops))*(panelHeight+panelGapY) + panelsBottom,
		panels:      make(map[string]map[string]*Panel),
	}
	if len(cc.Data) > 0 {
		g.Extent = [2]int{cc.Data[0].Year, cc.Data[0].Year}
		for _, d := range cc.Data {
			g.Extent[0] = min(g.Extent[0], d.Year)
			g.Extent[1] = max(g.Extent[1], d.Year)
		}
	}

	colours := cc.MeasureColours
	if len(colours) == 0 {
		colours = grain.MeasureColours
	}
	for row, crop := range cc.Crops {
		g.panels[crop] = make(map[string]*Panel)
		for col, measure := range models.Measures {
			var data []models.YearValue
			for _, d := range cc.Data {
				if d.Crop == crop && d.Measure == measure {
					data = append(data, models.YearValue{Year: d.Year, Value: d.Value})
				}
			}
			if len(data) == 0 {
				continue
			}
			sort.SliceStable(data, func(i, j int) bool { return data[i].Year < data[j].Year })

			top := 0.0
			for _, d := range data {
				top = math.Max(top, d.Value)
			}
			p := &Panel{
				Crop:      crop,
				Measure:   measure,
				Colour:    colours[measure],
				Row:       row,
				Col:       col,
				OriginX:   panelsLeft + yAxisWidth + float64(col)*(panelWidth+panelGapX),
				OriginY:   panelsTop + float64(row)*(panelHeight+panelGapY),
				Data:      data,
				X:         NewLinear(float64(g.Extent[0]), float64(g.Extent[1]), 0, panelWidth),
				Y:         NewLinear(0, top, panelHeight, 0).Nice(10),
				BottomRow: row == len(cc.Crops)-1,
			}
			p.YTicks = p.Y.Ticks(4)
			g.panels[crop][measure] = p
		}
	}
	return g
}

// Panel returns the panel for crop and measure, or nil.
func (g *PanelGrid) Panel(crop, measure string) *Panel {
	return g.panels[crop][measure]
}

// Mark is the hover overlay of one panel: a drop line from the x axis to
// the point, a value label and tick on the y axis and the year below.
type Mark struct {
	Crop         string    `json:"crop"`
	Measure      string    `json:"measure"`
	Visible      bool      `json:"visible"`
	Year         int       `json:"year,omitempty"`
	X            float64   `json:"x,omitempty"`
	Y            float64   `json:"y,omitempty"`
	Label        string    `json:"label,omitempty"`
	HiddenXTicks []int     `json:"hiddenXTicks,omitempty"`
	HiddenYTicks []float64 `json:"hiddenYTicks,omitempty"`
}

// MarkAt returns the mark for a panel at year; it is not visible when the
// panel has no observation that year.
func (p *Panel) MarkAt(year int, breaks []int) Mark {
	m := Mark{Crop: p.Crop, Measure: p.Measure}
	for _, d := range p.Data {
		if d.Year != year {
			continue
		}
		m.Visible = true
		m.Year = year
		m.X = p.X.Map(float64(year))
		m.Y = p.Y.Map(d.Value)
		m.Label = utils.LabelClean(d.Value)
		if p.BottomRow {
			m.HiddenXTicks = nearbyYears(breaks, year, panelXProximity)
		}
		for _, t := range p.YTicks {
			if math.Abs(m.Y-p.Y.Map(t)) <= panelYProximity {
				m.HiddenYTicks = append(m.HiddenYTicks, t)
			}
		}
		return m
	}
	return m
}

// rowMarks returns the marks of every panel in one crop row.
func (g *PanelGrid) rowMarks(crop string, year int) []Mark {
	var out []Mark
	for _, measure := range models.Measures {
		if p := g.Panel(crop, measure); p != nil {
			out = append(out, p.MarkAt(year, g.XAxisBreaks))
		}
	}
	return out
}

// allMarks returns the marks of every panel at year.
func (g *PanelGrid) allMarks(year int) []Mark {
	var out []Mark
	for _, crop := range g.Crops {
		out = append(out, g.rowMarks(crop, year)...)
	}
	return out
}

// hiddenMarks returns a hidden mark for every panel.
func (g *PanelGrid) hiddenMarks() []Mark {
	var out []Mark
	for _, crop := range g.Crops {
		for _, measure := range models.Measures {
			if g.Panel(crop, measure) != nil {
				out = append(out, Mark{Crop: crop, Measure: measure})
			}
		}
	}
	return out
}

// ClampYear limits year to the grid's extent.
func (g *PanelGrid) ClampYear(year int) int {
	return max(g.Extent[0], min(year, g.Extent[1]))
}

// Selection tracks the linked hover and year selector of a panel grid.
// Each transition returns the marks to display.
type Selection struct {
	grid     *PanelGrid
	selected int
	has      bool
}

// NewSelection starts with no year selected.
func NewSelection(g *PanelGrid) *Selection {
	return &Selection{grid: g}
}

// Selected returns the selected year, if any.
func (s *Selection) Selected() (int, bool) { return s.selected, s.has }

// SelectYear shows year, clamped to the extent, across every crop. Panels
// without that year hide their mark.
func (s *Selection) SelectYear(year int) []Mark {
	s.selected, s.has = s.grid.ClampYear(year), true
	return s.grid.allMarks(s.selected)
}

// HoverStart shows year across the measures of one crop.
func (s *Selection) HoverStart(crop string, year int) []Mark {
	return s.grid.rowMarks(crop, year)
}

// HoverEnd clears the hover; a selected year is shown again.
func (s *Selection) HoverEnd() []Mark {
	if s.has {
		return s.grid.allMarks(s.selected)
	}
	return s.grid.hiddenMarks()
}

// Clear removes the selected year.
func (s *Selection) Clear() []Mark {
	s.selected, s.has = 0, false
	return s.grid.hiddenMarks()
}

// RenderPanels draws the crop component grid. When marks is non-empty the
// matching overlays are drawn visible, as after a year selection.
func RenderPanels(g *PanelGrid, marks []Mark, id string) string {
	if len(g.Crops) == 0 || g.Extent == [2]int{} {
		return Message(Config{Width: 920, Height: 200}, MsgNoData)
	}
	if id == "" {
		id = newID("crop-components")
	}
	shown := make(map[string]Mark)
	hiddenX := make(map[int]bool)
	hiddenY := make(map[string]map[float64]bool)
	for _, m := range marks {
		if !m.Visible {
			continue
		}
		k := m.Crop + "\x00" + m.Measure
		shown[k] = m
		for _, y := range m.HiddenXTicks {
			hiddenX[y] = true
		}
		hiddenY[k] = make(map[float64]bool)
		for _, t := range m.HiddenYTicks {
			hiddenY[k][t] = true
		}
	}

	var sb strings.Builder
	svgOpen(&sb, id, g.Width, g.Height, fmt.Sprintf(` class="crop-components-chart" preserveAspectRatio="xMidYMid meet" data-extent="%d,%d"`, g.Extent[0], g.Extent[1]))

	sb.WriteString(fmt.Sprintf(`<text class="main-title" x="%d" y="25">Production Components by Crop</text>`, panelsLeft+yAxisWidth))
	sb.WriteString(fmt.Sprintf(`<text class="subtitle" x="%d" y="42">Production, seeded area, and effective yield for each major crop</text>`, panelsLeft+yAxisWidth))

	for row, crop := range g.Crops {
		rowY := panelsTop + float64(row)*(panelHeight+panelGapY)
		sb.WriteString(fmt.Sprintf(`<text class="crop-name" x="%s" y="%s" text-anchor="end" style="font-size: 11px; font-weight: bold;">%s</text>`,
			num(g.Width-panelsRight), num(rowY-20), escapeXML(crop)))

		for _, measure := range models.Measures {
			p := g.Panel(crop, measure)
			if p == nil {
				continue
			}
			k := crop + "\x00" + measure
			renderPanel(&sb, g, p, shown[k], hiddenX, hiddenY[k])
		}
	}

	sb.WriteString(fmt.Sprintf(`<text class="caption" x="%s" y="%s" text-anchor="end">%s</text>`, num(g.Width-panelsRight), num(g.Height-15), Caption))
	sb.WriteString(fmt.Sprintf(`<text class="axis-label" x="%s" y="%s" text-anchor="middle" style="font-size: 11px;">Year</text>`,
		num(panelsLeft+yAxisWidth+(3*panelWidth+2*panelGapX)/2.0), num(g.Height-15)))
	sb.WriteString("</svg>")
	return sb.String()
}

func renderPanel(sb *strings.Builder, g *PanelGrid, p *Panel, m Mark, hiddenX map[int]bool, hiddenY map[float64]bool) {
	sb.WriteString(fmt.Sprintf(`<g class="panel" data-crop="%s" data-measure="%s" transform="translate(%s,%s)">`,
		escapeXML(p.Crop), escapeXML(p.Measure), num(p.OriginX), num(p.OriginY)))

	for _, t := range p.YTicks {
		y := p.Y.Map(t)
		sb.WriteString(fmt.Sprintf(`<line class="grid-line" x1="0" x2="%d" y1="%s" y2="%s"/>`, panelWidth, num(y), num(y)))
	}
	sb.WriteString(fmt.Sprintf(`<text class="panel-title" x="0" y="-8" text-anchor="start">%s</text>`, escapeXML(p.Measure)))

	xs := make([]float64, len(p.Data))
	ys := make([]float64, len(p.Data))
	for i, d := range p.Data {
		xs[i], ys[i] = p.X.Map(float64(d.Year)), p.Y.Map(d.Value)
	}
	sb.WriteString(fmt.Sprintf(`<path class="panel-line" d="%s" style="stroke: %s;"/>`, pathD(xs, ys), p.Colour))
	for i := range p.Data {
		sb.WriteString(fmt.Sprintf(`<circle class="panel-point" cx="%s" cy="%s" r="0.8" style="fill: %s; stroke: %s;"/>`,
			num(xs[i]), num(ys[i]), p.Colour, p.Colour))
	}

	opacity := "0"
	if m.Visible {
		opacity = "1"
	}
	sb.WriteString(fmt.Sprintf(`<line class="hover-line" x1="%s" x2="%s" y1="%d" y2="%s" style="opacity: %s;"/>`,
		num(m.X), num(m.X), panelHeight, num(m.Y), opacity))

	st := axisStyle{tickSize: 0, padding: 3, domain: true}
	var yt []tick
	for _, t := range p.YTicks {
		attrs := fmt.Sprintf(` data-value="%s"`, num(t))
		if hiddenY[t] {
			attrs += ` style="opacity: 0;"`
		}
		yt = append(yt, tick{pos: p.Y.Map(t), label: utils.LabelClean(t), attrs: attrs})
	}
	axisLeft(sb, 0, panelHeight, 0, yt, st)

	if p.BottomRow {
		xt := yearLabels(g.XAxisBreaks, p.X.Map)
		for i, y := range g.XAxisBreaks {
			if hiddenX[y] {
				xt[i].attrs += ` style="opacity: 0;"`
			}
		}
		st.padding = 5
		axisBottom(sb, panelHeight, 0, panelWidth, xt, st)
	}

	year := ""
	if m.Visible {
		year = fmt.Sprint(m.Year)
	}
	sb.WriteString(fmt.Sprintf(`<text class="hover-year-label" x="%s" y="%d" dy="0.71em" text-anchor="middle" style="font-size: 9px; opacity: %s;">%s</text>`,
		num(m.X), panelHeight+5, opacity, year))
	sb.WriteString(fmt.Sprintf(`<text class="hover-value-label" x="-3" y="%s" dy="0.32em" text-anchor="end" style="font-size: 9px; opacity: %s;">%s</text>`,
		num(m.Y), opacity, escapeXML(m.Label)))
	sb.WriteString(fmt.Sprintf(`<line class="hover-y-tick" x1="-2" x2="2" y1="%s" y2="%s" stroke-width="1" style="opacity: %s;"/>`,
		num(m.Y), num(m.Y), opacity))

	for i, d := range p.Data {
		mk := p.MarkAt(d.Year, g.XAxisBreaks)
		sb.WriteString(fmt.Sprintf(`<rect class="hover-rect" x="%s" y="%s" width="10" height="%s" style="fill: transparent; cursor: pointer;" data-year="%d" data-mark='%s'/>`,
			num(xs[i]-5), num(ys[i]), num(panelHeight-ys[i]), d.Year, dataJSON(mk)))
	}
	sb.WriteString("</g>")
}
