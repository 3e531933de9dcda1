package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/canviz/canadaindata/internal/analysis/grain"
	"github.com/canviz/canadaindata/pkg/models"
)

// Preview image size, suited to link unfurls.
const (
	PreviewWidth  = 6 * vg.Inch
	PreviewHeight = 3.15 * vg.Inch
)

// ErrNoPreviewData is returned when a preview has nothing to draw.
var ErrNoPreviewData = errors.New("chart: no data for preview")

var fontOnce sync.Once

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	fontOnce.Do(func() {
		plot.DefaultFont = font.Font{Typeface: "Liberation", Variant: "Sans"}
		plotter.DefaultFont = font.Font{Typeface: "Liberation", Variant: "Sans"}
	})
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// encodePNG renders p at preview size.
func encodePNG(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(PreviewWidth, PreviewHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write plot: %w", err)
	}
	return buf.Bytes(), nil
}

func addLine(p *plot.Plot, pts plotter.XYs, c color.Color, width vg.Length) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = c
	line.Width = width
	p.Add(line)
	return nil
}

// CPIPreview renders a CPI series as a PNG line chart.
func CPIPreview(points []models.Point, title string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoPreviewData
	}
	p := newPlot(title, "", "Index (2002=100)")
	pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		pts[i] = plotter.XY{X: float64(pt.Date.Year()) + float64(pt.Date.Month()-1)/12, Y: pt.Value}
	}
	if err := addLine(p, pts, hexColour("#0066cc"), vg.Points(1.5)); err != nil {
		return nil, err
	}
	p.X.Tick.Marker = yearTicks{}
	return encodePNG(p)
}

// GrainPreview renders an annual grain series as a PNG line chart.
func GrainPreview(s *models.GrainSeries, title, yLabel string) ([]byte, error) {
	if s == nil || len(s.Data) == 0 {
		return nil, ErrNoPreviewData
	}
	p := newPlot(title, "Year", yLabel)
	pts := make(plotter.XYs, len(s.Data))
	for i, d := range s.Data {
		pts[i] = plotter.XY{X: float64(d.Year), Y: d.Value}
	}
	if err := addLine(p, pts, hexColour("#333333"), vg.Points(1)); err != nil {
		return nil, err
	}
	p.Y.Min = 0
	p.X.Tick.Marker = yearTicks{breaks: s.XAxisBreaks}
	return encodePNG(p)
}

// DecompositionPreview renders the cumulative end of each component as
// one line per component.
func DecompositionPreview(dec *models.Decomposition) ([]byte, error) {
	if dec == nil || len(dec.CumulativeData) == 0 {
		return nil, ErrNoPreviewData
	}
	p := newPlot("Cumulative Production Change Decomposition", "Year", "Cumulative change from 1908")
	colours := dec.Colours
	if len(colours) == 0 {
		colours = grain.ComponentColours
	}
	for _, comp := range models.Components {
		var pts plotter.XYs
		for _, b := range dec.CumulativeData {
			if b.Component == comp {
				pts = append(pts, plotter.XY{X: float64(b.Year), Y: b.CumulativeEnd * 100})
			}
		}
		if len(pts) == 0 {
			continue
		}
		if err := addLine(p, pts, hexColour(colours[comp]), vg.Points(1)); err != nil {
			return nil, err
		}
		p.Legend.Add(comp, mustLine(pts, hexColour(colours[comp])))
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Tick.Marker = yearTicks{breaks: dec.XAxisBreaks}
	return encodePNG(p)
}

func mustLine(pts plotter.XYs, c color.Color) *plotter.Line {
	l, _ := plotter.NewLine(pts)
	l.Color = c
	return l
}

// yearTicks labels whole years without thousands separators. Explicit
// breaks are used when given.
type yearTicks struct {
	breaks []int
}

func (t yearTicks) Ticks(lo, hi float64) []plot.Tick {
	var out []plot.Tick
	if len(t.breaks) > 0 {
		for _, b := range t.breaks {
			out = append(out, plot.Tick{Value: float64(b), Label: strconv.Itoa(b)})
		}
		return out
	}
	for _, v := range ticks(lo, hi, 6) {
		label := ""
		if v == float64(int(v)) {
			label = strconv.Itoa(int(v))
		}
		out = append(out, plot.Tick{Value: v, Label: label})
	}
	return out
}

// hexColour parses "#rgb" or "#rrggbb"; anything else is grey.
func hexColour(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.Gray{Y: 0x99}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
