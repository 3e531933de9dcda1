package chart

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// DefaultIcicleConfig is the layout of the contribution icicle.
func DefaultIcicleConfig() Config {
	return Config{Width: 928, Height: 600}
}

// leafFloor stands in for leaves with no contribution so they keep a
// sliver of space.
const leafFloor = 0.001

// Cell is one node of the partitioned contribution tree. X runs down the
// chart (share of the parent), Y across it (depth bands).
type Cell struct {
	ID       string
	Name     string
	Depth    int
	Height   int // distance to the deepest leaf
	Value    float64
	X0, X1   float64
	Y0, Y1   float64
	Node     *models.HierarchyNode
	Parent   *Cell
	Children []*Cell
	Category string // top-level group, RootCategory for the root
}

// Rect is a cell's position in the current view.
type Rect struct {
	X0, X1, Y0, Y1 float64
}

// Icicle is a partitioned contribution tree ready to draw.
type Icicle struct {
	Root   *Cell
	Width  float64
	Height float64
	cells  []*Cell // breadth-first
	byID   map[string]*Cell
}

// NewIcicle partitions a contribution result. The root is "CPI Basket"
// with the total contribution; leaf sizes are |contribution| and parents
// sum their children, largest first.
func NewIcicle(res *models.ContributionResult, cfg Config) *Icicle {
	if cfg.Width == 0 {
		cfg = DefaultIcicleConfig()
	}
	total := res.TotalContribution
	rootNode := &models.HierarchyNode{
		Name:         RootCategory,
		Contribution: &total,
		Children:     res.Contributions,
	}
	ic := &Icicle{Width: cfg.Width, Height: cfg.Height, byID: make(map[string]*Cell)}
	ic.Root = ic.build(rootNode, nil, 0, "")
	ic.partition()

	ic.cells = ic.cells[:0]
	for queue := []*Cell{ic.Root}; len(queue) > 0; queue = queue[1:] {
		ic.cells = append(ic.cells, queue[0])
		queue = append(queue, queue[0].Children...)
	}
	return ic
}

func (ic *Icicle) build(n *models.HierarchyNode, parent *Cell, depth int, category string) *Cell {
	c := &Cell{ID: fmt.Sprintf("n%d", len(ic.cells)), Name: n.Name, Depth: depth, Node: n, Parent: parent, Category: category}
	switch depth {
	case 0:
		c.Category = RootCategory
	case 1:
		c.Category = n.Name
	}
	ic.cells = append(ic.cells, c)
	ic.byID[c.ID] = c

	if len(n.Children) == 0 {
		v := math.Abs(n.ContributionValue())
		if v == 0 {
			v = leafFloor
		}
		c.Value = v
		return c
	}
	for _, child := range n.Children {
		cc := ic.build(child, c, depth+1, c.Category)
		c.Children = append(c.Children, cc)
		c.Value += cc.Value
		c.Height = max(c.Height, cc.Height+1)
	}
	sort.SliceStable(c.Children, func(i, j int) bool { return c.Children[i].Value > c.Children[j].Value })
	return c
}

// partition lays the tree out over [Height] × [(treeHeight+1)·Width/3]:
// each depth gets a band Width/3 wide and children split their parent's
// extent in proportion to value.
func (ic *Icicle) partition() {
	band := ic.Width / 3
	r := ic.Root
	r.X0, r.X1, r.Y0, r.Y1 = 0, ic.Height, 0, band
	var dice func(c *Cell)
	dice = func(c *Cell) {
		if len(c.Children) == 0 {
			return
		}
		k := 0.0
		if c.Value != 0 {
			k = (c.X1 - c.X0) / c.Value
		}
		x := c.X0
		for _, ch := range c.Children {
			ch.Y0 = band * float64(ch.Depth)
			ch.Y1 = band * float64(ch.Depth+1)
			ch.X0 = x
			x += ch.Value * k
			ch.X1 = x
			dice(ch)
		}
	}
	dice(r)
}

// Cells returns every cell, breadth-first.
func (ic *Icicle) Cells() []*Cell { return ic.cells }

// Find returns the cell with the given id or name (first match), or nil.
func (ic *Icicle) Find(key string) *Cell {
	if c, ok := ic.byID[key]; ok {
		return c
	}
	for _, c := range ic.cells {
		if c.Name == key {
			return c
		}
	}
	return nil
}

// Click applies a click on p while focus is zoomed in. Leaves do nothing.
// Clicking the focused cell zooms out to its parent; the new focus may be
// nil (root view). The returned view is the cell whose extent fills the
// chart.
func (ic *Icicle) Click(focus, p *Cell) (newFocus, view *Cell) {
	if len(p.Children) == 0 {
		if focus == nil {
			return nil, ic.Root
		}
		return focus, focus
	}
	if focus == p {
		p = p.Parent
	}
	newFocus = p
	if p == nil {
		p = ic.Root
	}
	return newFocus, p
}

// Target returns where c is drawn when view fills the chart.
func (ic *Icicle) Target(c, view *Cell) Rect {
	span := view.X1 - view.X0
	if span == 0 {
		span = 1
	}
	return Rect{
		X0: (c.X0 - view.X0) / span * ic.Height,
		X1: (c.X1 - view.X0) / span * ic.Height,
		Y0: c.Y0 - view.Y0,
		Y1: c.Y1 - view.Y0,
	}
}

// RectHeight is the drawn height of a cell, leaving a one pixel gap.
func RectHeight(r Rect) float64 {
	return r.X1 - r.X0 - math.Min(1, (r.X1-r.X0)/2)
}

// LabelVisible reports whether a cell is tall enough and inside the view
// for its label to show.
func (ic *Icicle) LabelVisible(r Rect) bool {
	return r.Y1 <= ic.Width && r.Y0 >= 0 && r.X1-r.X0 > 24
}

// Colour returns the fill for a cell.
func (c *Cell) Colour() string {
	return CategoryColour(c.Category, c.Depth)
}

// SubLabel is the contribution in percentage points, e.g. "+0.42 pp",
// or "" when the cell has none.
func (c *Cell) SubLabel() string {
	if c.Node.Contribution == nil {
		return ""
	}
	return utils.SignedPP(*c.Node.Contribution, 2)
}

// Tooltip returns the hover lines after the cell name.
func (c *Cell) Tooltip() []string {
	var lines []string
	n := c.Node
	if n.Contribution != nil {
		lines = append(lines, "Contribution: "+utils.SignedPP(*n.Contribution, 3))
	}
	if n.Weight > 0 {
		lines = append(lines, "CPI Basket Weight: "+utils.ToFixed(n.Weight*100, 2)+"%")
	}
	if n.PercentageChange != nil {
		lines = append(lines, "Price Change: "+utils.SignedPct(*n.PercentageChange))
	}
	if len(c.Children) > 0 {
		lines = append(lines, "Click to drill down →")
	}
	return lines
}

// Render draws the icicle zoomed to focus (nil for the full tree). Each
// cell carries its partition extent so the client can animate zooms.
func (ic *Icicle) Render(focus *Cell, id string) string {
	view := ic.Root
	if focus != nil {
		view = focus
	}
	if id == "" {
		id = newID("food-chart")
	}
	focusID := ""
	if focus != nil {
		focusID = focus.ID
	}

	colours := make(map[string]string)
	var sb strings.Builder
	svgOpen(&sb, id, ic.Width, ic.Height, fmt.Sprintf(` class="icicle-chart" data-height="%s" data-width="%s" data-focus="%s"`,
		num(ic.Height), num(ic.Width), focusID))

	for _, c := range ic.cells {
		r := ic.Target(c, view)
		visible := ic.LabelVisible(r)
		parentID := ""
		if c.Parent != nil {
			parentID = c.Parent.ID
		}
		key := fmt.Sprintf("%s/%d", c.Category, c.Depth)
		fill, ok := colours[key]
		if !ok {
			fill = c.Colour()
			colours[key] = fill
		}
		cursor := "default"
		if len(c.Children) > 0 {
			cursor = "pointer"
		}

		sb.WriteString(fmt.Sprintf(`<g class="cell" id="%s-%s" data-id="%s" data-parent="%s" data-x0="%s" data-x1="%s" data-y0="%s" data-y1="%s" data-children="%d" data-tooltip='%s' transform="translate(%s,%s)">`,
			id, c.ID, c.ID, parentID, num(c.X0), num(c.X1), num(c.Y0), num(c.Y1), len(c.Children),
			dataJSON(append([]string{c.Name}, c.Tooltip()...)), num(r.Y0), num(r.X0)))
		sb.WriteString(fmt.Sprintf(`<rect width="%s" height="%s" fill-opacity="0.9" fill="%s" rx="3" stroke="rgba(0,0,0,0.2)" stroke-width="0.5" style="cursor: %s;"/>`,
			num(c.Y1-c.Y0-1), num(RectHeight(r)), fill, cursor))

		op, subOp := "0", "0"
		if visible {
			op, subOp = "1", "0.8"
		}
		sb.WriteString(fmt.Sprintf(`<text pointer-events="none" x="6" y="16" fill="white" fill-opacity="%s" style="user-select: none; font-size: 11px; font-weight: 500; text-shadow: 0 1px 2px rgba(0,0,0,0.5);"><tspan>%s</tspan><tspan fill-opacity="%s" x="6" y="30" style="font-size: 10px;">%s</tspan></text>`,
			op, escapeXML(c.Name), subOp, escapeXML(c.SubLabel())))
		sb.WriteString("</g>")
	}
	sb.WriteString("</svg>")
	return sb.String()
}
