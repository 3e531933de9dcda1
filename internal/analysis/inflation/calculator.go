package inflation

import (
	"math"
	"sort"

	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// DefaultRange is used when the subcategory file carries no date range.
var DefaultRange = models.DateRange{Start: "2015-01", End: "2025-11"}

// Calculator computes weighted contributions for any period inside the
// data range.
type Calculator struct {
	hierarchy []Category
	series    map[string]map[string]float64 // category → month → index
	weights   map[string]float64            // StatCan name → percent
	dataRange models.DateRange
}

// NewCalculator indexes the subcategory series and weights. A nil
// hierarchy uses DefaultHierarchy.
func NewCalculator(subs *models.Subcategories, weights *models.BasketWeights, hierarchy []Category) (*Calculator, error) {
	if hierarchy == nil {
		h, err := DefaultHierarchy()
		if err != nil {
			return nil, err
		}
		hierarchy = h
	}

	c := &Calculator{
		hierarchy: hierarchy,
		series:    make(map[string]map[string]float64),
		weights:   map[string]float64{},
		dataRange: DefaultRange,
	}
	if subs != nil {
		for _, s := range subs.Series {
			// First series wins for duplicated categories.
			if _, dup := c.series[s.Category]; dup {
				continue
			}
			m := make(map[string]float64, len(s.Data))
			for _, p := range s.Data {
				if _, seen := m[p.Date]; !seen {
					m[p.Date] = p.Value
				}
			}
			c.series[s.Category] = m
		}
		if subs.DateRange != nil && subs.DateRange.Start != "" && subs.DateRange.End != "" {
			c.dataRange = *subs.DateRange
		}
	}
	if weights != nil && weights.AllWeightsPct != nil {
		c.weights = weights.AllWeightsPct
	}
	return c, nil
}

// DataRange returns the months covered by the data.
func (c *Calculator) DataRange() models.DateRange { return c.dataRange }

// Hierarchy returns the category tree in use.
func (c *Calculator) Hierarchy() []Category { return c.hierarchy }

// weight returns the basket share (0..1) for a category, or 0.
func (c *Calculator) weight(cat Category) float64 {
	pct := c.weights[cat.StatCan]
	if pct == 0 || math.IsNaN(pct) {
		return 0
	}
	return pct / 100
}

// Calculate builds the contribution tree for start..end (YYYY-MM).
// Top-level categories without weight are dropped; the total is the sum
// of top-level contributions.
func (c *Calculator) Calculate(start, end string) *models.ContributionResult {
	res := &models.ContributionResult{
		StartDate:     start,
		EndDate:       end,
		Contributions: []*models.HierarchyNode{},
	}

	total := 0.0
	for _, cat := range c.hierarchy {
		node := c.buildNode(cat, start, end)
		if node.Weight > 0 {
			res.Contributions = append(res.Contributions, node)
			total += node.ContributionValue()
		}
	}
	sortByContribution(res.Contributions)

	res.TotalOverallInflation = total
	res.TotalContribution = total
	return res
}

func (c *Calculator) buildNode(cat Category, start, end string) *models.HierarchyNode {
	node := &models.HierarchyNode{
		Name:   cat.Name,
		Weight: c.weight(cat),
	}

	if s, ok := c.series[cat.Name]; ok {
		sv, ev := s[start], s[end]
		if sv != 0 && ev != 0 {
			pct := (ev/sv - 1) * 100
			contrib := node.Weight * pct
			node.PercentageChange = &pct
			node.Contribution = &contrib
		}
	}

	if len(cat.Children) > 0 {
		for _, child := range cat.Children {
			cn := c.buildNode(child, start, end)
			if cn.Weight > 0 || len(cn.Children) > 0 {
				node.Children = append(node.Children, cn)
			}
		}
		sortByContribution(node.Children)
	}
	return node
}

// sortByContribution orders nodes by absolute contribution, largest first.
// Missing contributions count as zero; ties keep hierarchy order.
func sortByContribution(nodes []*models.HierarchyNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return math.Abs(nodes[i].ContributionValue()) > math.Abs(nodes[j].ContributionValue())
	})
}

// TableNode is a weighted category with its index for every month of
// Table.Months. Zero marks a missing month.
type TableNode struct {
	Name     string       `json:"name"`
	Weight   float64      `json:"weight"`
	Values   []float64    `json:"values,omitempty"`
	Children []*TableNode `json:"children,omitempty"`
}

// Table is the calculator input for the whole data range, pruned the
// same way as Calculate. A client holding it can compute any period.
type Table struct {
	DataRange models.DateRange `json:"dataRange"`
	Months    []string         `json:"months"`
	Nodes     []*TableNode     `json:"nodes"`
}

// Table exports the weights and aligned series in hierarchy order.
func (c *Calculator) Table() *Table {
	t := &Table{DataRange: c.dataRange, Months: monthRange(c.dataRange), Nodes: []*TableNode{}}
	for _, cat := range c.hierarchy {
		if n := c.tableNode(cat, t.Months); n.Weight > 0 {
			t.Nodes = append(t.Nodes, n)
		}
	}
	return t
}

func (c *Calculator) tableNode(cat Category, months []string) *TableNode {
	n := &TableNode{Name: cat.Name, Weight: c.weight(cat)}
	if s, ok := c.series[cat.Name]; ok {
		n.Values = make([]float64, len(months))
		for i, m := range months {
			n.Values[i] = s[m]
		}
	}
	for _, child := range cat.Children {
		if cn := c.tableNode(child, months); cn.Weight > 0 || len(cn.Children) > 0 {
			n.Children = append(n.Children, cn)
		}
	}
	return n
}

// monthRange lists every YYYY-MM month from r.Start to r.End inclusive.
func monthRange(r models.DateRange) []string {
	start, err1 := utils.ParseMonth(r.Start)
	end, err2 := utils.ParseMonth(r.End)
	if err1 != nil || err2 != nil || end.Before(start) {
		return []string{}
	}
	months := make([]string, 0, utils.MonthsBetween(start, end)+1)
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, utils.FormatMonth(m))
	}
	return months
}
