package site

import (
	"context"
	"errors"
	"html/template"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/canviz/canadaindata/internal/analysis/grain"
	"github.com/canviz/canadaindata/internal/analysis/inflation"
	"github.com/canviz/canadaindata/internal/chart"
	"github.com/canviz/canadaindata/internal/dataset"
	"github.com/canviz/canadaindata/internal/infra"
	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// Grain chart titles and axis labels.
const (
	ProductionTitle  = "Total Major Crop Production in Canada"
	ProductionYLabel = "Production (metric tonnes)"
	AreaTitle        = "Total Seeded Area for Major Crops in Canada"
	AreaYLabel       = "Seeded area (hectares)"
)

// Derived values cached between requests.
const (
	keyOverview      = "overview"
	keyCalculator    = "calculator"
	keyChanges       = "grain:changes"
	keyDecomposition = "grain:decomposition"
)

// Charts loads datasets, derives chart inputs and renders the SVGs. It is
// shared by the page builders, the JSON API and the static exporter.
// Derived values are kept per dataset value: once the store reloads a
// resource, whether on expiry or invalidation, they are recomputed.
type Charts struct {
	store   *dataset.Store
	logger  *zap.Logger
	derived *infra.Cache
}

// NewCharts creates a chart service over store.
func NewCharts(store *dataset.Store, logger *zap.Logger) *Charts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Charts{store: store, logger: logger, derived: infra.NewCache(0)}
}

// derivedValue is a result and the dataset values it was computed from.
type derivedValue struct {
	inputs []any
	value  any
}

// derive returns the value stored under key if it was computed from the
// same inputs, which must be comparable (pointers), or computes it.
func (c *Charts) derive(key string, compute func() (any, error), inputs ...any) (any, error) {
	if v, ok := c.derived.Get(key); ok {
		if d := v.(derivedValue); sameInputs(d.inputs, inputs) {
			return d.value, nil
		}
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.derived.Set(key, derivedValue{inputs: inputs, value: v})
	return v, nil
}

func sameInputs(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Store returns the dataset store.
func (c *Charts) Store() *dataset.Store { return c.store }

// Invalidate drops every dataset and derived value, as after a data change.
func (c *Charts) Invalidate() {
	c.store.InvalidateAll()
	c.derived.Flush()
}

// InvalidateResource drops one dataset and everything derived from it.
func (c *Charts) InvalidateResource(name string) {
	c.store.Invalidate(name)
	c.derived.Flush()
}

// ════════════════════════════════════════════════════════════════════
// Data
// ════════════════════════════════════════════════════════════════════

// CPIPoints returns the sample CPI series.
func (c *Charts) CPIPoints(ctx context.Context) ([]models.Point, error) {
	return c.store.CPI(ctx)
}

// Overview returns the normalised category series.
func (c *Charts) Overview(ctx context.Context) (*inflation.Overview, error) {
	ms, err := c.store.MultiSeries(ctx)
	if err != nil {
		return nil, err
	}
	v, err := c.derive(keyOverview, func() (any, error) {
		return inflation.BuildOverview(ms)
	}, ms)
	if err != nil {
		return nil, err
	}
	return v.(*inflation.Overview), nil
}

// Calculator returns the contribution calculator, loading the series and
// weights in parallel.
func (c *Charts) Calculator(ctx context.Context) (*inflation.Calculator, error) {
	var (
		subs    *models.Subcategories
		weights *models.BasketWeights
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = c.store.Subcategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		weights, err = c.store.Weights(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	v, err := c.derive(keyCalculator, func() (any, error) {
		return inflation.NewCalculator(subs, weights, nil)
	}, subs, weights)
	if err != nil {
		return nil, err
	}
	return v.(*inflation.Calculator), nil
}

// ContributionQuery selects the contribution period. Explicit valid
// months win over the preset.
type ContributionQuery struct {
	Preset string
	Start  string
	End    string
}

// QueryFromValues reads preset, start and end parameters.
func QueryFromValues(get func(string) string) ContributionQuery {
	return ContributionQuery{Preset: get("preset"), Start: get("start"), End: get("end")}
}

// Contributions is a resolved contribution period with its display labels.
type Contributions struct {
	Preset    string                     `json:"preset,omitempty"`
	Range     models.DateRange           `json:"range"`
	DataRange models.DateRange           `json:"dataRange"`
	Period    string                     `json:"period"`   // "Jan 2015 → Nov 2025"
	Dates     string                     `json:"dates"`    // "January 2015 — November 2025"
	Duration  string                     `json:"duration"` // "(10 years, 10 months)"
	Total     string                     `json:"total"`    // "33.1%"
	Positive  bool                       `json:"positive"`
	Result    *models.ContributionResult `json:"result"`
}

// Resolve turns q into a clamped range inside data. The preset is
// reported only when it picked the range.
func (q ContributionQuery) Resolve(data models.DateRange) (models.DateRange, string) {
	if inflation.ValidMonth(q.Start) || inflation.ValidMonth(q.End) {
		start, end := q.Start, q.End
		if !inflation.ValidMonth(start) {
			start = ""
		}
		if !inflation.ValidMonth(end) {
			end = ""
		}
		return inflation.ClampRange(start, end, data), ""
	}
	preset := q.Preset
	if preset == "" {
		preset = inflation.DefaultPreset
	}
	return inflation.ResolvePreset(preset, data), preset
}

// Contributions computes the breakdown for q.
func (c *Charts) Contributions(ctx context.Context, q ContributionQuery) (*Contributions, error) {
	calc, err := c.Calculator(ctx)
	if err != nil {
		return nil, err
	}
	data := calc.DataRange()
	r, preset := q.Resolve(data)
	res := calc.Calculate(r.Start, r.End)
	return &Contributions{
		Preset:    preset,
		Range:     r,
		DataRange: data,
		Period:    inflation.PeriodLabel(r),
		Dates:     inflation.RangeLabel(r),
		Duration:  inflation.DurationLabel(r),
		Total:     utils.ToFixed(res.TotalOverallInflation, 1) + "%",
		Positive:  res.TotalOverallInflation >= 0,
		Result:    res,
	}, nil
}

// ContributionTableFile is the exported calculator input the static site
// uses for custom periods.
const ContributionTableFile = "fragments/inflation-contributions.json"

// ContributionTable is the calculator input with the icicle fill for
// each category and depth, keyed like "Food/2".
type ContributionTable struct {
	*inflation.Table
	Root    string            `json:"root"`
	Colours map[string]string `json:"colours"`
}

// ContributionTable exports everything a client needs to compute and
// draw the breakdown for any period.
func (c *Charts) ContributionTable(ctx context.Context) (*ContributionTable, error) {
	calc, err := c.Calculator(ctx)
	if err != nil {
		return nil, err
	}
	t := &ContributionTable{Table: calc.Table(), Root: chart.RootCategory, Colours: map[string]string{}}
	colour := func(category string, depth int) {
		key := category + "/" + strconv.Itoa(depth)
		if _, ok := t.Colours[key]; !ok {
			t.Colours[key] = chart.CategoryColour(category, depth)
		}
	}
	colour(chart.RootCategory, 0)
	var walk func(n *inflation.TableNode, category string, depth int)
	walk = func(n *inflation.TableNode, category string, depth int) {
		colour(category, depth)
		for _, ch := range n.Children {
			walk(ch, category, depth+1)
		}
	}
	for _, n := range t.Nodes {
		walk(n, n.Name, 1)
	}
	return t, nil
}

// Components returns the crop components file.
func (c *Charts) Components(ctx context.Context) (*models.CropComponents, error) {
	return c.store.GrainComponents(ctx)
}

// Production returns total production by year. Without the aggregated
// file it is summed from the crop components.
func (c *Charts) Production(ctx context.Context) (*models.GrainSeries, error) {
	return c.grainSeries(ctx, c.store.GrainProduction, models.MeasureProduction)
}

// Area returns total seeded area by year, with the same fallback.
func (c *Charts) Area(ctx context.Context) (*models.GrainSeries, error) {
	return c.grainSeries(ctx, c.store.GrainArea, models.MeasureArea)
}

func (c *Charts) grainSeries(ctx context.Context, load func(context.Context) (*models.GrainSeries, error), measure string) (*models.GrainSeries, error) {
	s, err := load(ctx)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, dataset.ErrNotFound) {
		return nil, err
	}
	cc, cerr := c.store.GrainComponents(ctx)
	if cerr != nil {
		return nil, err
	}
	return grain.SeriesFromComponents(cc, measure), nil
}

// Changes returns the year-over-year shift-share decomposition.
func (c *Charts) Changes(ctx context.Context) ([]models.LogChange, error) {
	cc, err := c.store.GrainComponents(ctx)
	if err != nil {
		return nil, err
	}
	return c.changes(cc)
}

func (c *Charts) changes(cc *models.CropComponents) ([]models.LogChange, error) {
	v, err := c.derive(keyChanges, func() (any, error) {
		return grain.Decompose(cc), nil
	}, cc)
	if err != nil {
		return nil, err
	}
	return v.([]models.LogChange), nil
}

// Decomposition returns the chained cumulative decomposition.
func (c *Charts) Decomposition(ctx context.Context) (*models.Decomposition, error) {
	cc, err := c.store.GrainComponents(ctx)
	if err != nil {
		return nil, err
	}
	v, err := c.derive(keyDecomposition, func() (any, error) {
		changes, err := c.changes(cc)
		if err != nil {
			return nil, err
		}
		return grain.Cumulative(changes), nil
	}, cc)
	if err != nil {
		return nil, err
	}
	return v.(*models.Decomposition), nil
}

// Statistics computes the narrative figures from the three grain inputs,
// loaded in parallel.
func (c *Charts) Statistics(ctx context.Context) (models.GrainStatistics, error) {
	var (
		prod, area *models.GrainSeries
		changes    []models.LogChange
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { prod, err = c.Production(gctx); return })
	g.Go(func() (err error) { area, err = c.Area(gctx); return })
	g.Go(func() (err error) { changes, err = c.Changes(gctx); return })
	if err := g.Wait(); err != nil {
		return models.GrainStatistics{}, err
	}
	return grain.Statistics(prod.Data, area.Data, changes), nil
}

// ════════════════════════════════════════════════════════════════════
// SVG
// ════════════════════════════════════════════════════════════════════

// fail logs a chart load failure and returns the error message chart.
func (c *Charts) fail(name string, cfg chart.Config, err error) template.HTML {
	c.logger.Error("chart load failed", zap.String("chart", name), zap.Error(err))
	return template.HTML(chart.Message(cfg, chart.MsgLoadError))
}

// CPISVG renders the sample CPI line chart.
func (c *Charts) CPISVG(ctx context.Context) template.HTML {
	cfg := chart.DefaultCPIConfig()
	points, err := c.CPIPoints(ctx)
	if err != nil {
		return c.fail(dataset.CPISample, cfg, err)
	}
	return template.HTML(chart.CPILine(points, cfg))
}

// CategoriesSVG renders the re-indexed category overview.
func (c *Charts) CategoriesSVG(ctx context.Context) template.HTML {
	cfg := chart.DefaultOverviewConfig()
	ov, err := c.Overview(ctx)
	if errors.Is(err, inflation.ErrNoSeries) {
		return template.HTML(chart.Message(cfg, chart.MsgNoData))
	}
	if err != nil {
		return c.fail(dataset.InflationMultiSeries, cfg, err)
	}
	return template.HTML(chart.NewOverviewChart(ov, cfg).Render())
}

// ContributionsSVG renders the icicle for q, zoomed to the cell named by
// focus (a cell id or category name; empty for the whole basket).
func (c *Charts) ContributionsSVG(ctx context.Context, q ContributionQuery, focus string) template.HTML {
	cfg := icicleConfig()
	res, err := c.Contributions(ctx, q)
	if err != nil {
		return c.fail(dataset.AllSubcategories, cfg, err)
	}
	return template.HTML(renderIcicle(res.Result, cfg, focus))
}

// IcicleID is the element id of the contribution icicle.
const IcicleID = "food-chart"

func icicleConfig() chart.Config {
	cfg := chart.DefaultIcicleConfig()
	cfg.ID = IcicleID
	return cfg
}

func renderIcicle(res *models.ContributionResult, cfg chart.Config, focus string) string {
	ic := chart.NewIcicle(res, cfg)
	var f *chart.Cell
	if focus != "" {
		if cell := ic.Find(focus); cell != nil && cell != ic.Root && len(cell.Children) > 0 {
			f = cell
		}
	}
	return ic.Render(f, cfg.ID)
}

// ProductionSVG renders total production by year.
func (c *Charts) ProductionSVG(ctx context.Context) template.HTML {
	cfg := chart.DefaultGrainLineConfig()
	cfg.ID = "plot-history-production"
	s, err := c.Production(ctx)
	if err != nil {
		return c.fail(dataset.GrainProduction, cfg, err)
	}
	return template.HTML(chart.NewGrainLineChart(s, ProductionTitle, ProductionYLabel, cfg).Render())
}

// AreaSVG renders total seeded area by year.
func (c *Charts) AreaSVG(ctx context.Context) template.HTML {
	cfg := chart.DefaultGrainLineConfig()
	cfg.ID = "plot-history-area"
	s, err := c.Area(ctx)
	if err != nil {
		return c.fail(dataset.GrainArea, cfg, err)
	}
	return template.HTML(chart.NewGrainLineChart(s, AreaTitle, AreaYLabel, cfg).Render())
}

// CropsSVG renders the crop component panels. A non-zero year is drawn
// selected.
func (c *Charts) CropsSVG(ctx context.Context, year int) template.HTML {
	cc, err := c.Components(ctx)
	if err != nil {
		return c.fail(dataset.GrainComponents, chart.Config{Width: 920, Height: 200}, err)
	}
	g := chart.NewPanelGrid(cc)
	var marks []chart.Mark
	if year != 0 && len(g.Crops) > 0 {
		marks = chart.NewSelection(g).SelectYear(year)
	}
	return template.HTML(chart.RenderPanels(g, marks, "plot-history-by-crop"))
}

// CumulativeSVG renders the cumulative decomposition. A non-zero hover
// year shows its mini-window.
func (c *Charts) CumulativeSVG(ctx context.Context, hover int) template.HTML {
	cfg := chart.DefaultCumulativeConfig()
	cfg.ID = "plot-cumulative"
	dec, err := c.Decomposition(ctx)
	if err != nil {
		return c.fail(dataset.GrainComponents, cfg, err)
	}
	return template.HTML(chart.NewCumulativeChart(dec, cfg).Render(hover))
}

// Selection returns the crop panel marks for a year selection, or for a
// hover on one crop row when crop is set.
func (c *Charts) Selection(ctx context.Context, year int, crop string) ([]chart.Mark, error) {
	cc, err := c.Components(ctx)
	if err != nil {
		return nil, err
	}
	g := chart.NewPanelGrid(cc)
	sel := chart.NewSelection(g)
	if crop != "" {
		return sel.HoverStart(crop, year), nil
	}
	return sel.SelectYear(year), nil
}

// atoi parses an optional integer parameter; bad input is zero.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Preview names, served under /previews/<name>.png.
const (
	PreviewCPI           = "cpi"
	PreviewGrain         = "grain-production"
	PreviewDecomposition = "grain-decomposition"
)

// PreviewNames lists every social preview image.
var PreviewNames = []string{PreviewCPI, PreviewGrain, PreviewDecomposition}

// ErrUnknownPreview is returned for a preview name not in PreviewNames.
var ErrUnknownPreview = errors.New("site: unknown preview")

// Preview renders the named social preview PNG.
func (c *Charts) Preview(ctx context.Context, name string) ([]byte, error) {
	switch name {
	case PreviewCPI:
		points, err := c.CPIPoints(ctx)
		if err != nil {
			return nil, err
		}
		return chart.CPIPreview(points, "Consumer Price Index (sample)")
	case PreviewGrain:
		s, err := c.Production(ctx)
		if err != nil {
			return nil, err
		}
		return chart.GrainPreview(s, ProductionTitle, ProductionYLabel)
	case PreviewDecomposition:
		dec, err := c.Decomposition(ctx)
		if err != nil {
			return nil, err
		}
		return chart.DecompositionPreview(dec)
	}
	return nil, ErrUnknownPreview
}
