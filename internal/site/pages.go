// Package site builds the Canada in Data pages: the route table, the page
// builders with their chart loads, the layout templates and the static
// exporter.
package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"

	"go.uber.org/zap"

	"github.com/canviz/canadaindata/internal/analysis/inflation"
	"github.com/canviz/canadaindata/internal/chart"
	"github.com/canviz/canadaindata/pkg/models"
	"github.com/canviz/canadaindata/pkg/utils"
)

// GrainNarrative is the markdown source of the grain page.
const GrainNarrative = "grain-production.md"

// placeholder fills narrative figures and stats that could not load.
const placeholder = "—"

// loadingHTML is shown in a chart slot until its load delivers.
const loadingHTML template.HTML = `<div class="loading">Loading data...</div>`

// Headlines supplies the latest releases for the home page.
type Headlines interface {
	Latest(ctx context.Context) ([]models.Headline, error)
}

// Options configures a Site.
type Options struct {
	Charts    *Charts
	Templates fs.FS
	Content   fs.FS
	Headlines Headlines // optional
	Logger    *zap.Logger
}

// Site owns the route table and renders pages.
type Site struct {
	charts       *Charts
	templates    *Templates
	renderer     *Renderer
	headlines    Headlines
	topics       []models.Topic
	descriptions map[string]string
	router       *Router
	logger       *zap.Logger
}

// New parses the templates and registers every route.
func New(opts Options) (*Site, error) {
	if opts.Charts == nil {
		return nil, fmt.Errorf("site: charts required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	tmpl, err := ParseTemplates(opts.Templates)
	if err != nil {
		return nil, err
	}
	topics, err := Topics()
	if err != nil {
		return nil, err
	}
	s := &Site{
		charts:       opts.Charts,
		templates:    tmpl,
		renderer:     NewRenderer(opts.Content),
		headlines:    opts.Headlines,
		topics:       topics,
		descriptions: make(map[string]string),
		router:       NewRouter(),
		logger:       opts.Logger,
	}
	for _, t := range topics {
		s.descriptions[t.Path()] = t.Description
	}

	s.router.Handle(PathHome, s.home)
	s.router.Handle(PathTopics, s.topicsIndex)
	s.router.Handle(PathCPI, s.cpi)
	s.router.Handle(PathInflation, s.inflation)
	s.router.Handle(PathGrain, s.grain)
	return s, nil
}

// Router returns the route table.
func (s *Site) Router() *Router { return s.router }

// Charts returns the chart service.
func (s *Site) Charts() *Charts { return s.charts }

// TopicList returns the topic catalogue.
func (s *Site) TopicList() []models.Topic { return s.topics }

// NewNavigator starts a browsing session over the site's routes.
func (s *Site) NewNavigator() *Navigator {
	return NewNavigator(s.router, s.NotFound)
}

// Build builds the page for target without a session. Callers destroy the
// page after rendering it.
func (s *Site) Build(ctx context.Context, target string) (*Page, error) {
	req := ParseTarget(target)
	build, ok := s.router.Lookup(req.Path)
	if !ok {
		return s.NotFound(ctx, req.Path), nil
	}
	return build(ctx, req)
}

// ════════════════════════════════════════════════════════════════════
// Pages
// ════════════════════════════════════════════════════════════════════

// NotFound builds the view for an unknown path.
func (s *Site) NotFound(ctx context.Context, path string) *Page {
	p := newPage(ctx, path, "Not found", "notfound", struct{ Path string }{path})
	p.Status = 404
	return p
}

type homeData struct {
	Headlines []models.Headline
}

func (s *Site) home(ctx context.Context, req Request) (*Page, error) {
	d := &homeData{}
	p := newPage(ctx, req.Path, "Home", "home", d)
	if s.headlines != nil {
		p.Go(func(ctx context.Context) error {
			items, err := s.headlines.Latest(ctx)
			if err != nil {
				s.logger.Warn("headlines unavailable", zap.Error(err))
				return nil
			}
			d.Headlines = items
			return nil
		})
	}
	return p, nil
}

func (s *Site) topicsIndex(ctx context.Context, req Request) (*Page, error) {
	return newPage(ctx, req.Path, "Topics", "topics", struct{ Topics []models.Topic }{s.topics}), nil
}

type cpiData struct {
	Chart *Slot
}

// cpi builds the sample CPI page. Its destroy hook marks the chart
// instance destroyed, so a load finishing later is dropped.
func (s *Site) cpi(ctx context.Context, req Request) (*Page, error) {
	d := &cpiData{Chart: NewSlot("cpi-chart-container", loadingHTML)}
	p := newPage(ctx, req.Path, "Consumer Price Index", "cpi", d)
	p.Load(d.Chart, s.charts.CPISVG)
	p.OnDestroy(func() {
		d.Chart.Close()
		s.logger.Debug("cpi chart destroyed", zap.Bool("loaded", d.Chart.Filled()))
	})
	return p, nil
}

type presetButton struct {
	inflation.Preset
	Active bool
}

type contributionsView struct {
	Contrib *Contributions
	Error   string
	Icicle  *Slot
}

type inflationData struct {
	Overview        *Slot
	OverallIncrease string
	Since           string
	Presets         []presetButton
	Start, End      string
	Min, Max        string
	Contributions   *contributionsView
}

func (s *Site) inflation(ctx context.Context, req Request) (*Page, error) {
	q := QueryFromValues(req.Query.Get)
	focus := req.Query.Get("focus")

	d := &inflationData{
		Overview:        NewSlot("cpi-chart-container", loadingHTML),
		OverallIncrease: placeholder,
		Since:           "January 2015",
		Contributions:   &contributionsView{Icicle: NewSlot(IcicleID, loadingHTML)},
	}
	p := newPage(ctx, req.Path, "The Inflation Story", "inflation", d)

	p.Load(d.Overview, s.charts.CategoriesSVG)
	p.Go(func(ctx context.Context) error {
		ov, err := s.charts.Overview(ctx)
		if err != nil {
			return nil
		}
		if inc := ov.OverallIncrease(); inc != "" {
			d.OverallIncrease = inc
		}
		if o := ov.Overall(); o != nil && len(o.Dates) > 0 {
			d.Since = utils.LongMonth(o.Dates[0])
		}
		return nil
	})

	p.Load(d.Contributions.Icicle, func(ctx context.Context) template.HTML {
		cv, err := s.contributions(ctx, q, focus)
		if err != nil {
			d.Contributions.Error = chart.MsgLoadError
			return template.HTML(chart.Message(icicleConfig(), chart.MsgLoadError))
		}
		d.Contributions.Contrib = cv.Contrib
		return cv.Icicle.HTML()
	})
	p.After(func() error {
		d.Presets = presetButtons("")
		c := d.Contributions.Contrib
		if c == nil {
			r := inflation.DefaultRange
			d.Start, d.End, d.Min, d.Max = r.Start, r.End, r.Start, r.End
			return nil
		}
		d.Presets = presetButtons(c.Preset)
		d.Start, d.End = c.Range.Start, c.Range.End
		d.Min, d.Max = c.DataRange.Start, c.DataRange.End
		return nil
	})
	return p, nil
}

func presetButtons(active string) []presetButton {
	out := make([]presetButton, len(inflation.Presets))
	for i, pr := range inflation.Presets {
		out[i] = presetButton{Preset: pr, Active: pr.Key == active}
	}
	return out
}

// contributions computes the contribution panel for q without a page.
func (s *Site) contributions(ctx context.Context, q ContributionQuery, focus string) (*contributionsView, error) {
	c, err := s.charts.Contributions(ctx, q)
	if err != nil {
		s.logger.Error("chart load failed", zap.String("chart", "inflation-contributions"), zap.Error(err))
		return nil, err
	}
	slot := NewSlot(IcicleID, loadingHTML)
	slot.set(template.HTML(renderIcicle(c.Result, icicleConfig(), focus)))
	return &contributionsView{Contrib: c, Icicle: slot}, nil
}

// ContributionsFragment renders the contribution panel (dates, summary
// and icicle) on its own, for the script to swap in after a period change.
func (s *Site) ContributionsFragment(ctx context.Context, q ContributionQuery, focus string) (template.HTML, error) {
	cv, err := s.contributions(ctx, q, focus)
	if err != nil {
		cv = &contributionsView{
			Error:  chart.MsgLoadError,
			Icicle: NewSlot(IcicleID, template.HTML(chart.Message(icicleConfig(), chart.MsgLoadError))),
		}
	}
	var buf bytes.Buffer
	if err := s.templates.ExecutePartial(&buf, "inflation", "contributions", cv); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// NarrativeStats are the grain figures as they read in the text.
type NarrativeStats struct {
	ProductionRatio               string
	Production2025Million         string
	FirstYear                     string
	LastYear                      string
	AreaMultiplier                string
	AreaFirstYear                 string
	AreaLastYear                  string
	ProductionMultiplier          string
	CumulativeLogChangeProduction string
	CumulativeArea                string
	CumulativeWithin              string
	CumulativeMix                 string
	WithinExceeds15Pre1960        string
	WithinExceeds15Post1960       string
	Span                          string
}

// EmptyNarrativeStats shows a dash for every figure.
func EmptyNarrativeStats() NarrativeStats {
	return NarrativeStats{
		ProductionRatio: placeholder, Production2025Million: placeholder,
		FirstYear: placeholder, LastYear: placeholder,
		AreaMultiplier: placeholder, AreaFirstYear: placeholder, AreaLastYear: placeholder,
		ProductionMultiplier: placeholder, CumulativeLogChangeProduction: placeholder,
		CumulativeArea: placeholder, CumulativeWithin: placeholder, CumulativeMix: placeholder,
		WithinExceeds15Pre1960: placeholder, WithinExceeds15Post1960: placeholder,
		Span: placeholder,
	}
}

// NewNarrativeStats formats statistics the way numbers print in the
// browser: shortest form, no trailing zeros.
func NewNarrativeStats(st models.GrainStatistics) NarrativeStats {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	i := strconv.Itoa
	return NarrativeStats{
		ProductionRatio:               f(st.ProductionRatio),
		Production2025Million:         f(st.Production2025MillionTonnes),
		FirstYear:                     i(st.FirstYear),
		LastYear:                      i(st.LastYear),
		AreaMultiplier:                st.AreaMultiplier,
		AreaFirstYear:                 i(st.AreaFirstYear),
		AreaLastYear:                  i(st.AreaLastYear),
		ProductionMultiplier:          f(st.ProductionMultiplier),
		CumulativeLogChangeProduction: f(st.CumulativeLogChangeProduction),
		CumulativeArea:                f(st.CumulativeArea),
		CumulativeWithin:              f(st.CumulativeWithin),
		CumulativeMix:                 f(st.CumulativeMix),
		WithinExceeds15Pre1960:        i(st.WithinExceeds15Pre1960),
		WithinExceeds15Post1960:       i(st.WithinExceeds15Post1960),
		Span:                          i(st.LastYear - st.FirstYear),
	}
}

type grainData struct {
	Stats     NarrativeStats
	Narrative template.HTML
	Charts    map[string]*Slot
}

func (s *Site) grain(ctx context.Context, req Request) (*Page, error) {
	year := atoi(req.Query.Get("year"))
	hover := atoi(req.Query.Get("hover"))

	d := &grainData{
		Stats: EmptyNarrativeStats(),
		Charts: map[string]*Slot{
			"production": NewSlot("plot-history-production-container", loadingHTML),
			"area":       NewSlot("plot-history-area-container", loadingHTML),
			"crops":      NewSlot("plot-history-by-crop-container", loadingHTML),
			"cumulative": NewSlot("plot-cumulative-container", loadingHTML),
		},
	}
	p := newPage(ctx, req.Path, "Grain Production Composition Analysis", "grain", d)

	p.Go(func(ctx context.Context) error {
		st, err := s.charts.Statistics(ctx)
		if err != nil {
			s.logger.Error("grain statistics failed", zap.Error(err))
			return nil
		}
		d.Stats = NewNarrativeStats(st)
		return nil
	})
	p.Load(d.Charts["production"], s.charts.ProductionSVG)
	p.Load(d.Charts["area"], s.charts.AreaSVG)
	p.Load(d.Charts["crops"], func(ctx context.Context) template.HTML { return s.charts.CropsSVG(ctx, year) })
	p.Load(d.Charts["cumulative"], func(ctx context.Context) template.HTML { return s.charts.CumulativeSVG(ctx, hover) })

	p.After(func() error {
		h, err := s.renderer.Narrative(GrainNarrative, d.Stats)
		if err != nil {
			return err
		}
		d.Narrative = InsertCharts(h, d.Charts)
		return nil
	})
	return p, nil
}
