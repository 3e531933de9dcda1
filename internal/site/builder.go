package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/canviz/canadaindata/internal/analysis/inflation"
	"github.com/canviz/canadaindata/internal/config"
	"github.com/canviz/canadaindata/internal/dataset"
	"github.com/canviz/canadaindata/internal/progress"
)

// Derived data files written next to the published resources.
const (
	DecompositionFile = "grain_decomposition.json"
	StatisticsFile    = "grain_statistics.json"
)

// FragmentFile is the exported contribution panel for one preset.
func FragmentFile(preset string) string {
	return "fragments/inflation-contributions-" + preset + ".html"
}

// BuildOptions configures a static export.
type BuildOptions struct {
	OutDir   string
	BasePath string // "/Project-CanViz/"
	Origin   string // public origin for feed and preview links; may be empty
	Clean    bool
	Static   fs.FS // embedded assets copied to static/
	Reporter progress.Reporter
	Now      func() time.Time
}

// BuildOptionsFrom maps the site and build sections of cfg.
func BuildOptionsFrom(cfg *config.Config, static fs.FS) BuildOptions {
	return BuildOptions{
		OutDir:   cfg.Build.OutDir,
		BasePath: cfg.Site.BasePath,
		Origin:   cfg.Site.URL,
		Clean:    cfg.Build.Clean,
		Static:   static,
	}
}

// BuildResult summarises an export.
type BuildResult struct {
	OutDir  string        `json:"outDir"`
	Files   []string      `json:"files"`
	Pages   int           `json:"pages"`
	Skipped []string      `json:"skipped,omitempty"`
	Took    time.Duration `json:"took"`
}

// Builder exports the site as static files.
type Builder struct {
	site   *Site
	opts   BuildOptions
	logger *zap.Logger

	result *BuildResult
}

// NewBuilder creates an exporter for s.
func (s *Site) NewBuilder(opts BuildOptions) *Builder {
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.BasePath = config.NormaliseBasePath(opts.BasePath)
	return &Builder{site: s, opts: opts, logger: s.logger.Named("build")}
}

type buildStep struct {
	name string
	run  func(ctx context.Context) error
}

// Build writes every page, asset, data file, preview, fragment and the
// feed under OutDir.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()
	out := b.opts.OutDir
	if out == "" || filepath.Clean(out) == "/" {
		return nil, fmt.Errorf("build: invalid output directory %q", out)
	}
	if b.opts.Clean {
		if err := os.RemoveAll(out); err != nil {
			return nil, fmt.Errorf("clean %s: %w", out, err)
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}
	b.result = &BuildResult{OutDir: out}

	steps, err := b.steps()
	if err != nil {
		return nil, err
	}
	b.opts.Reporter.Start(len(steps))
	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := st.run(ctx); err != nil {
			return nil, fmt.Errorf("build %s: %w", st.name, err)
		}
		b.opts.Reporter.Update(i+1, st.name)
	}
	b.opts.Reporter.Finish()

	b.result.Took = time.Since(start)
	b.logger.Info("site exported",
		zap.String("out", out),
		zap.Int("files", len(b.result.Files)),
		zap.Duration("took", b.result.Took),
	)
	return b.result, nil
}

func (b *Builder) steps() ([]buildStep, error) {
	var steps []buildStep

	nav := b.site.NewNavigator()
	for _, p := range b.site.router.Paths() {
		p := p
		steps = append(steps, buildStep{name: p, run: func(ctx context.Context) error {
			if err := b.page(ctx, nav, p, pageFile(p)); err != nil {
				return err
			}
			b.result.Pages++
			return nil
		}})
	}
	steps = append(steps, buildStep{name: "404.html", run: func(ctx context.Context) error {
		defer nav.Close()
		return b.page(ctx, nav, "/404", "404.html")
	}})

	if b.opts.Static != nil {
		assets, err := fs.Glob(b.opts.Static, "*")
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			a := a
			steps = append(steps, buildStep{name: "static/" + a, run: func(context.Context) error {
				data, err := fs.ReadFile(b.opts.Static, a)
				if err != nil {
					return err
				}
				return b.write(path.Join("static", a), data)
			}})
		}
	}

	for _, r := range dataset.Resources {
		r := r
		steps = append(steps, buildStep{name: "data/" + r, run: func(ctx context.Context) error {
			return b.dataFile(ctx, r)
		}})
	}
	steps = append(steps,
		buildStep{name: "data/" + DecompositionFile, run: b.decomposition},
		buildStep{name: "data/" + StatisticsFile, run: b.statistics},
	)

	for _, n := range PreviewNames {
		n := n
		steps = append(steps, buildStep{name: "previews/" + n + ".png", run: func(ctx context.Context) error {
			return b.preview(ctx, n)
		}})
	}
	for _, pr := range inflation.Presets {
		key := pr.Key
		steps = append(steps, buildStep{name: FragmentFile(key), run: func(ctx context.Context) error {
			h, err := b.site.ContributionsFragment(ctx, ContributionQuery{Preset: key}, "")
			if err != nil {
				return err
			}
			return b.write(FragmentFile(key), []byte(h))
		}})
	}
	steps = append(steps,
		buildStep{name: ContributionTableFile, run: b.contributionTable},
		buildStep{name: "feed.xml", run: b.feed},
	)
	return steps, nil
}

// pageFile maps a route to its exported file: "/" to index.html and
// "/topics" to topics/index.html.
func pageFile(p string) string {
	return path.Join(strings.TrimPrefix(p, "/"), "index.html")
}

func (b *Builder) page(ctx context.Context, nav *Navigator, target, file string) error {
	p, err := nav.Navigate(ctx, target)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := b.site.Render(&buf, p, RenderOptions{Base: b.opts.BasePath, Static: true}); err != nil {
		return err
	}
	html, err := RewriteLinks(&buf, b.opts.BasePath, b.opts.Origin)
	if err != nil {
		return err
	}
	return b.write(file, []byte(html))
}

func (b *Builder) dataFile(ctx context.Context, name string) error {
	data, err := b.site.charts.Store().Raw(ctx, name)
	if errors.Is(err, dataset.ErrNotFound) {
		b.skip("data/"+name, err)
		return nil
	}
	if err != nil {
		return err
	}
	return b.write(path.Join("data", name), data)
}

func (b *Builder) decomposition(ctx context.Context) error {
	dec, err := b.site.charts.Decomposition(ctx)
	if err != nil {
		b.skip("data/"+DecompositionFile, err)
		return nil
	}
	return b.writeJSON(path.Join("data", DecompositionFile), dec)
}

func (b *Builder) statistics(ctx context.Context) error {
	st, err := b.site.charts.Statistics(ctx)
	if err != nil {
		b.skip("data/"+StatisticsFile, err)
		return nil
	}
	return b.writeJSON(path.Join("data", StatisticsFile), st)
}

func (b *Builder) contributionTable(ctx context.Context) error {
	t, err := b.site.charts.ContributionTable(ctx)
	if err != nil {
		b.skip(ContributionTableFile, err)
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return b.write(ContributionTableFile, data)
}

func (b *Builder) preview(ctx context.Context, name string) error {
	png, err := b.site.charts.Preview(ctx, name)
	if err != nil {
		b.skip("previews/"+name+".png", err)
		return nil
	}
	return b.write(path.Join("previews", name+".png"), png)
}

func (b *Builder) feed(context.Context) error {
	var buf bytes.Buffer
	if err := WriteFeed(&buf, b.opts.Origin, b.opts.BasePath, b.site.topics, b.opts.Now()); err != nil {
		return err
	}
	return b.write("feed.xml", buf.Bytes())
}

func (b *Builder) skip(file string, err error) {
	b.logger.Warn("skipped", zap.String("file", file), zap.Error(err))
	b.result.Skipped = append(b.result.Skipped, file)
}

func (b *Builder) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return b.write(name, data)
}

func (b *Builder) write(name string, data []byte) error {
	full := filepath.Join(b.opts.OutDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return err
	}
	b.result.Files = append(b.result.Files, name)
	return nil
}

// linkAttrs are the attributes holding site-relative URLs.
var linkAttrs = []struct{ sel, attr string }{
	{"a[href]", "href"},
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"img[src]", "src"},
	{"form[action]", "action"},
	{`meta[property="og:image"]`, "content"},
}

// RewriteLinks prefixes every root-relative URL in the document with base.
// Preview images also get origin, since crawlers need absolute URLs.
func RewriteLinks(r *bytes.Buffer, base, origin string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	for _, la := range linkAttrs {
		la := la
		doc.Find(la.sel).Each(func(_ int, s *goquery.Selection) {
			v, ok := s.Attr(la.attr)
			if !ok || !rooted(v) {
				return
			}
			v = WithBase(base, v)
			if la.attr == "content" {
				v = strings.TrimRight(origin, "/") + v
			}
			s.SetAttr(la.attr, v)
		})
	}
	return doc.Html()
}

func rooted(v string) bool {
	return strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//")
}

// WithBase joins base and a root-relative URL: ("/p/", "/topics") is
// "/p/topics" and ("/p/", "/") is "/p/".
func WithBase(base, v string) string {
	if base == "" || base == "/" {
		return v
	}
	return strings.TrimRight(base, "/") + v
}
