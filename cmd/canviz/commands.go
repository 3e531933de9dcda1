package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canviz/canadaindata/api"
	"github.com/canviz/canadaindata/internal/analysis/cpi"
	"github.com/canviz/canadaindata/internal/config"
	"github.com/canviz/canadaindata/internal/dataset"
	"github.com/canviz/canadaindata/internal/infra"
	"github.com/canviz/canadaindata/internal/news"
	"github.com/canviz/canadaindata/internal/progress"
	"github.com/canviz/canadaindata/internal/site"
	"github.com/canviz/canadaindata/web"
)

// optionalResources may be absent; their figures are derived from the
// crop components instead.
var optionalResources = map[string]bool{
	dataset.GrainProduction: true,
	dataset.GrainArea:       true,
}

// --- Wiring ---

type app struct {
	cache *infra.Cache
	store *dataset.Store
	dir   *dataset.FSSource // nil when data is fetched over HTTP
	site  *site.Site
	news  site.Headlines
}

func newApp(withNews bool) (*app, error) {
	a := &app{cache: infra.NewCache(cfg.Data.DataCacheTTL())}

	var src dataset.Source
	if cfg.Data.BaseURL != "" {
		src = dataset.NewHTTPSource(cfg.Data.BaseURL, infra.NewRateLimiter(8, 250*time.Millisecond))
	} else {
		a.dir = dataset.NewDirSource(cfg.Data.Dir)
		src = a.dir
	}
	a.store = dataset.NewStore(src, a.cache, logger.Named("dataset"))
	a.store.SetConcurrency(cfg.Data.Concurrency)

	if withNews && cfg.News.Enabled {
		a.news = news.NewDaily(cfg.News, logger.Named("news"))
	}

	s, err := site.New(site.Options{
		Charts:    site.NewCharts(a.store, logger.Named("charts")),
		Templates: web.Templates(),
		Content:   web.Content(),
		Headlines: a.news,
		Logger:    logger.Named("site"),
	})
	if err != nil {
		return nil, fmt.Errorf("site setup failed: %w", err)
	}
	a.site = s
	return a, nil
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site, chart API and live reload",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(true)
		if err != nil {
			return err
		}
		if cfg.Data.CacheTTL > 0 {
			go a.cache.RunJanitor(ctx, time.Minute)
		}

		srv, err := api.NewServer(api.Options{
			Config:     cfg,
			ConfigFile: cfgFile,
			Site:       a.site,
			News:       a.news,
			Static:     web.Static(),
			Logger:     logger,
			Version:    version,
		})
		if err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if (watch || cfg.Data.Watch) && a.dir != nil {
			w, err := dataset.NewWatcher(cfg.Data.Dir, srv.DataChanged, logger.Named("watch"))
			if err != nil {
				return fmt.Errorf("watch %s: %w", cfg.Data.Dir, err)
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("watch %s: %w", cfg.Data.Dir, err)
			}
			defer w.Stop()
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.API.Addr()
		}
		fmt.Printf("Serving Canada in Data on http://%s (data: %s)\n", addr, a.store.Source().Name())
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: api.host:api.port)")
	serveCmd.Flags().Bool("watch", false, "reload pages when files in the data directory change")
}

// --- Build Command ---

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export the site as static files",
	Long: `Export every page, chart fragment, data file, preview image and the
RSS feed under the output directory. Links are rewritten for the base path
so the result can be published to a sub-path such as GitHub Pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}

		opts := site.BuildOptionsFrom(cfg, web.Static())
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			opts.OutDir = out
		}
		if cmd.Flags().Changed("base") {
			opts.BasePath, _ = cmd.Flags().GetString("base")
		}
		if noClean, _ := cmd.Flags().GetBool("no-clean"); noClean {
			opts.Clean = false
		}
		opts.Reporter = progress.NewReporter()

		res, err := a.site.NewBuilder(opts).Build(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d pages, %d files to %s in %s\n",
			res.Pages, len(res.Files), res.OutDir, res.Took.Round(time.Millisecond))
		for _, s := range res.Skipped {
			fmt.Printf("  skipped %s\n", s)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().String("out", "", "output directory (default: build.out_dir)")
	buildCmd.Flags().String("base", "", "base path the site is published under, e.g. /Project-CanViz/")
	buildCmd.Flags().Bool("no-clean", false, "keep existing files in the output directory")
}

// --- Check Command ---

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate every dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		a, err := newApp(false)
		if err != nil {
			return err
		}

		results, err := a.store.LoadAll(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Datasets (%s):\n", a.store.Source().Name())
		failed := 0
		for _, r := range results {
			switch {
			case r.OK:
				fmt.Printf("  ok    %-32s %s\n", r.Resource, r.Took.Round(time.Microsecond))
			case optionalResources[r.Resource] && strings.Contains(r.Error, dataset.ErrNotFound.Error()):
				fmt.Printf("  skip  %-32s derived from %s\n", r.Resource, dataset.GrainComponents)
			default:
				failed++
				fmt.Printf("  FAIL  %-32s %s\n", r.Resource, r.Error)
			}
		}

		if a.dir != nil {
			if files, err := dataset.DiscoverAll(a.dir.FS()); err == nil {
				known := map[string]bool{}
				for _, r := range dataset.Resources {
					known[r] = true
				}
				for _, f := range files {
					if !known[f] {
						fmt.Printf("  extra %s (not used by any page)\n", f)
					}
				}
			}
		}

		printCPISummary(ctx, a.store)

		if failed > 0 {
			return fmt.Errorf("%d dataset(s) failed to load", failed)
		}
		return nil
	},
}

func printCPISummary(ctx context.Context, store *dataset.Store) {
	points, err := store.CPI(ctx)
	if err != nil {
		return
	}
	sum, err := cpi.Summarise(points)
	if err != nil {
		logger.Debug("cpi summary unavailable", zap.Error(err))
		return
	}
	fmt.Println()
	fmt.Println("CPI sample:")
	fmt.Printf("  %s to %s, %d months\n", sum.Start.Format("2006-01"), sum.End.Format("2006-01"), sum.Points)
	fmt.Printf("  %.1f to %.1f (%+.1f%%, %.2f%% a year)\n", sum.First, sum.Last, sum.ChangePct, sum.AnnualRate)

	if rebased := cpi.Rebase(points, 5); len(rebased) > 0 {
		last := rebased[len(rebased)-1]
		fmt.Printf("  last 5 years rebased: 100 at %s, %.1f at %s\n",
			rebased[0].Date.Format("2006-01"), last.Value, last.Date.Format("2006-01"))
	}
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Canada in Data: status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		if cfgFile != "" {
			fmt.Printf("  Config file: %s\n", cfgFile)
		}
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Site URL:    %s\n", cfg.Site.URL)
		fmt.Printf("    Base path:   %s\n", cfg.Site.BasePath)
		fmt.Printf("    API server:  %s\n", cfg.API.Addr())
		fmt.Printf("    Watch data:  %t\n", cfg.Data.Watch)
		fmt.Printf("    Headlines:   %t\n", cfg.News.Enabled)
		fmt.Println()

		fmt.Println("  Locations:")
		for _, p := range config.CheckPaths(cfg) {
			state := "✗"
			if p.Exists {
				state = "✓"
			}
			line := fmt.Sprintf("    %s %-15s %s", state, p.Name+":", p.Value)
			if p.Source != config.PathSourceNone {
				line += fmt.Sprintf(" [%s]", p.Source)
			}
			if p.Files > 0 {
				line += fmt.Sprintf(" (%d entries)", p.Files)
			}
			if p.Note != "" {
				line += " - " + p.Note
			}
			fmt.Println(line)
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
