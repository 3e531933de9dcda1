package api

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/canviz/canadaindata/internal/site"
)

// handlePage renders a site page. Unknown paths get the not-found page
// with status 404.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	p, err := s.site.Build(r.Context(), r.URL.RequestURI())
	if err != nil {
		s.logger.Error("page build failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer p.Destroy()

	var buf bytes.Buffer
	if err := s.site.Render(&buf, p, site.RenderOptions{Base: "/"}); err != nil {
		s.logger.Error("page render failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(p.Status)
	_, _ = buf.WriteTo(w)
}

// handleContributionsFragment renders the contribution panel for the
// live period controls.
func (s *Server) handleContributionsFragment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h, err := s.site.ContributionsFragment(r.Context(), site.QueryFromValues(q.Get), q.Get("focus"))
	if err != nil {
		s.logger.Error("fragment render failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(h))
}

// handleChart serves one chart as a standalone SVG. Charts whose data
// fails to load still render, showing the load error message.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	var svg template.HTML
	switch chi.URLParam(r, "name") {
	case "cpi":
		svg = s.charts.CPISVG(ctx)
	case "inflation-categories":
		svg = s.charts.CategoriesSVG(ctx)
	case "inflation-contributions":
		svg = s.charts.ContributionsSVG(ctx, site.QueryFromValues(q.Get), q.Get("focus"))
	case "grain-production":
		svg = s.charts.ProductionSVG(ctx)
	case "grain-area":
		svg = s.charts.AreaSVG(ctx)
	case "grain-crops":
		svg = s.charts.CropsSVG(ctx, queryInt(q.Get("year")))
	case "grain-cumulative":
		svg = s.charts.CumulativeSVG(ctx, queryInt(q.Get("hover")))
	default:
		writeError(w, http.StatusNotFound, "unknown chart")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(svg))
}

func queryInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	png, err := s.charts.Preview(r.Context(), chi.URLParam(r, "name"))
	if errors.Is(err, site.ErrUnknownPreview) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// handleData passes a data file through unchanged. The derived
// decomposition and statistics files are computed on request, matching
// the static export.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if !fs.ValidPath(name) || name == "." {
		writeError(w, http.StatusBadRequest, "invalid data path")
		return
	}

	switch name {
	case site.DecompositionFile:
		dec, err := s.charts.Decomposition(r.Context())
		s.respondRaw(w, r, dec, err)
		return
	case site.StatisticsFile:
		st, err := s.charts.Statistics(r.Context())
		s.respondRaw(w, r, st, err)
		return
	}

	data, err := s.charts.Store().Raw(r.Context(), name)
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dataContentType(name))
	_, _ = w.Write(data)
}

// respondRaw writes v as bare JSON, without the API envelope.
func (s *Server) respondRaw(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func dataContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := site.WriteFeed(&buf, s.cfg.Site.URL, "/", s.site.TopicList(), s.started); err != nil {
		s.logger.Error("feed render failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Last-Modified", s.started.UTC().Format(http.TimeFormat))
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(feedAge.Seconds())))
	_, _ = buf.WriteTo(w)
}

// feedAge is how long clients may cache the feed.
const feedAge = 30 * time.Minute
