package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/canviz/canadaindata/internal/analysis/inflation"
	"github.com/canviz/canadaindata/internal/site"
	"github.com/canviz/canadaindata/pkg/models"
)

// ============================================================
// Topics & news
// ============================================================

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.site.TopicList()})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusNotFound, "headlines are disabled")
		return
	}
	items, err := s.news.Latest(r.Context())
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Headline{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// ============================================================
// Inflation
// ============================================================

func (s *Server) handleCPI(w http.ResponseWriter, r *http.Request) {
	points, err := s.charts.CPIPoints(r.Context())
	s.respond(w, r, points, err)
}

// SeriesResponse is the category overview: normalised lines plus the
// headline increase of the overall index.
type SeriesResponse struct {
	*inflation.Overview
	OverallIncrease string `json:"overallIncrease"`
}

func (s *Server) handleInflationSeries(w http.ResponseWriter, r *http.Request) {
	ov, err := s.charts.Overview(r.Context())
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    SeriesResponse{Overview: ov, OverallIncrease: ov.OverallIncrease()},
	})
}

func (s *Server) handleContributions(w http.ResponseWriter, r *http.Request) {
	res, err := s.charts.Contributions(r.Context(), site.QueryFromValues(r.URL.Query().Get))
	s.respond(w, r, res, err)
}

// PresetRange is a preset resolved against the loaded data.
type PresetRange struct {
	inflation.Preset
	Range  models.DateRange `json:"range"`
	Period string           `json:"period"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	calc, err := s.charts.Calculator(r.Context())
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	data := calc.DataRange()
	out := make([]PresetRange, 0, len(inflation.Presets))
	for _, p := range inflation.Presets {
		rng := inflation.ResolvePreset(p.Key, data)
		out = append(out, PresetRange{Preset: p, Range: rng, Period: inflation.PeriodLabel(rng)})
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// ============================================================
// Grain
// ============================================================

func (s *Server) handleGrainProduction(w http.ResponseWriter, r *http.Request) {
	series, err := s.charts.Production(r.Context())
	s.respond(w, r, series, err)
}

func (s *Server) handleGrainArea(w http.ResponseWriter, r *http.Request) {
	series, err := s.charts.Area(r.Context())
	s.respond(w, r, series, err)
}

func (s *Server) handleGrainComponents(w http.ResponseWriter, r *http.Request) {
	cc, err := s.charts.Components(r.Context())
	s.respond(w, r, cc, err)
}

func (s *Server) handleDecomposition(w http.ResponseWriter, r *http.Request) {
	dec, err := s.charts.Decomposition(r.Context())
	s.respond(w, r, dec, err)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.charts.Statistics(r.Context())
	s.respond(w, r, st, err)
}

var errBadYear = errors.New("year must be an integer")

// handleSelection returns the crop panel marks for ?year=, or for a hover
// on one crop row when ?crop= is also set.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errBadYear.Error())
		return
	}
	marks, err := s.charts.Selection(r.Context(), year, r.URL.Query().Get("crop"))
	s.respond(w, r, marks, err)
}
