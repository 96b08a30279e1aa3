package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roody/paperscout/internal/aggregate"
	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/export"
	"github.com/roody/paperscout/internal/rank"
)

// queryDateLayout is the accepted format for date_from / date_to parameters.
const queryDateLayout = "2006-01-02"

// sourceInfo describes one source in the /v1/sources listing.
type sourceInfo struct {
	Source      string `json:"source"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
}

// searchResponse is the JSON body for /v1/search.
type searchResponse struct {
	QueryID string               `json:"query_id"`
	Query   string               `json:"query"`
	Results []sourceResultInfo   `json:"results"`
	Papers  []domain.Paper       `json:"papers"`
	Meta    searchResponseCounts `json:"meta"`
}

type sourceResultInfo struct {
	Source      string `json:"source"`
	Status      string `json:"status"`
	Papers      int    `json:"papers"`
	Attempts    int    `json:"attempts"`
	Dropped     int    `json:"dropped,omitempty"`
	ErrorClass  string `json:"error_class,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

type searchResponseCounts struct {
	Total        int   `json:"total"`
	Deduplicated int   `json:"deduplicated,omitempty"`
	AllFailed    bool  `json:"all_failed"`
	ElapsedMS    int64 `json:"elapsed_ms"`
}

// listSources handles GET /v1/sources.
func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	enabled := make(map[domain.SourceType]bool)
	for _, st := range s.registry.EnabledTypes() {
		enabled[st] = true
	}

	infos := make([]sourceInfo, 0, len(domain.AllSourceTypes))
	for _, st := range domain.AllSourceTypes {
		infos = append(infos, sourceInfo{
			Source:      string(st),
			DisplayName: st.DisplayName(),
			Enabled:     enabled[st],
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": infos})
}

// search handles GET /v1/search.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	req, rankOpts, err := parseSearchQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runSearch(w, r, req, rankOpts)
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, toSearchResponse(result))
}

// exportSearch handles GET /v1/search/export. It runs the same search as
// /v1/search and streams the merged papers as a CSV or XLSX download.
func (s *Server) exportSearch(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format: %s", format))
		return
	}

	req, rankOpts, err := parseSearchQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runSearch(w, r, req, rankOpts)
	if err != nil {
		return
	}

	filename := fmt.Sprintf("papers-%s.%s", result.QueryID, format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteCSV(w, result.Papers)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteXLSX(w, result.Papers)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("format", format).Msg("export failed mid-stream")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordExport(format)
	}
}

// runSearch executes the aggregate query and applies ranking. A nil result
// means an error response was already written.
func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req aggregate.Request, rankOpts rank.Options) (*domain.AggregateResult, error) {
	result, err := s.aggregator.Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, aggregate.ErrNoSources) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid search request: %v", err))
		}
		return nil, err
	}

	result.Papers = rank.Apply(result.Papers, rankOpts)
	return result, nil
}

// parseSearchQuery builds the aggregate request and ranking options from
// query parameters.
func parseSearchQuery(r *http.Request) (aggregate.Request, rank.Options, error) {
	q := r.URL.Query()

	req := aggregate.Request{
		Query:       strings.TrimSpace(q.Get("q")),
		Deduplicate: q.Get("dedupe") == "true",
	}
	if req.Query == "" {
		return req, rank.Options{}, fmt.Errorf("query parameter q is required")
	}

	if raw := q.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return req, rank.Options{}, fmt.Errorf("invalid max_results: %s", raw)
		}
		req.MaxResults = n
	}

	if raw := q.Get("sources"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, ok := domain.ParseSourceType(part)
			if !ok {
				return req, rank.Options{}, fmt.Errorf("unknown source: %s", part)
			}
			req.Sources = append(req.Sources, st)
		}
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"date_from", &req.DateFrom},
		{"date_to", &req.DateTo},
	} {
		if raw := q.Get(p.name); raw != "" {
			t, err := time.Parse(queryDateLayout, raw)
			if err != nil {
				return req, rank.Options{}, fmt.Errorf("invalid %s (want YYYY-MM-DD): %s", p.name, raw)
			}
			*p.dst = &t
		}
	}

	opts := rank.Options{
		SortBy:    rank.ParseSortKey(q.Get("sort")),
		Ascending: q.Get("order") == "asc",
		// Server-side filtering already ran where sources support it; the
		// rank filter enforces the bounds on sources that do not.
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}
	return req, opts, nil
}

func toSearchResponse(result *domain.AggregateResult) searchResponse {
	results := make([]sourceResultInfo, len(result.Results))
	for i := range result.Results {
		sr := &result.Results[i]
		results[i] = sourceResultInfo{
			Source:      string(sr.Source),
			Status:      string(sr.Status),
			Papers:      len(sr.Papers),
			Attempts:    sr.Attempts,
			Dropped:     sr.Dropped,
			ErrorClass:  string(sr.ErrorClass),
			ErrorDetail: sr.ErrorDetail,
			ElapsedMS:   sr.Elapsed.Milliseconds(),
		}
	}

	papers := result.Papers
	if papers == nil {
		papers = []domain.Paper{}
	}

	return searchResponse{
		QueryID: result.QueryID.String(),
		Query:   result.Query,
		Results: results,
		Papers:  papers,
		Meta: searchResponseCounts{
			Total:        len(papers),
			Deduplicated: result.Deduplicated,
			AllFailed:    result.AllFailed(),
			ElapsedMS:    result.Elapsed.Milliseconds(),
		},
	}
}
