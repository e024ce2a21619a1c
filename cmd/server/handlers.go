// Package main provides the competition analysis REST server entry point.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/collegeradar/collegeradar-go/internal/analysis"
	"github.com/collegeradar/collegeradar-go/internal/compare"
	"github.com/collegeradar/collegeradar-go/internal/config"
	domerrors "github.com/collegeradar/collegeradar-go/internal/errors"
	"github.com/collegeradar/collegeradar-go/internal/importer"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/metrics"
	"github.com/collegeradar/collegeradar-go/internal/report"
	"github.com/collegeradar/collegeradar-go/internal/search"
	"github.com/collegeradar/collegeradar-go/internal/storage"
	"github.com/collegeradar/collegeradar-go/internal/stringutil"
)

// maxAnalyzeURLs caps one analyze request.
const maxAnalyzeURLs = 25

// apiServer bundles the dependencies behind the HTTP handlers.
type apiServer struct {
	cfg      *config.Config
	db       *storage.DB
	svc      *analysis.Service
	importer *importer.Importer
	index    *search.Index
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// collegeRequest is the JSON body for creating or replacing the home
// college.
type collegeRequest struct {
	ID             string   `json:"college_id"`
	Name           string   `json:"name" binding:"required"`
	Location       string   `json:"location"`
	Programs       []string `json:"programs"`
	SourceURL      string   `json:"source_url"`
	Tuition        *float64 `json:"tuition"`
	Enrollment     *float64 `json:"enrollment"`
	AcceptanceRate *float64 `json:"acceptance_rate"`
	AvgGPA         *float64 `json:"avg_gpa"`
	AvgSAT         *float64 `json:"avg_sat"`
	AvgACT         *float64 `json:"avg_act"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

func (r *collegeRequest) toCollege(defaultID string) *storage.College {
	id := r.ID
	if id == "" {
		id = stringutil.Slugify(r.Name)
	}
	if id == "" {
		id = defaultID
	}
	programs := r.Programs
	if programs == nil {
		programs = []string{}
	}
	return &storage.College{
		ID:             id,
		Name:           r.Name,
		Location:       r.Location,
		Programs:       programs,
		SourceURL:      r.SourceURL,
		Tuition:        r.Tuition,
		Enrollment:     r.Enrollment,
		AcceptanceRate: r.AcceptanceRate,
		AvgGPA:         r.AvgGPA,
		AvgSAT:         r.AvgSAT,
		AvgACT:         r.AvgACT,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
	}
}

// collegeResponse mirrors the stored record in JSON form.
type collegeResponse struct {
	ID             string   `json:"college_id"`
	Name           string   `json:"name"`
	Location       string   `json:"location,omitempty"`
	Programs       []string `json:"programs"`
	SourceURL      string   `json:"source_url,omitempty"`
	Tuition        *float64 `json:"tuition,omitempty"`
	Enrollment     *float64 `json:"enrollment,omitempty"`
	AcceptanceRate *float64 `json:"acceptance_rate,omitempty"`
	AvgGPA         *float64 `json:"avg_gpa,omitempty"`
	AvgSAT         *float64 `json:"avg_sat,omitempty"`
	AvgACT         *float64 `json:"avg_act,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

func toCollegeResponse(c *storage.College) collegeResponse {
	programs := c.Programs
	if programs == nil {
		programs = []string{}
	}
	return collegeResponse{
		ID:             c.ID,
		Name:           c.Name,
		Location:       c.Location,
		Programs:       programs,
		SourceURL:      c.SourceURL,
		Tuition:        c.Tuition,
		Enrollment:     c.Enrollment,
		AcceptanceRate: c.AcceptanceRate,
		AvgGPA:         c.AvgGPA,
		AvgSAT:         c.AvgSAT,
		AvgACT:         c.AvgACT,
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
	}
}

// handleSetCollege stores or replaces the home college.
func (s *apiServer) handleSetCollege(c *gin.Context) {
	var req collegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.RecordHTTPError("bad_request", "college")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	college := req.toCollege(s.cfg.MyCollegeID)
	if err := s.db.SaveCollege(c.Request.Context(), college, true); err != nil {
		s.metrics.RecordHTTPError("storage", "college")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save college"})
		return
	}
	c.JSON(http.StatusOK, toCollegeResponse(college))
}

// handleGetCollege returns the home college.
func (s *apiServer) handleGetCollege(c *gin.Context) {
	college, err := s.db.GetHomeCollege(c.Request.Context())
	if err != nil {
		s.metrics.RecordHTTPError("storage", "college")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load college"})
		return
	}
	if college == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "home college not configured"})
		return
	}
	c.JSON(http.StatusOK, toCollegeResponse(college))
}

// handleListCompetitors returns all stored competitors.
func (s *apiServer) handleListCompetitors(c *gin.Context) {
	competitors, err := s.db.ListCompetitors(c.Request.Context())
	if err != nil {
		s.metrics.RecordHTTPError("storage", "competitors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list competitors"})
		return
	}

	out := make([]collegeResponse, 0, len(competitors))
	for _, comp := range competitors {
		out = append(out, toCollegeResponse(comp))
	}
	c.JSON(http.StatusOK, gin.H{"competitors": out, "count": len(out)})
}

// handleDeleteCompetitor removes one competitor and its comparison.
func (s *apiServer) handleDeleteCompetitor(c *gin.Context) {
	id := c.Param("id")
	err := s.db.DeleteCompetitor(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "competitor not found"})
			return
		}
		s.metrics.RecordHTTPError("storage", "competitors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete competitor"})
		return
	}

	s.rebuildIndexAsync()
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// handleImportCompetitors ingests a CSV upload. Custom header names can
// be supplied as form fields named map_<standard_field>.
func (s *apiServer) handleImportCompetitors(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		s.metrics.RecordHTTPError("bad_request", "import")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing CSV file upload (field 'file')"})
		return
	}
	defer func() { _ = file.Close() }()

	columns := importer.DefaultColumnMap()
	for field := range columns {
		if mapped := c.PostForm("map_" + field); mapped != "" {
			columns[field] = mapped
		}
	}

	result, err := s.importer.Import(c.Request.Context(), file, columns, "upload")
	if err != nil {
		s.metrics.RecordHTTPError("import", "import")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.rebuildIndexAsync()
	c.JSON(http.StatusOK, gin.H{
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

// analyzeRequest is the JSON body for an analysis run. With no URLs the
// stored competitors are re-analyzed instead of scraping.
type analyzeRequest struct {
	URLs []string `json:"urls"`
}

// handleAnalyze runs the competition analysis.
func (s *apiServer) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.RecordHTTPError("bad_request", "analyze")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.URLs) > maxAnalyzeURLs {
		s.metrics.RecordHTTPError("bad_request", "analyze")
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many URLs in one request"})
		return
	}

	var urls []string
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	var comparisons []compare.Comparison
	var err error
	if len(urls) == 0 {
		comparisons, err = s.svc.AnalyzeStored(c.Request.Context())
	} else {
		comparisons, err = s.svc.AnalyzeURLs(c.Request.Context(), urls)
	}
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "home college not configured"})
			return
		}
		s.metrics.RecordHTTPError("analysis", "analyze")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	if comparisons == nil {
		comparisons = []compare.Comparison{}
	}
	s.rebuildIndexAsync()
	c.JSON(http.StatusOK, gin.H{"comparisons": comparisons})
}

// handleReport returns the course competition report as JSON.
func (s *apiServer) handleReport(c *gin.Context) {
	r, err := s.buildReport(c)
	if err != nil {
		return // response already written
	}
	c.JSON(http.StatusOK, r)
}

// handleReportText returns the report as a plain-text document.
func (s *apiServer) handleReportText(c *gin.Context) {
	r, err := s.buildReport(c)
	if err != nil {
		return
	}
	c.String(http.StatusOK, report.Render(r))
}

func (s *apiServer) buildReport(c *gin.Context) (*report.Report, error) {
	r, err := s.svc.BuildCourseReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "home college not configured"})
			return nil, err
		}
		s.metrics.RecordHTTPError("report", "report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return nil, err
	}
	return r, nil
}

// handleMap returns the interactive HTML competition map.
func (s *apiServer) handleMap(c *gin.Context) {
	html, err := s.svc.RenderMap(c.Request.Context())
	if err != nil {
		if errors.Is(err, domerrors.ErrNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "home college or coordinates missing"})
			return
		}
		s.metrics.RecordHTTPError("map", "map")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render map"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// handleSearchPrograms searches indexed programs by keyword.
func (s *apiServer) handleSearchPrograms(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	results, err := s.index.Search(query, limit)
	if err != nil {
		s.metrics.RecordHTTPError("search", "search")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// refreshIndex rebuilds the program search index from stored colleges.
func (s *apiServer) refreshIndex(ctx context.Context) error {
	competitors, err := s.db.ListCompetitors(ctx)
	if err != nil {
		return err
	}

	var entries []search.ProgramEntry
	for _, college := range competitors {
		for _, program := range college.Programs {
			entries = append(entries, search.ProgramEntry{
				CollegeID:   college.ID,
				CollegeName: college.Name,
				Program:     program,
			})
		}
	}
	return s.index.Build(entries)
}

// rebuildIndexAsync refreshes the search index without blocking the
// response.
func (s *apiServer) rebuildIndexAsync() {
	go func() {
		if err := s.refreshIndex(context.Background()); err != nil {
			s.log.WithError(err).Warn("Failed to rebuild program index")
		}
	}()
}
