package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegeradar/collegeradar-go/internal/analysis"
	"github.com/collegeradar/collegeradar-go/internal/config"
	"github.com/collegeradar/collegeradar-go/internal/geo"
	"github.com/collegeradar/collegeradar-go/internal/importer"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/metrics"
	"github.com/collegeradar/collegeradar-go/internal/scraper"
	"github.com/collegeradar/collegeradar-go/internal/search"
	"github.com/collegeradar/collegeradar-go/internal/storage"
)

func testServerConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		LogLevel:        "error",
		MetricsUsername: "prometheus",
		MyCollegeID:     "my_college",
		Matching: config.MatchingConfig{
			CloseMatchThreshold:  0.4,
			ExactMatchWeight:     2.0,
			CloseMatchWeight:     1.0,
			VeryHighScore:        0.7,
			HighScore:            0.5,
			MediumScore:          0.3,
			LowScore:             0.1,
			ProgramWeight:        0.70,
			AcademicWeight:       0.20,
			EnrollmentWeight:     0.10,
			ProgramGate:          0.1,
			CollegeHighOverlap:   0.6,
			CollegeHighScore:     0.65,
			CollegeMediumOverlap: 0.3,
			CollegeMediumScore:   0.45,
			MaxUniquePrograms:    10,
			TopCompetitors:       5,
			MaxProgramsPerPage:   50,
		},
	}
}

func setupTestServer(t *testing.T) (*gin.Engine, *apiServer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testServerConfig()
	log := logger.New("error")

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	client := scraper.NewClient(0, 0)
	collegeScraper := scraper.NewCollegeScraper(client, log, cfg.Matching.MaxProgramsPerPage)
	var geocoder *geo.Geocoder
	svc := analysis.New(cfg, db, collegeScraper, geocoder, log)

	api := &apiServer{
		cfg:      cfg,
		db:       db,
		svc:      svc,
		importer: importer.New(db, log),
		index:    search.NewIndex(log),
		log:      log,
		metrics:  m,
	}

	router := gin.New()
	setupRoutes(router, api, registry)
	return router, api
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return doRequest(t, router, http.MethodPost, path, bytes.NewBuffer(raw), "application/json")
}

func saveHomeCollege(t *testing.T, api *apiServer, programs []string) {
	t.Helper()
	err := api.db.SaveCollege(context.Background(), &storage.College{
		ID:       api.cfg.MyCollegeID,
		Name:     "Home University",
		Programs: programs,
	}, true)
	require.NoError(t, err)
}

func TestHealthz(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestReady(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, float64(0), body["competitors"])
	assert.Equal(t, float64(0), body["comparisons"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsBasicAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	_, api := setupTestServer(t)
	api.cfg.MetricsPassword = "secret"

	router := gin.New()
	setupRoutes(router, api, prometheus.NewRegistry())

	w := doRequest(t, router, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prometheus", "secret")
	authed := httptest.NewRecorder()
	router.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestCollegeLifecycle(t *testing.T) {
	router, _ := setupTestServer(t)

	// Not configured yet.
	w := doRequest(t, router, http.MethodGet, "/api/college", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postJSON(t, router, "/api/college", map[string]any{
		"name":     "Home University",
		"location": "New York, NY",
		"programs": []string{"Computer Science", "Biology"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created collegeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "home_university", created.ID)

	w = doRequest(t, router, http.MethodGet, "/api/college", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var fetched collegeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "Home University", fetched.Name)
	assert.Equal(t, []string{"Computer Science", "Biology"}, fetched.Programs)
}

func TestSetCollegeRejectsMissingName(t *testing.T) {
	router, _ := setupTestServer(t)

	w := postJSON(t, router, "/api/college", map[string]any{"location": "Nowhere"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadCSV(t *testing.T, router *gin.Engine, csvData string, extraFields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "competitors.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	for k, v := range extraFields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	return doRequest(t, router, http.MethodPost, "/api/competitors/import", &buf, writer.FormDataContentType())
}

func TestImportAndListCompetitors(t *testing.T) {
	router, _ := setupTestServer(t)

	csvData := strings.Join([]string{
		"name,location,programs",
		`Rival College,"Boston, MA","Computer Science, Biology"`,
		`Tech Institute,"Chicago, IL","Engineering, Mathematics"`,
	}, "\n")

	w := uploadCSV(t, router, csvData, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result["imported"])
	assert.Equal(t, 0, result["skipped"])

	w = doRequest(t, router, http.MethodGet, "/api/competitors", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Competitors []collegeResponse `json:"competitors"`
		Count       int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, 2, listing.Count)
}

func TestImportWithColumnMapping(t *testing.T) {
	router, _ := setupTestServer(t)

	csvData := strings.Join([]string{
		"School Name,Degrees",
		`Rival College,"Computer Science, Biology"`,
	}, "\n")

	w := uploadCSV(t, router, csvData, map[string]string{
		"map_name":     "School Name",
		"map_programs": "Degrees",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result["imported"])
}

func TestImportWithoutFile(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodPost, "/api/competitors/import", nil, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCompetitor(t *testing.T) {
	router, api := setupTestServer(t)

	err := api.db.SaveCollege(context.Background(), &storage.College{
		ID:       "rival_college",
		Name:     "Rival College",
		Programs: []string{"Biology"},
	}, false)
	require.NoError(t, err)

	w := doRequest(t, router, http.MethodDelete, "/api/competitors/rival_college", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/api/competitors/rival_college", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeStoredCompetitors(t *testing.T) {
	router, api := setupTestServer(t)
	saveHomeCollege(t, api, []string{"Computer Science", "Biology", "Mathematics"})

	err := api.db.SaveCollege(context.Background(), &storage.College{
		ID:       "rival_college",
		Name:     "Rival College",
		Programs: []string{"Computer Science", "Biology", "Chemistry"},
	}, false)
	require.NoError(t, err)

	w := postJSON(t, router, "/api/analyze", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Comparisons []struct {
			CompetitorName string `json:"competitor_name"`
			Level          string `json:"level"`
		} `json:"comparisons"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Comparisons, 1)
	assert.Equal(t, "Rival College", body.Comparisons[0].CompetitorName)
	assert.Equal(t, "MEDIUM", body.Comparisons[0].Level)
}

func TestAnalyzeWithoutHomeCollege(t *testing.T) {
	router, _ := setupTestServer(t)

	w := postJSON(t, router, "/api/analyze", map[string]any{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalyzeRejectsTooManyURLs(t *testing.T) {
	router, api := setupTestServer(t)
	saveHomeCollege(t, api, []string{"Computer Science"})

	urls := make([]string, maxAnalyzeURLs+1)
	for i := range urls {
		urls[i] = "https://example.edu"
	}
	w := postJSON(t, router, "/api/analyze", map[string]any{"urls": urls})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportEndpoints(t *testing.T) {
	router, api := setupTestServer(t)
	saveHomeCollege(t, api, []string{"Computer Science", "Biology"})

	err := api.db.SaveCollege(context.Background(), &storage.College{
		ID:       "rival_college",
		Name:     "Rival College",
		Programs: []string{"Computer Science", "Chemistry"},
	}, false)
	require.NoError(t, err)

	w := doRequest(t, router, http.MethodGet, "/api/report", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"my_college"`)

	w = doRequest(t, router, http.MethodGet, "/api/report/text", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Rival College")
}

func TestMapRequiresCoordinates(t *testing.T) {
	router, api := setupTestServer(t)
	saveHomeCollege(t, api, []string{"Computer Science"})

	w := doRequest(t, router, http.MethodGet, "/api/map", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSearchPrograms(t *testing.T) {
	router, api := setupTestServer(t)

	err := api.db.SaveCollege(context.Background(), &storage.College{
		ID:       "rival_college",
		Name:     "Rival College",
		Programs: []string{"Computer Science", "Fine Arts"},
	}, false)
	require.NoError(t, err)
	require.NoError(t, api.refreshIndex(context.Background()))

	w := doRequest(t, router, http.MethodGet, "/api/programs/search?q=computer+science", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Results []search.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "Computer Science", body.Results[0].Program)
}

func TestSearchProgramsRequiresQuery(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doRequest(t, router, http.MethodGet, "/api/programs/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/programs/search?q=math&limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
