package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccrm-api/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		APIPrefix: "/api/v1",
		Records: config.RecordsConfig{
			MaxCreditsPerSemester: 6,
			DataDir:               filepath.Join(root, "data"),
			ExportDir:             filepath.Join(root, "exports"),
			BackupDir:             filepath.Join(root, "backups"),
			StudentsFile:          "students.csv",
			CoursesFile:           "courses.csv",
		},
		Exports: config.ExportsConfig{
			SignedURLSecret:   "secret",
			SignedURLTTL:      time.Hour,
			ResultTTL:         time.Hour,
			WorkerConcurrency: 1,
			WorkerRetries:     1,
		},
	}
}

func newTestApp(t *testing.T) (*App, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	a, err := New(ctx, testConfig(t), nil)
	require.NoError(t, err)
	a.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = a.Close()
	})
	return a, a.Router()
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func call(t *testing.T, h http.Handler, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func TestEnrollmentFlowOverHTTP(t *testing.T) {
	_, router := newTestApp(t)

	status, _ := call(t, router, http.MethodPost, "/api/v1/students", map[string]string{
		"id": "S001", "reg_no": "2024-CS-0001", "full_name": "Ana Lima", "email": "ana@campus.test",
	})
	require.Equal(t, http.StatusCreated, status)
	for _, course := range []map[string]interface{}{
		{"code": "CS101-A", "title": "Intro to Programming", "credits": 3, "instructor": "Dr. Rao", "semester": "FALL", "department": "Computer Science"},
		{"code": "MA201-A", "title": "Linear Algebra", "credits": 3, "instructor": "Dr. Ito", "semester": "FALL", "department": "Mathematics"},
		{"code": "PH110-A", "title": "Physics I", "credits": 2, "instructor": "Dr. Sen", "semester": "FALL", "department": "Physics"},
	} {
		status, _ = call(t, router, http.MethodPost, "/api/v1/courses", course)
		require.Equal(t, http.StatusCreated, status)
	}

	status, _ = call(t, router, http.MethodPost, "/api/v1/enrollments", map[string]string{"student_id": "S001", "course_code": "cs101-a"})
	require.Equal(t, http.StatusCreated, status)

	status, resp := call(t, router, http.MethodPost, "/api/v1/enrollments", map[string]string{"student_id": "S001", "course_code": "CS101-A"})
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_ENROLLMENT", resp.Error.Code)

	status, _ = call(t, router, http.MethodPost, "/api/v1/enrollments", map[string]string{"student_id": "S001", "course_code": "MA201-A"})
	require.Equal(t, http.StatusCreated, status)

	// the load already sits at the ceiling
	status, resp = call(t, router, http.MethodPost, "/api/v1/enrollments", map[string]string{"student_id": "S001", "course_code": "PH110-A"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CREDIT_LIMIT_EXCEEDED", resp.Error.Code)

	status, resp = call(t, router, http.MethodPut, "/api/v1/grades", map[string]string{"student_id": "S001", "course_code": "CS101-A", "grade": "b"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"assigned":true}`, string(resp.Data))

	status, resp = call(t, router, http.MethodGet, "/api/v1/students/S001/gpa", nil)
	require.Equal(t, http.StatusOK, status)
	var gpa struct {
		GPA        float64 `json:"gpa"`
		CreditLoad int     `json:"credit_load"`
		MaxCredits int     `json:"max_credits"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &gpa))
	assert.InDelta(t, 8.0, gpa.GPA, 0.001)
	assert.Equal(t, 6, gpa.MaxCredits)

	status, resp = call(t, router, http.MethodGet, "/api/v1/reports/top-students?n=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"student_id":"S001"`)

	status, resp = call(t, router, http.MethodDelete, "/api/v1/enrollments/S001/PH110-A", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"unenrolled":false}`, string(resp.Data))

	status, _ = call(t, router, http.MethodGet, "/api/v1/students/S999/gpa", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestExportJobOverHTTP(t *testing.T) {
	_, router := newTestApp(t)
	status, _ := call(t, router, http.MethodPost, "/api/v1/students", map[string]string{
		"id": "S001", "reg_no": "2024-CS-0001", "full_name": "Ana Lima", "email": "ana@campus.test",
	})
	require.Equal(t, http.StatusCreated, status)

	status, resp := call(t, router, http.MethodPost, "/api/v1/exports", map[string]string{"kind": "students", "format": "csv"})
	require.Equal(t, http.StatusAccepted, status)
	var job struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &job))

	require.Eventually(t, func() bool {
		_, resp := call(t, router, http.MethodGet, "/api/v1/exports/"+job.ID, nil)
		if err := json.Unmarshal(resp.Data, &job); err != nil {
			return false
		}
		return job.Status == "FINISHED"
	}, 2*time.Second, 10*time.Millisecond)
	require.True(t, strings.HasPrefix(job.DownloadURL, "/api/v1/export/"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, job.DownloadURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "S001,2024-CS-0001")
}

func TestReadyAndBootstrapWithoutFiles(t *testing.T) {
	a, router := newTestApp(t)
	require.NoError(t, a.Bootstrap(context.Background()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSwaggerDocsHiddenInProduction(t *testing.T) {
	a, router := newTestApp(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/enrollments"`)

	a.cfg.Env = config.EnvProduction
	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
