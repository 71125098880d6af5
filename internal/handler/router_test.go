package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook/internal/middleware"
	"github.com/noah-isme/gradebook/internal/repository"
	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/database"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiHarness struct {
	router  *gin.Engine
	metrics *service.MetricsService
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	return newCachedAPIHarness(t, 0)
}

// newCachedAPIHarness enables the in-process query cache when size is positive.
func newCachedAPIHarness(t *testing.T, size int) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        database.MemoryPath,
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := service.NewMetricsService()
	var cache *service.CacheService
	if size > 0 {
		cache = service.NewCacheService(repository.NewMemoryCacheRepository(size, time.Minute), metrics, time.Minute, nil, true)
	}
	hooks := service.WriteHooks{Cache: cache, Metrics: metrics}
	groups := repository.NewGroupRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	subjects := repository.NewSubjectRepository(db)
	grades := repository.NewGradeRepository(db)

	r := gin.New()
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())
	RegisterRoutes(r, "/api/v1", Handlers{
		Groups:   NewGroupHandler(service.NewGroupService(groups, nil, nil, hooks)),
		Students: NewStudentHandler(service.NewStudentService(students, groups, nil, nil, hooks)),
		Teachers: NewTeacherHandler(service.NewTeacherService(teachers, subjects, nil, nil, hooks)),
		Subjects: NewSubjectHandler(service.NewSubjectService(subjects, nil, nil, hooks)),
		Grades:   NewGradeHandler(service.NewGradeService(grades, students, subjects, nil, nil, hooks)),
		Queries:  NewQueryHandler(service.NewQueryService(repository.NewQueryRepository(db), cache, metrics, nil)),
		Metrics:  NewMetricsHandler(metrics, db),
	})
	return &apiHarness{router: r, metrics: metrics}
}

func (h *apiHarness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (h *apiHarness) seed(t *testing.T) {
	t.Helper()
	steps := []struct{ path, body string }{
		{"/api/v1/groups", `{"name":"Group 1"}`},
		{"/api/v1/groups", `{"name":"Group 2"}`},
		{"/api/v1/students", `{"name":"Student 1","group_id":1}`},
		{"/api/v1/students", `{"name":"Student 2","group_id":1}`},
		{"/api/v1/students", `{"name":"Student 3","group_id":2}`},
		{"/api/v1/subjects", `{"name":"Math"}`},
		{"/api/v1/subjects", `{"name":"Science"}`},
		{"/api/v1/teachers", `{"name":"Teacher 1"}`},
		{"/api/v1/teachers", `{"name":"Teacher 2"}`},
		{"/api/v1/grades", `{"student_id":1,"subject_id":1,"grade":85,"date_received":"2024-05-10T09:00:00Z"}`},
		{"/api/v1/grades", `{"student_id":2,"subject_id":1,"grade":90,"date_received":"2024-05-10T09:00:00Z"}`},
		{"/api/v1/grades", `{"student_id":3,"subject_id":2,"grade":95,"date_received":"2024-05-10T09:00:00Z"}`},
	}
	for _, step := range steps {
		w, _ := h.do(t, http.MethodPost, step.path, step.body)
		require.Equal(t, http.StatusCreated, w.Code, step.body)
	}
	for _, path := range []string{"/api/v1/teachers/1/subjects/1", "/api/v1/teachers/2/subjects/2"} {
		w, _ := h.do(t, http.MethodPut, path, "")
		require.Equal(t, http.StatusNoContent, w.Code, path)
	}
}

func TestEntityEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	h.seed(t)

	w, env := h.do(t, http.MethodGet, "/api/v1/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	var students []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &students))
	assert.Len(t, students, 3)

	w, env = h.do(t, http.MethodPost, "/api/v1/students", `{"name":"Ghost","group_id":99}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "REFERENCE_NOT_FOUND", env.Error.Code)

	w, env = h.do(t, http.MethodPut, "/api/v1/groups/42", `{"name":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, env = h.do(t, http.MethodPost, "/api/v1/groups", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = h.do(t, http.MethodPost, "/api/v1/groups", `{"name":"Group 1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)

	w, _ = h.do(t, http.MethodGet, "/api/v1/grades/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = h.do(t, http.MethodPut, "/api/v1/grades/1", `{"grade":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	var grade map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &grade))
	assert.Equal(t, float64(0), grade["grade"])

	w, env = h.do(t, http.MethodGet, "/api/v1/teachers/1/subjects", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Math"}]`, string(env.Data))

	w, _ = h.do(t, http.MethodDelete, "/api/v1/teachers/1/subjects/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = h.do(t, http.MethodDelete, "/api/v1/groups/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, env = h.do(t, http.MethodGet, "/api/v1/grades", "")
	var grades []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &grades))
	assert.Len(t, grades, 1)

	assert.Equal(t, uint64(1), h.metrics.Snapshot().Mutations["group.delete"])
}

func TestQueryEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	h.seed(t)

	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/queries/top-students?limit=1", `[{"name":"Student 3","average_grade":95}]`},
		{"/api/v1/queries/subjects/Math/top-student", `{"name":"Student 2","average_grade":90}`},
		{"/api/v1/queries/subjects/Math/group-averages", `[{"name":"Group 1","average_grade":87.5}]`},
		{"/api/v1/queries/overall-average", `{"average":90}`},
		{"/api/v1/queries/teachers/" + url.PathEscape("Teacher 1") + "/subjects", `[{"id":1,"name":"Math"}]`},
		{"/api/v1/queries/teachers/" + url.PathEscape("Teacher 1") + "/average", `{"average":87.5}`},
		{"/api/v1/queries/teachers/" + url.PathEscape("Teacher 2") + "/students/" + url.PathEscape("Student 1") + "/average", `{"average":null}`},
		{"/api/v1/queries/students/" + url.PathEscape("Student 1") + "/subjects", `["Math"]`},
		{"/api/v1/queries/students/" + url.PathEscape("Student 1") + "/teachers/" + url.PathEscape("Teacher 1") + "/subjects", `["Math"]`},
		{"/api/v1/queries/groups/" + url.PathEscape("Group 2") + "/students", `[{"id":3,"name":"Student 3","group_id":2}]`},
	}
	for _, tc := range cases {
		w, env := h.do(t, http.MethodGet, tc.path, "")
		require.Equal(t, http.StatusOK, w.Code, tc.path)
		assert.JSONEq(t, tc.want, string(env.Data), tc.path)
	}

	w, env := h.do(t, http.MethodGet, "/api/v1/queries/groups/"+url.PathEscape("Group 1")+"/subjects/Math/last-lesson", "")
	require.Equal(t, http.StatusOK, w.Code)
	var lesson []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &lesson))
	assert.Len(t, lesson, 2)

	w, _ = h.do(t, http.MethodGet, "/api/v1/queries/top-students?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpointsAndMetrics(t *testing.T) {
	h := newAPIHarness(t)

	w, _ := h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gradebook_http_requests_total")

	w, env := h.do(t, http.MethodGet, "/api/v1/system/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.Contains(t, snapshot, "requests_total")
}

func TestQueryEndpointsReportCacheHits(t *testing.T) {
	h := newCachedAPIHarness(t, 16)
	h.seed(t)

	w, env := h.do(t, http.MethodGet, "/api/v1/queries/overall-average", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, env.Meta["cache_hit"])

	_, env = h.do(t, http.MethodGet, "/api/v1/queries/overall-average", "")
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.JSONEq(t, `{"average":90}`, string(env.Data))

	h.do(t, http.MethodPost, "/api/v1/grades", `{"student_id":1,"subject_id":2,"grade":50}`)
	_, env = h.do(t, http.MethodGet, "/api/v1/queries/overall-average", "")
	assert.Equal(t, false, env.Meta["cache_hit"])
	assert.JSONEq(t, `{"average":80}`, string(env.Data))
}

func TestQueryEndpointsWithoutCacheOmitCacheHit(t *testing.T) {
	h := newAPIHarness(t)

	_, env := h.do(t, http.MethodGet, "/api/v1/queries/overall-average", "")
	assert.NotContains(t, env.Meta, "cache_hit")
}
