package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdex/internal/config"
	"jobdex/internal/ingest"
	"jobdex/internal/logging"
	"jobdex/internal/storage"
	"jobdex/pkg/models"
)

const testPageHTML = `<!-- saved from url=(0046)https://www.linkedin.com/jobs/view/1234567890/ -->
<html>
<body>
<div class="mt6 ml5 flex-grow-1">
	<h1>Site Reliability Engineer</h1>
	<h3>
		Company Name
		Globex
		Company Location
		Chicago, Illinois
	</h3>
</div>
<article>
	<div>
		Run the platform
	</div>
	<div>
		Seniority Level
		Senior
	</div>
	<div>
		Industries
		Software
	</div>
	<div>
		Employment Type
		Full-time
	</div>
	<div>
		Job Functions
		Engineering
	</div>
</article>
</body>
</html>`

type stubStore struct {
	jobs      map[int64]*models.JobRecord
	seen      map[int64]bool
	rejectHit bool
}

func newStubStore() *stubStore {
	return &stubStore{jobs: make(map[int64]*models.JobRecord), seen: make(map[int64]bool)}
}

func (s *stubStore) WriteJob(ctx context.Context, record *models.JobRecord) (storage.Outcome, error) {
	if s.seen[record.ID] {
		return storage.OutcomeAlreadyExists, nil
	}
	s.seen[record.ID] = true
	s.jobs[record.ID] = record
	return storage.OutcomeInserted, nil
}

func (s *stubStore) SelectJob(ctx context.Context, id int64) (*models.JobRecord, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return job, nil
}

func (s *stubStore) SelectJobs(ctx context.Context, excludeRejected bool) ([]*models.JobRecord, error) {
	jobs := make([]*models.JobRecord, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Rejected && excludeRejected {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *stubStore) UpdateRejected(ctx context.Context, title, company string) (bool, error) {
	s.rejectHit = true
	for _, job := range s.jobs {
		if strings.EqualFold(job.Title, title) && strings.EqualFold(job.Company, company) {
			job.Rejected = true
			return true, nil
		}
	}
	return false, nil
}

func newTestManager(t *testing.T, store ingest.JobStore) *ingest.PoolManager {
	t.Helper()

	cfg := &config.Config{}
	cfg.Workers.PoolSize = 2
	cfg.Workers.QueueSize = 10
	cfg.Workers.RateLimit = 6000
	cfg.Workers.Timeout = 5 * time.Second
	cfg.Extractor.Template = "auto"

	manager := ingest.NewPoolManager(cfg, store, logging.NewMultiLogger())
	require.NoError(t, manager.Initialize())
	t.Cleanup(func() { _ = manager.Shutdown() })
	return manager
}

func doRequest(t *testing.T, handler echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, handler(c))
	return rec
}

func ingestBody(t *testing.T, id int64, html string) string {
	t.Helper()

	payload, err := json.Marshal(models.IngestRequest{ID: id, HTML: html})
	require.NoError(t, err)
	return string(payload)
}

func TestIngestJobHandler_Created(t *testing.T) {
	store := newStubStore()
	handler := IngestJobHandler(newTestManager(t, store))

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/jobs", ingestBody(t, 1234567890, testPageHTML))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "inserted", resp.Outcome)
	require.NotNil(t, resp.Job)
	assert.Equal(t, "Site Reliability Engineer", resp.Job.Title)
	assert.Equal(t, "Globex", resp.Job.Company)
	assert.NotEmpty(t, resp.RequestID)
}

func TestIngestJobHandler_DuplicateConflict(t *testing.T) {
	store := newStubStore()
	manager := newTestManager(t, store)
	handler := IngestJobHandler(manager)

	body := ingestBody(t, 1234567890, testPageHTML)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/jobs", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/jobs", body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "already_exists", resp.Error)
}

func TestIngestJobHandler_ExtractionFailed(t *testing.T) {
	handler := IngestJobHandler(newTestManager(t, newStubStore()))

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/jobs",
		ingestBody(t, 42, "<html><body><p>nothing here</p></body></html>"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "extraction_failed", resp.Error)
}

func TestIngestJobHandler_ValidationFailed(t *testing.T) {
	handler := IngestJobHandler(newTestManager(t, newStubStore()))

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/jobs", `{"html": ""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
}

func TestIngestJobHandler_UnknownTemplateRejected(t *testing.T) {
	handler := IngestJobHandler(newTestManager(t, newStubStore()))

	payload, err := json.Marshal(models.IngestRequest{
		ID:      1234567890,
		HTML:    testPageHTML,
		Options: &models.IngestOptions{Template: "v99"},
	})
	require.NoError(t, err)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/jobs", string(payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Contains(t, resp.Message, "Template")
}

func TestGetJobHandler_NotFound(t *testing.T) {
	handler := GetJobHandler(newStubStore())

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/jobs/999", "", "id", "999")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestGetJobHandler_InvalidID(t *testing.T) {
	handler := GetJobHandler(newStubStore())

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/jobs/abc", "", "id", "abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobsHandler_IncludesRejectedByDefault(t *testing.T) {
	store := newStubStore()
	store.jobs[1] = &models.JobRecord{ID: 1, Title: "Open Role"}
	store.jobs[2] = &models.JobRecord{ID: 2, Title: "Declined Role", Rejected: true}
	store.seen[1], store.seen[2] = true, true

	rec := doRequest(t, ListJobsHandler(store), http.MethodGet, "/api/v1/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.JobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count, "the listing covers every job, rejected ones included")
}

func TestListJobsHandler_ExcludeRejectedOptIn(t *testing.T) {
	store := newStubStore()
	store.jobs[1] = &models.JobRecord{ID: 1, Title: "Open Role"}
	store.jobs[2] = &models.JobRecord{ID: 2, Title: "Declined Role", Rejected: true}
	store.seen[1], store.seen[2] = true, true

	rec := doRequest(t, ListJobsHandler(store), http.MethodGet, "/api/v1/jobs?exclude_rejected=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.JobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Open Role", resp.Jobs[0].Title)
}

func TestRejectJobHandler(t *testing.T) {
	store := newStubStore()
	store.jobs[7] = &models.JobRecord{ID: 7, Title: "Data Engineer", Company: "Acme"}

	rec := doRequest(t, RejectJobHandler(store), http.MethodPatch, "/api/v1/jobs/reject",
		`{"title": "data engineer", "company": "ACME"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RejectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Updated)
	assert.True(t, store.jobs[7].Rejected)
}

func TestRejectJobHandler_MissingFields(t *testing.T) {
	rec := doRequest(t, RejectJobHandler(newStubStore()), http.MethodPatch, "/api/v1/jobs/reject",
		`{"title": "only title"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
