package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domainErrors "github.com/davidleathers/normative-engine/internal/domain/errors"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
	engine "github.com/davidleathers/normative-engine/internal/service/normative"
)

// stubService implements engine.Service with canned responses.
type stubService struct {
	registerID    uuid.UUID
	registerErr   error
	framework     *normative.Framework
	frameworkErr  error
	active        []*normative.Framework
	hierarchy     []uuid.UUID
	conflicts     []*normative.Conflict
	assessment    *normative.Assessment
	assessmentErr error
	report        string
}

func (s *stubService) RegisterFramework(ctx context.Context, f *normative.Framework) (uuid.UUID, error) {
	return s.registerID, s.registerErr
}

func (s *stubService) GetFramework(ctx context.Context, id uuid.UUID) (*normative.Framework, error) {
	return s.framework, s.frameworkErr
}

func (s *stubService) GetActiveFrameworks(ctx context.Context) ([]*normative.Framework, error) {
	return s.active, nil
}

func (s *stubService) SearchFrameworks(ctx context.Context, query string) ([]*normative.Framework, error) {
	return s.active, nil
}

func (s *stubService) GetFrameworkHierarchy(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return s.hierarchy, nil
}

func (s *stubService) DetectConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Conflict, error) {
	return s.conflicts, nil
}

func (s *stubService) ResolveFrameworkConflicts(ctx context.Context, frameworks []*normative.Framework) ([]*normative.Framework, error) {
	return frameworks, nil
}

func (s *stubService) AssessCompliance(ctx context.Context, req engine.AssessmentRequest) (*normative.Assessment, error) {
	return s.assessment, s.assessmentErr
}

func (s *stubService) GenerateComplianceReport(assessment *normative.Assessment) string {
	return s.report
}

func newTestServer(t *testing.T, svc engine.Service) *http.ServeMux {
	t.Helper()
	server := &Server{
		handler: NewHandler(svc, zaptest.NewLogger(t)),
	}
	return server.setupRoutes()
}

func TestHandleRegisterFramework(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		id := uuid.New()
		mux := newTestServer(t, &stubService{registerID: id})

		body := RegisterFrameworkRequest{
			Title:         "Privacy Baseline",
			Authority:     "Data Authority",
			Jurisdiction:  "federal",
			EffectiveDate: time.Now(),
		}
		payload, _ := json.Marshal(body)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/frameworks", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp RegisterFrameworkResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, id, resp.ID)
	})

	t.Run("invalid json", func(t *testing.T) {
		mux := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/frameworks", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_JSON")
	})

	t.Run("unknown jurisdiction", func(t *testing.T) {
		mux := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/frameworks",
			strings.NewReader(`{"title":"x","authority":"y","jurisdiction":"galactic","effective_date":"2026-01-01T00:00:00Z"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_JURISDICTION")
	})

	t.Run("service conflict error maps to 409", func(t *testing.T) {
		mux := newTestServer(t, &stubService{
			registerErr: domainErrors.NewConflictError("framework conflicts with active frameworks"),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/frameworks",
			strings.NewReader(`{"title":"x","authority":"y","jurisdiction":"federal","effective_date":"2026-01-01T00:00:00Z"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "NORMATIVE_CONFLICT")
	})
}

func TestHandleGetFramework(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := normative.NewFramework("Privacy Baseline", "Data Authority", normative.JurisdictionFederal, time.Now())
		mux := newTestServer(t, &stubService{framework: f})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/frameworks/"+f.ID.String(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Privacy Baseline")
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		id := uuid.New()
		mux := newTestServer(t, &stubService{
			frameworkErr: domainErrors.NewFrameworkNotFoundError(id.String()),
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/frameworks/"+id.String(), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "FRAMEWORK_NOT_FOUND")
	})

	t.Run("bad uuid", func(t *testing.T) {
		mux := newTestServer(t, &stubService{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/frameworks/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_ID")
	})
}

func TestHandleGetHierarchy(t *testing.T) {
	dep := uuid.New()
	mux := newTestServer(t, &stubService{hierarchy: []uuid.UUID{dep}})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/frameworks/"+id.String()+"/hierarchy", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HierarchyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.FrameworkID)
	assert.Equal(t, []uuid.UUID{dep}, resp.Dependencies)
}

func TestHandleDetectConflicts(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	conflict := normative.NewConflict(
		normative.ConflictTypeDirectContradiction,
		normative.SeverityHigh,
		a, b,
		"contradictory mandatory requirements",
	)

	mux := newTestServer(t, &stubService{conflicts: []*normative.Conflict{conflict}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conflicts/detect", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DetectConflictsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "direct_contradiction", resp.Conflicts[0].Type)
	assert.Equal(t, "high", resp.Conflicts[0].Severity)
}

func TestHandleAssessCompliance(t *testing.T) {
	assessment := normative.NewAssessment("acme-corp", []uuid.UUID{uuid.New()})
	assessment.OverallStatus = normative.StatusCompliant

	mux := newTestServer(t, &stubService{assessment: assessment})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments",
		strings.NewReader(`{"entity_id":"acme-corp","framework_ids":["`+assessment.FrameworkIDs[0].String()+`"]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "acme-corp")
}

func TestHandleComplianceReport(t *testing.T) {
	assessment := normative.NewAssessment("acme-corp", []uuid.UUID{uuid.New()})
	mux := newTestServer(t, &stubService{
		assessment: assessment,
		report:     "COMPLIANCE ASSESSMENT REPORT\n",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/report",
		strings.NewReader(`{"entity_id":"acme-corp","framework_ids":["`+assessment.FrameworkIDs[0].String()+`"]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "COMPLIANCE ASSESSMENT REPORT")
}
