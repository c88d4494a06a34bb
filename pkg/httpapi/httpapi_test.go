package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisops/sentinel/pkg/ingest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIngestor struct {
	result ingest.Result
	err    error
}

func (f *fakeIngestor) Handle(ctx context.Context, body []byte) (ingest.Result, error) {
	if f.err != nil {
		return ingest.Result{}, f.err
	}
	return f.result, nil
}

type fakeHealth struct{ snapshot map[string]any }

func (f *fakeHealth) HealthSnapshot() map[string]any { return f.snapshot }

func TestHandleHealth_ReturnsOK(t *testing.T) {
	srv := NewServer(&fakeIngestor{}, &fakeHealth{snapshot: map[string]any{"region": "us-east-1"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "us-east-1")
}

func TestHandleAlarmWebhook_Processed(t *testing.T) {
	srv := NewServer(&fakeIngestor{result: ingest.Result{Status: "processed", IncidentID: "inc-1"}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/alarm-webhook", strings.NewReader(`{"Message":"{}"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inc-1")
}

func TestHandleAlarmWebhook_IngestorError_BadRequest(t *testing.T) {
	srv := NewServer(&fakeIngestor{err: assertError("boom")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/alarm-webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestNewServer_RegistersRoutes(t *testing.T) {
	srv := NewServer(&fakeIngestor{}, nil)
	require.NotNil(t, srv.Handler())
}
