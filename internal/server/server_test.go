package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{MaxUploadBytes: 1 << 20, Profile: pipeline.DefaultOptions()}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, logging.Discard())
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestUploadAndCurrent(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, "file", "cities.json", `[{"city":"NY","pop":8},{"city":"LA","pop":4}]`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		RunID string `json:"runId"`
		Data  struct {
			FileName string `json:"fileName"`
			FileType string `json:"fileType"`
			RowCount int    `json:"rowCount"`
		} `json:"data"`
		Summary struct {
			NumericColumns []string `json:"numericColumns"`
		} `json:"summary"`
		Charts []struct {
			ID   string `json:"id"`
			Data []struct {
				Name  string  `json:"name"`
				Value float64 `json:"value"`
			} `json:"data"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "cities.json", out.Data.FileName)
	assert.Equal(t, "json", out.Data.FileType)
	assert.Equal(t, 2, out.Data.RowCount)
	assert.Equal(t, []string{"pop"}, out.Summary.NumericColumns)
	require.Len(t, out.Charts, 2)
	assert.Equal(t, "bar-chart-1", out.Charts[0].ID)
	assert.Equal(t, "NY", out.Charts[0].Data[0].Name)
	assert.Equal(t, 8.0, out.Charts[0].Data[0].Value)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/profile/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), out.RunID)

	metrics := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, metrics, `datalens_profiles_total{outcome="ok"} 1`)
	assert.Contains(t, metrics, `datalens_charts_selected_total{type="pie"} 1`)
	assert.Contains(t, metrics, "datalens_profile_rows_count 1")
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		typ      string
	}{
		{"unsupported", "notes.txt", "hello", http.StatusUnsupportedMediaType, TypeUnsupportedFormat},
		{"empty csv", "empty.csv", "a,b\n", http.StatusUnprocessableEntity, TypeEmptyData},
		{"no structure", "meta.json", `{"meta":{"v":1}}`, http.StatusUnprocessableEntity, TypeNoTabular},
		{"malformed json", "bad.json", `[{"a":`, http.StatusBadRequest, TypeMalformed},
		{"too large", "big.csv", "v\n" + strings.Repeat("1\n", 100), http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(c *Config) { c.MaxUploadBytes = 64 })
			rec := serve(s, uploadRequest(t, "file", tt.filename, tt.content))
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			p := decodeProblem(t, rec)
			assert.Equal(t, tt.typ, p["type"])
			assert.Equal(t, float64(tt.status), p["status"])
			assert.NotEmpty(t, p["trace_id"])

			assert.Equal(t, http.StatusNotFound, serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/profile/current", nil)).Code)
		})
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, uploadRequest(t, "upload", "a.csv", "x\n1\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, TypeBadRequest, decodeProblem(t, rec)["type"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)
}

func TestResetClearsCurrent(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, serve(s, uploadRequest(t, "file", "s.csv", "status\nopen\n")).Code)

	rec := serve(s, httptest.NewRequest(http.MethodDelete, "/api/v1/profile/current", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/profile/current", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFailedUploadKeepsPrevious(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, serve(s, uploadRequest(t, "file", "s.csv", "status\nopen\n")).Code)
	require.Equal(t, http.StatusUnsupportedMediaType, serve(s, uploadRequest(t, "file", "s.txt", "x")).Code)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/profile/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fileName":"s.csv"`)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})
	assert.Equal(t, http.StatusCreated, serve(s, uploadRequest(t, "file", "s.csv", "status\nopen\n")).Code)

	rec := serve(s, uploadRequest(t, "file", "s.csv", "status\nopen\n"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, TypeRateLimit, decodeProblem(t, rec)["type"])

	// reads are not limited
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/profile/current", nil)).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","has_current":false}`, rec.Body.String())

	serve(s, uploadRequest(t, "file", "x.txt", "x"))
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `datalens_profiles_total{outcome="unsupported"} 1`)
	assert.Contains(t, rec.Body.String(), "datalens_profile_duration_seconds_count 1")
}
