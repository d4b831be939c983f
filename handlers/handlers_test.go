package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecoadvisor-service/config"
	"ecoadvisor-service/service"
	"ecoadvisor-service/stubllm"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes is a minimal payload that http.DetectContentType sniffs as image/png.
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x00}, 64)...)
}

func testRouter(cfg *config.Config, svc *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(cfg, svc)

	router := gin.New()
	router.GET("/", h.Index)
	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/status", h.Status)
		api.GET("/version", h.Version)
		api.POST("/analyze", h.Analyze)
		api.GET("/analyses", h.ListAnalyses)
		api.GET("/analyses/:id", h.GetAnalysis)
		api.GET("/stats", h.GetStats)
	}
	return router
}

func enabledRouter() *gin.Engine {
	cfg := &config.Config{
		LLMProvider:    "stub",
		AnalysisPrompt: "analyze this packaging",
		MaxUploadBytes: 1024 * 1024,
	}
	svc := service.NewServiceWithClient(cfg, stubllm.NewClient(), nil, nil)
	return testRouter(cfg, svc)
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "upload.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestIndexServesPage(t *testing.T) {
	router := enabledRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "EcoAdvisor")
}

func TestHealthCheck(t *testing.T) {
	router := enabledRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestStatusEnabled(t *testing.T) {
	router := enabledRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, true, status["enabled"])
	assert.Equal(t, "Stub", status["provider"])
	assert.Equal(t, false, status["history_enabled"])
}

func TestAnalyzeReturnsFiveSections(t *testing.T) {
	router := enabledRouter()

	body, contentType := multipartImage(t, "image", pngBytes())
	req := httptest.NewRequest("POST", "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Source   string `json:"source"`
		Sections []struct {
			Label string `json:"label"`
			Body  string `json:"body"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Stub", result.Source)
	require.Len(t, result.Sections, 5)
	assert.Equal(t, "Product Description", result.Sections[0].Label)
	assert.NotEmpty(t, result.Sections[0].Body)
}

func TestAnalyzeMissingFile(t *testing.T) {
	router := enabledRouter()

	req := httptest.NewRequest("POST", "/api/v1/analyze", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeRejectsNonImageUpload(t *testing.T) {
	router := enabledRouter()

	body, contentType := multipartImage(t, "image", []byte("definitely not an image"))
	req := httptest.NewRequest("POST", "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:    "stub",
		AnalysisPrompt: "analyze this packaging",
		MaxUploadBytes: 16,
	}
	svc := service.NewServiceWithClient(cfg, stubllm.NewClient(), nil, nil)
	router := testRouter(cfg, svc)

	body, contentType := multipartImage(t, "image", pngBytes())
	req := httptest.NewRequest("POST", "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAnalyzeDisabledService(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:    "gemini",
		AnalysisPrompt: "analyze this packaging",
		MaxUploadBytes: 1024 * 1024,
	}
	svc := service.NewServiceWithClient(cfg, nil, nil, nil)
	router := testRouter(cfg, svc)

	body, contentType := multipartImage(t, "image", pngBytes())
	req := httptest.NewRequest("POST", "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestHistoryEndpointsDisabled(t *testing.T) {
	router := enabledRouter()

	for _, path := range []string{"/api/v1/analyses", "/api/v1/analyses/1", "/api/v1/stats"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equalf(t, http.StatusNotFound, w.Code, "GET %s", path)
	}
}

func TestVersion(t *testing.T) {
	router := enabledRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/version", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ecoadvisor-service")
}
