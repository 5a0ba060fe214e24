package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-page-translator/internal/config"
	apperrors "go-page-translator/internal/errors"
	"go-page-translator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	translateErr error
	renderErr    error
	updateErr    error
	prefs        models.Preferences
	lastRequest  models.TranslateRequest
}

func (f *fakeService) Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslateResponse, error) {
	f.lastRequest = req
	if f.translateErr != nil {
		return nil, f.translateErr
	}
	return &models.TranslateResponse{
		RunID:    "run-1",
		ImageURL: req.URL,
		State:    "done",
		Lines: []models.TranslatedLine{{
			OriginalText:   "Hello",
			TranslatedText: "Ciao",
			BoundingBox:    models.SourceRect{Left: 1, Top: 2, Right: 30, Bottom: 12},
		}},
	}, nil
}

func (f *fakeService) Render(req models.RenderRequest) (*models.RenderResponse, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return &models.RenderResponse{Primitives: []models.OverlayPrimitive{}, GeometryUnavailable: true, Skipped: len(req.Lines)}, nil
}

func (f *fakeService) Preferences() models.Preferences { return f.prefs }

func (f *fakeService) UpdatePreferences(ctx context.Context, update models.PreferencesUpdate) (models.Preferences, error) {
	if f.updateErr != nil {
		return f.prefs, f.updateErr
	}
	if update.TargetLanguage != nil {
		f.prefs.TargetLanguage = *update.TargetLanguage
	}
	return f.prefs, nil
}

func (f *fakeService) ValidateImageURL(imageURL string) error { return nil }

type fakeMetrics struct{}

func (fakeMetrics) GetMetrics() map[string]interface{} {
	return map[string]interface{}{"total_runs": 3}
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1024,
	}
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, testConfig())
	w := serve(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "available")
}

func TestTranslate(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, nil, testConfig())

	w := serve(t, h, http.MethodPost, "/translate", `{"url":"https://example.com/p.png","auto_crop":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TranslateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "Ciao", resp.Lines[0].TranslatedText)
	require.NotNil(t, svc.lastRequest.AutoCrop)
	assert.True(t, *svc.lastRequest.AutoCrop)
}

func TestTranslateBadRequest(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, testConfig())

	w := serve(t, h, http.MethodPost, "/translate", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, h, http.MethodPost, "/translate", `{"url":"https://example.com/`+strings.Repeat("a", 2048)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranslateErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantType string
	}{
		{"recognition", apperrors.NewRecognitionError("text recognition failed", nil), http.StatusUnprocessableEntity, "recognition"},
		{"model", apperrors.NewModelUnavailableError("model unavailable", nil), http.StatusServiceUnavailable, "model_unavailable"},
		{"canceled", apperrors.NewCanceledError("translation run canceled", context.Canceled), http.StatusConflict, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{translateErr: tt.err}, nil, testConfig())
			w := serve(t, h, http.MethodPost, "/translate", `{"url":"https://example.com/p.png"}`)
			assert.Equal(t, tt.wantCode, w.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Type)
		})
	}
}

func TestRender(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, testConfig())

	w := serve(t, h, http.MethodPost, "/render", `{"lines":[{"translated_text":"Ciao"}],"viewer":{"kind":"free_zoom"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RenderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.GeometryUnavailable)
	assert.Equal(t, 1, resp.Skipped)

	w = serve(t, h, http.MethodPost, "/render", `{"lines":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreferences(t *testing.T) {
	svc := &fakeService{prefs: models.Preferences{SourceLanguage: "en", TargetLanguage: "it", BackgroundOpacity: 0.8, FontScale: 1}}
	h := NewHandler(svc, nil, testConfig())

	w := serve(t, h, http.MethodGet, "/preferences", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"target_language":"it"`)

	w = serve(t, h, http.MethodPut, "/preferences", `{"target_language":"ja"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"target_language":"ja"`)

	svc.updateErr = apperrors.NewValidationError("Invalid preferences", nil)
	w = serve(t, h, http.MethodPut, "/preferences", `{"font_scale":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	w := serve(t, NewHandler(&fakeService{}, fakeMetrics{}, testConfig()), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_runs")

	w = serve(t, NewHandler(&fakeService{}, nil, testConfig()), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
