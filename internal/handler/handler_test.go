package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmill/textmill/internal/model"
	"github.com/textmill/textmill/internal/ocr"
	"github.com/textmill/textmill/internal/registry"
	"github.com/textmill/textmill/internal/service"
	"github.com/textmill/textmill/internal/storage"
	"github.com/textmill/textmill/pkg/middleware"
)

type stubEngine struct{}

func (stubEngine) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"eng", "deu"}, nil
}

func (stubEngine) Recognize(ctx context.Context, inputs []ocr.PageInput, progress ocr.ProgressFunc) ([]ocr.PageResult, error) {
	results := make([]ocr.PageResult, len(inputs))
	for i := range inputs {
		if !progress(0) {
			return nil, ocr.ErrCanceled
		}
		if !progress(100) {
			return nil, ocr.ErrCanceled
		}
		results[i] = ocr.PageResult{PlainText: "recognized page"}
	}
	return results, nil
}

func (stubEngine) DataDirectory() string { return "" }

func newTestServer(t *testing.T) (*httptest.Server, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	svc := service.NewRecognitionService(registry.New(10), store, stubEngine{}, nil, nil)

	router := NewRouter(
		NewOCRHandler(svc),
		NewUploadHandler(store),
		NewHistoryHandler(nil),
		NewHealthHandler(svc, "test"),
		middleware.CORSConfig{AllowedOrigins: "*"},
		http.Dir(store.Root()),
	)
	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func uploadPage(t *testing.T, server *httptest.Server, sessionID string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.White)
		}
	}
	var imgBuf bytes.Buffer
	require.NoError(t, png.Encode(&imgBuf, img))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("sessionId", sessionID))
	part, err := writer.CreateFormFile("file", "page.png")
	require.NoError(t, err)
	_, err = part.Write(imgBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/api/v1/files/upload", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload UploadResponse
	decodeBody(t, resp, &upload)
	require.True(t, upload.Success)
	require.NotEmpty(t, upload.FileID)
	return upload.FileID
}

func TestLanguagesEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/ocr/languages", struct{}{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body LanguagesResponse
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, []string{"eng", "deu"}, body.Languages)
}

func TestRecognitionLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	fileID := uploadPage(t, server, "sess")

	resp := postJSON(t, server.URL+"/api/v1/ocr/recognize", model.RecognizeRequest{
		SessionID:      "sess",
		Pages:          []model.PageRef{{FileID: fileID}},
		Languages:      []string{"eng"},
		ResultFileName: "report",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var admit APIResponse
	decodeBody(t, resp, &admit)
	require.True(t, admit.Success)

	// Poll until the job publishes its artifact.
	var status StatusResponse
	require.Eventually(t, func() bool {
		resp := postJSON(t, server.URL+"/api/v1/ocr/status", map[string]string{"sessionId": "sess"})
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		decodeBody(t, resp, &status)
		return status.Status != nil && status.Status.Phase == model.PhaseFinished
	}, 5*time.Second, 10*time.Millisecond)

	require.True(t, status.Success)
	assert.Equal(t, "recognized page", status.Status.RecognizedText)
	assert.Equal(t, "/files/sess/report.txt", status.Status.ResultPath)

	// The published artifact downloads over the static file route.
	download, err := http.Get(server.URL + status.Status.ResultPath)
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, http.StatusOK, download.StatusCode)

	// The terminal poll evicted the session.
	resp = postJSON(t, server.URL+"/api/v1/ocr/status", map[string]string{"sessionId": "sess"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRecognizeRejectsInvalidRequest(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/ocr/recognize", model.RecognizeRequest{
		SessionID:      "sess",
		Pages:          []model.PageRef{{FileID: "f"}},
		Languages:      []string{"eng"},
		ResultFileName: "bad+name",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body APIResponse
	decodeBody(t, resp, &body)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.ErrorMessage)
}

func TestAbortWithoutActiveJob(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/v1/ocr/abort", map[string]string{"sessionId": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHistoryDisabledReturns503(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/jobs/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMethodRestrictions(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/ocr/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = postJSON(t, server.URL+"/api/v1/jobs/history", struct{}{})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	var health HealthResponse
	decodeBody(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)

	resp, err = http.Get(server.URL + "/ready")
	require.NoError(t, err)
	var ready ReadyResponse
	decodeBody(t, resp, &ready)
	assert.True(t, ready.Ready)
}
