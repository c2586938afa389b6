package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gauge-api/internal/model"
	"gauge-api/internal/pipeline"
	"gauge-api/internal/store"
)

type stubClassifier struct {
	result model.Result
	err    error
}

func (s stubClassifier) Classify(ctx context.Context, img image.Image) (model.Result, error) {
	return s.result, s.err
}

type downStore struct{}

func (downStore) Insert(ctx context.Context, rec *store.InspectionRecord) error {
	return &store.PersistenceError{Err: context.DeadlineExceeded}
}

func (downStore) Ping(ctx context.Context) store.Health {
	return store.Health{OK: false, Detail: "server selection timeout"}
}

func pngPayload(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func chdirTemp(t *testing.T) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func newTestHandler(c pipeline.Classifier, records store.RecordStore) *Handler {
	log := zap.NewNop()
	p := pipeline.New(c, records, "static/uploads", "static/results", 0, log)
	return NewHandler(p, records, log)
}

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestHealthOK(t *testing.T) {
	h := newTestHandler(stubClassifier{}, store.NewMemoryStore())

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestHealthStoreUnreachable(t *testing.T) {
	h := newTestHandler(stubClassifier{}, downStore{})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "error", body["status"])
	require.NotEmpty(t, body["detail"])
}

func TestUploadMissingImage(t *testing.T) {
	records := store.NewMemoryStore()
	h := newTestHandler(stubClassifier{}, records)

	w := postForm(h.Upload, url.Values{"gauge_id": {"FE0001"}})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "No image provided", body["error"])
	require.Empty(t, records.Records())
}

func TestUploadInvalidPayload(t *testing.T) {
	records := store.NewMemoryStore()
	h := newTestHandler(stubClassifier{}, records)

	w := postForm(h.Upload, url.Values{"image": {"%%%not-base64%%%"}})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, records.Records())
}

func TestUploadSuccess(t *testing.T) {
	chdirTemp(t)

	records := store.NewMemoryStore()
	h := newTestHandler(stubClassifier{result: model.Result{ClassID: 1, Label: "in_pressure", Confidence: 0.88}}, records)

	form := url.Values{
		"gauge_id": {"FE0001"},
		"val_read": {"0.5"},
		"lat":      {"13.75"},
		"lon":      {"100.50"},
		"image":    {"data:image/png;base64," + pngPayload(t)},
	}
	w := postForm(h.Upload, form)

	require.Equal(t, http.StatusOK, w.Code)

	var body pipeline.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.True(t, strings.HasPrefix(body.ResultImage, "/static/results/FE0001_"))

	got := records.Records()
	require.Len(t, got, 1)
	require.Equal(t, "OK", got[0].ValAI)
	require.NotEmpty(t, got[0].IP, "peer address is recorded when the form omits ip")
}

func TestUploadInferenceFailure(t *testing.T) {
	chdirTemp(t)

	records := store.NewMemoryStore()
	h := newTestHandler(stubClassifier{err: &model.InferenceError{Err: context.DeadlineExceeded}}, records)

	w := postForm(h.Upload, url.Values{"image": {pngPayload(t)}})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Empty(t, records.Records())
}

func TestUploadMethodNotAllowed(t *testing.T) {
	h := newTestHandler(stubClassifier{}, store.NewMemoryStore())

	w := httptest.NewRecorder()
	h.Upload(w, httptest.NewRequest(http.MethodGet, "/upload", nil))

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
