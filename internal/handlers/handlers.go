package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gauge-api/internal/imaging"
	"gauge-api/internal/pipeline"
	"gauge-api/internal/store"
)

// Handler exposes the inspection pipeline over HTTP.
type Handler struct {
	pipeline *pipeline.Pipeline
	records  store.RecordStore
	log      *zap.Logger
}

// NewHandler wires the transport to its collaborators.
func NewHandler(p *pipeline.Pipeline, records store.RecordStore, log *zap.Logger) *Handler {
	return &Handler{
		pipeline: p,
		records:  records,
		log:      log,
	}
}

// Health probes the record store and maps the result to 200/500.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.records.Ping(r.Context())
	if !status.OK {
		h.log.Warn("record store unreachable", zap.String("detail", status.Detail))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"detail": status.Detail,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Upload accepts one gauge photo as a form post and runs the pipeline.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form (10MB max); plain urlencoded forms are
	// populated by the same call.
	if err := r.ParseMultipartForm(10 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to parse form"})
		return
	}

	img := r.FormValue("image")
	if img == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No image provided"})
		return
	}

	ip := r.FormValue("ip")
	if ip == "" {
		ip = r.RemoteAddr
	}

	req := pipeline.Request{
		GaugeID: r.FormValue("gauge_id"),
		ValRead: r.FormValue("val_read"),
		Lat:     r.FormValue("lat"),
		Lon:     r.FormValue("lon"),
		IP:      ip,
		Image:   img,
	}

	resp, err := h.pipeline.Inspect(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the pipeline's error taxonomy onto status codes:
// missing or undecodable payloads are the client's fault, everything
// else is ours.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var invalid *imaging.InvalidImageError
	switch {
	case errors.Is(err, pipeline.ErrNoImage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No image provided"})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": invalid.Error()})
	default:
		h.log.Error("inspection failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Inspection failed"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
