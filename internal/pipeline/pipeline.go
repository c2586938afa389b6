package pipeline

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"gauge-api/internal/imaging"
	"gauge-api/internal/model"
	"gauge-api/internal/store"
	"gauge-api/internal/verdict"
)

// ErrNoImage reports a request without an image payload.
var ErrNoImage = errors.New("no image provided")

// defaultGaugeID is used when a request omits the gauge identifier.
const defaultGaugeID = "FE0001"

// Classifier scores one decoded image. *model.Engine implements it;
// tests substitute a stub.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (model.Result, error)
}

// Request carries one upload after transport validation.
type Request struct {
	GaugeID string
	ValRead string
	Lat     string
	Lon     string
	IP      string
	Image   string // base64 payload, optionally with a data-URI prefix
}

// Response is returned to the transport on success.
type Response struct {
	Status      string `json:"status"`
	ResultImage string `json:"result_image"`
}

// Pipeline runs one inspection end to end: decode, classify, resolve,
// annotate, persist. Every stage failure aborts the rest of the request;
// files already written before a later failure are left as orphans and
// never referenced by a record.
type Pipeline struct {
	classifier   Classifier
	records      store.RecordStore
	uploadDir    string
	resultDir    string
	inferTimeout time.Duration
	log          *zap.Logger
	now          func() time.Time
}

// New wires a pipeline from its injected dependencies.
func New(classifier Classifier, records store.RecordStore, uploadDir, resultDir string, inferTimeout time.Duration, log *zap.Logger) *Pipeline {
	return &Pipeline{
		classifier:   classifier,
		records:      records,
		uploadDir:    uploadDir,
		resultDir:    resultDir,
		inferTimeout: inferTimeout,
		log:          log,
		now:          time.Now,
	}
}

// Inspect processes one request. The record is inserted only after both
// image files are durably written, so a persisted record always points
// at files that exist.
func (p *Pipeline) Inspect(ctx context.Context, req Request) (*Response, error) {
	if req.Image == "" {
		return nil, ErrNoImage
	}

	gaugeID := req.GaugeID
	if gaugeID == "" {
		gaugeID = defaultGaugeID
	}

	buf, err := imaging.Decode(req.Image)
	if err != nil {
		return nil, err
	}

	// Same-second requests for one gauge produce the same names and
	// overwrite each other; see the filename policy in imaging.
	timestamp := p.now().Format(imaging.TimestampLayout)
	uploadPath := filepath.Join(p.uploadDir, imaging.FileName(gaugeID, timestamp))
	resultPath := filepath.Join(p.resultDir, imaging.ResultFileName(gaugeID, timestamp))

	cctx := ctx
	if p.inferTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, p.inferTimeout)
		defer cancel()
	}

	result, err := p.classifier.Classify(cctx, buf.Image)
	if err != nil {
		return nil, err
	}

	v := verdict.Resolve(result.Label)
	p.log.Info("classified gauge photo",
		zap.String("gauge_id", gaugeID),
		zap.String("label", result.Label),
		zap.String("verdict", string(v)),
		zap.Float32("confidence", result.Confidence),
	)

	annotated, err := imaging.Annotate(buf.Image, string(v))
	if err != nil {
		return nil, err
	}

	if err := imaging.WriteOriginal(buf, uploadPath); err != nil {
		return nil, err
	}
	if err := imaging.WriteAnnotated(annotated, resultPath); err != nil {
		return nil, err
	}

	rec := &store.InspectionRecord{
		GaugeID:     gaugeID,
		IP:          req.IP,
		Lat:         req.Lat,
		Lon:         req.Lon,
		Timestamp:   timestamp,
		ValAI:       string(v),
		ValRead:     req.ValRead,
		Image:       "/" + filepath.ToSlash(uploadPath),
		ResultImage: "/" + filepath.ToSlash(resultPath),
	}
	if err := p.records.Insert(ctx, rec); err != nil {
		return nil, err
	}

	return &Response{Status: "ok", ResultImage: rec.ResultImage}, nil
}
