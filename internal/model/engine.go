package model

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"

	"gauge-api/internal/verdict"
)

// InferenceError reports a classifier that could not process an input.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return "inference failed: " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

// inferSession is one ONNX session with its preallocated input/output
// tensors. A session's tensors are reused between runs, so a session
// must never be shared between concurrent inferences.
type inferSession struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// Engine wraps a pretrained single-label image classifier. It is loaded
// once at startup and read-only afterwards. Concurrent requests check
// out a session from a bounded pool; with one worker this degenerates
// to an engine-wide inference lock.
type Engine struct {
	meta  Metadata
	names map[int]string
	pool  chan *inferSession
}

// NewEngine loads the weights and metadata and prepares workers
// independent inference sessions. It fails if the model's vocabulary
// does not cover the expected semantic classes.
func NewEngine(modelPath, metadataPath string, workers int) (*Engine, error) {
	if workers < 1 {
		workers = 1
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	metaFile, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(metaFile, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if err := verdict.Validate(meta.Classes); err != nil {
		return nil, fmt.Errorf("model %s: %w", modelPath, err)
	}

	pool := make(chan *inferSession, workers)
	for i := 0; i < workers; i++ {
		s, err := newInferSession(modelPath, meta)
		if err != nil {
			for len(pool) > 0 {
				(<-pool).destroy()
			}
			return nil, err
		}
		pool <- s
	}

	return &Engine{
		meta:  meta,
		names: verdict.FilterClasses(meta.Classes),
		pool:  pool,
	}, nil
}

func newInferSession(modelPath string, meta Metadata) (*inferSession, error) {
	inputShape := ort.NewShape(meta.InputShape...)
	outputShape := ort.NewShape(meta.OutputShape...)

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &inferSession{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *inferSession) destroy() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}

// Classes returns the model's full vocabulary, artifact entries included.
func (e *Engine) Classes() []string {
	return e.meta.Classes
}

// Classify resizes the image to the model's input size, runs a forward
// pass and returns the top-1 class. Session checkout respects the
// context deadline, bounding how long a request waits for a free
// worker. Artifact entries are excluded from the label table, so an
// artifact index surfaces as the label "Unknown", never by name.
func (e *Engine) Classify(ctx context.Context, img image.Image) (Result, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Result{}, &InferenceError{Err: fmt.Errorf("zero-dimension image %dx%d", b.Dx(), b.Dy())}
	}

	input := preprocess(img, e.meta.ImageSize)

	var s *inferSession
	select {
	case s = <-e.pool:
	case <-ctx.Done():
		return Result{}, &InferenceError{Err: ctx.Err()}
	}
	defer func() { e.pool <- s }()

	copy(s.inputTensor.GetData(), input)
	if err := s.session.Run(); err != nil {
		return Result{}, &InferenceError{Err: err}
	}

	id, conf := top1(s.outputTensor.GetData(), len(e.meta.Classes))

	label, ok := e.names[id]
	if !ok {
		label = "Unknown"
	}

	return Result{ClassID: id, Label: label, Confidence: conf}, nil
}

// preprocess converts an image to the CHW float32 layout the model
// expects, resizing to size×size.
func preprocess(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	inputData := make([]float32, 3*width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*width + x
			inputData[pixelIndex] = float32(r) / 65535.0
			inputData[width*height+pixelIndex] = float32(g) / 65535.0
			inputData[2*width*height+pixelIndex] = float32(b) / 65535.0
		}
	}

	return inputData
}

// top1 returns the index and score of the highest-scoring class. Only
// the first limit scores are considered; the output tensor may be
// padded beyond the vocabulary.
func top1(scores []float32, limit int) (int, float32) {
	if limit > len(scores) {
		limit = len(scores)
	}
	if limit == 0 {
		return 0, 0
	}

	maxIdx := 0
	maxVal := scores[0]
	for i := 1; i < limit; i++ {
		if scores[i] > maxVal {
			maxVal = scores[i]
			maxIdx = i
		}
	}
	return maxIdx, maxVal
}

// Close destroys all pooled sessions and tears down the ONNX runtime.
func (e *Engine) Close() {
	for i := 0; i < cap(e.pool); i++ {
		(<-e.pool).destroy()
	}
	ort.DestroyEnvironment()
}
