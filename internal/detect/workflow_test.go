package detect_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fakeyudi/cropscan/internal/api"
	"github.com/fakeyudi/cropscan/internal/detect"
	"github.com/fakeyudi/cropscan/internal/intake"
)

// stubAnalyzer counts requests and answers from a script. When block is set,
// Detect waits until release is closed, so tests can hold a request in flight.
type stubAnalyzer struct {
	mu      sync.Mutex
	calls   int
	det     api.Detection
	err     error
	block   bool
	release chan struct{}
}

func (s *stubAnalyzer) Detect(ctx context.Context, image string) (api.Detection, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block {
		<-s.release
	}
	return s.det, s.err
}

func (s *stubAnalyzer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func selectTestImage(t *testing.T, w *detect.Workflow) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "leaf.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing test png: %v", err)
	}
	if _, err := w.Select(path); err != nil {
		t.Fatalf("Select: %v", err)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := &stubAnalyzer{det: api.Detection{ID: 7, Disease: "Healthy", Confidence: 0.99}}
	w := detect.NewWorkflow(svc, intake.NewPipeline())
	selectTestImage(t, w)

	w.Analyze(context.Background())

	if w.State() != detect.StateSucceeded {
		t.Errorf("state = %v, want succeeded", w.State())
	}
	res, ok := w.Result()
	if !ok || res.Confidence != 0.99 || res.Disease != "Healthy" {
		t.Errorf("result = %+v, ok = %v", res, ok)
	}

	// Exactly one refresh signal, emitted before Analyze returned.
	select {
	case <-w.HistoryChanged():
	default:
		t.Fatal("expected a history-changed signal after success")
	}
	select {
	case <-w.HistoryChanged():
		t.Error("expected exactly one signal, got a second")
	default:
	}
}

func TestAnalyzeWithoutPendingImageIsNoOp(t *testing.T) {
	svc := &stubAnalyzer{}
	w := detect.NewWorkflow(svc, intake.NewPipeline())

	w.Analyze(context.Background())

	if svc.callCount() != 0 {
		t.Errorf("calls = %d, want 0", svc.callCount())
	}
	if w.State() != detect.StateIdle {
		t.Errorf("state = %v, want idle", w.State())
	}
}

func TestAnalyzeIsSingleFlight(t *testing.T) {
	svc := &stubAnalyzer{
		det:     api.Detection{ID: 1, Disease: "Late Blight", Confidence: 0.8},
		block:   true,
		release: make(chan struct{}),
	}
	w := detect.NewWorkflow(svc, intake.NewPipeline())
	selectTestImage(t, w)

	done := make(chan struct{})
	go func() {
		w.Analyze(context.Background())
		close(done)
	}()

	// Wait for the first call to be in flight.
	deadline := time.After(3 * time.Second)
	for w.State() != detect.StateAnalyzing {
		select {
		case <-deadline:
			t.Fatal("first Analyze never reached the analyzing state")
		case <-time.After(time.Millisecond):
		}
	}

	// Second call while in flight: must return without issuing a request.
	w.Analyze(context.Background())
	if svc.callCount() != 1 {
		t.Errorf("calls = %d, want 1 (second Analyze must be a no-op)", svc.callCount())
	}

	close(svc.release)
	<-done

	if w.State() != detect.StateSucceeded {
		t.Errorf("state = %v, want succeeded", w.State())
	}
	if svc.callCount() != 1 {
		t.Errorf("calls = %d, want exactly 1", svc.callCount())
	}
}

func TestAnalyzeFailureKeepsPendingImage(t *testing.T) {
	svc := &stubAnalyzer{err: &api.APIError{Status: 400, Message: "Invalid image format"}}
	w := detect.NewWorkflow(svc, intake.NewPipeline())
	selectTestImage(t, w)

	w.Analyze(context.Background())

	if w.State() != detect.StateFailed {
		t.Errorf("state = %v, want failed", w.State())
	}
	if w.Err() != "Invalid image format" {
		t.Errorf("err = %q, want server text", w.Err())
	}
	if _, ok := w.Pending(); !ok {
		t.Error("pending image must survive a failed analysis for retry")
	}
	select {
	case <-w.HistoryChanged():
		t.Error("no history-changed signal on failure")
	default:
	}

	// Retry without re-selecting.
	svc.mu.Lock()
	svc.err = nil
	svc.det = api.Detection{ID: 2, Disease: "Early Blight", Confidence: 0.92}
	svc.mu.Unlock()

	w.Analyze(context.Background())
	if w.State() != detect.StateSucceeded {
		t.Errorf("state after retry = %v, want succeeded", w.State())
	}
	if w.Err() != "" {
		t.Errorf("error must be cleared on retry, got %q", w.Err())
	}
}

func TestSelectThenResetLeavesNothing(t *testing.T) {
	svc := &stubAnalyzer{err: &api.APIError{Status: 500, Message: "Disease detection failed"}}
	w := detect.NewWorkflow(svc, intake.NewPipeline())
	selectTestImage(t, w)
	w.Analyze(context.Background()) // leave an error behind

	w.Reset()

	if _, ok := w.Pending(); ok {
		t.Error("Reset must clear the pending image")
	}
	if _, ok := w.Result(); ok {
		t.Error("Reset must clear the result")
	}
	if w.Err() != "" {
		t.Errorf("Reset must clear the error, got %q", w.Err())
	}
	if w.State() != detect.StateIdle {
		t.Errorf("state = %v, want idle", w.State())
	}
}

func TestNewSelectionDiscardsPreviousResult(t *testing.T) {
	svc := &stubAnalyzer{det: api.Detection{ID: 3, Disease: "Healthy", Confidence: 0.97}}
	w := detect.NewWorkflow(svc, intake.NewPipeline())
	selectTestImage(t, w)
	w.Analyze(context.Background())
	<-w.HistoryChanged()

	selectTestImage(t, w)

	if _, ok := w.Result(); ok {
		t.Error("a new selection must discard the previous result")
	}
	if w.State() != detect.StateIdle {
		t.Errorf("state = %v, want idle after new selection", w.State())
	}
}
