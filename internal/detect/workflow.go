// Package detect drives a single in-flight analysis request from a pending
// image to a result or error.
package detect

import (
	"context"
	"sync"

	"github.com/fakeyudi/cropscan/internal/api"
	"github.com/fakeyudi/cropscan/internal/intake"
)

// State is the workflow phase: Idle → Analyzing → Succeeded|Failed → Idle
// (via reset or a new selection).
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Analyzer is the remote surface the workflow needs. *api.Client satisfies it.
type Analyzer interface {
	Detect(ctx context.Context, image string) (api.Detection, error)
}

// Workflow owns the pending image, the analysis state machine and the
// detection result. At most one analysis is in flight per Workflow.
type Workflow struct {
	svc    Analyzer
	images *intake.Pipeline

	mu     sync.Mutex
	state  State
	result *api.Detection
	errMsg string

	// changed carries the history-changed signal emitted after each
	// successful analysis. Buffered so emitting never blocks the workflow.
	changed chan struct{}
}

// NewWorkflow returns an idle Workflow over the given pipeline.
func NewWorkflow(svc Analyzer, images *intake.Pipeline) *Workflow {
	return &Workflow{
		svc:     svc,
		images:  images,
		changed: make(chan struct{}, 1),
	}
}

// HistoryChanged is the subscription channel for "a detection was recorded";
// the history aggregator listens on it to trigger a refresh.
func (w *Workflow) HistoryChanged() <-chan struct{} {
	return w.changed
}

// Select routes a file selection through the intake pipeline. On success any
// previous result or error is discarded and the workflow returns to idle;
// a failed selection changes nothing.
func (w *Workflow) Select(path string) (intake.PendingImage, error) {
	img, err := w.images.Select(path)
	if err != nil {
		return intake.PendingImage{}, err
	}

	w.mu.Lock()
	if w.state != StateAnalyzing {
		w.state = StateIdle
	}
	w.result = nil
	w.errMsg = ""
	w.mu.Unlock()
	return img, nil
}

// Reset clears the pending image, the result and any error.
func (w *Workflow) Reset() {
	w.images.Reset()

	w.mu.Lock()
	if w.state != StateAnalyzing {
		w.state = StateIdle
	}
	w.result = nil
	w.errMsg = ""
	w.mu.Unlock()
}

// Analyze submits the pending image. Without a pending image, or while an
// analysis is already in flight, it is a no-op rather than an error. On failure the
// pending image is kept so the user can retry without re-selecting. The
// history-changed signal for a success is emitted before Analyze returns.
func (w *Workflow) Analyze(ctx context.Context) {
	img, ok := w.images.Pending()
	if !ok {
		return
	}

	w.mu.Lock()
	if w.state == StateAnalyzing {
		w.mu.Unlock()
		return
	}
	w.state = StateAnalyzing
	w.result = nil
	w.errMsg = ""
	w.mu.Unlock()

	det, err := w.svc.Detect(ctx, img.Payload)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateFailed
		w.errMsg = api.ErrorMessage(err, "Failed to analyze image")
		return
	}
	w.state = StateSucceeded
	w.result = &det

	select {
	case w.changed <- struct{}{}:
	default: // a signal is already pending; one refresh covers both
	}
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Result returns the detection result of the last successful analysis.
func (w *Workflow) Result() (api.Detection, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return api.Detection{}, false
	}
	return *w.result, true
}

// Err returns the user-facing error of the last failed analysis, or "".
func (w *Workflow) Err() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

// Pending returns the image currently awaiting analysis, if any.
func (w *Workflow) Pending() (intake.PendingImage, bool) {
	return w.images.Pending()
}

// Export offers the pending image for local saving; see intake.Pipeline.Export.
func (w *Workflow) Export(dir string) (string, error) {
	return w.images.Export(dir)
}
