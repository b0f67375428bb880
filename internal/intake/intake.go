// Package intake turns a locally selected file into the single pending image
// awaiting analysis: read, validate as an image, encode as a data URL.
package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	// Register the supported image formats for DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrNoPendingImage is returned by Export when nothing is pending.
var ErrNoPendingImage = errors.New("no pending image")

// exportFallbackName is used when the source filename is unusable.
const exportFallbackName = "crop-detection.jpg"

// PendingImage is the one image awaiting submission.
type PendingImage struct {
	Payload  string // data URL: "data:image/<format>;base64,..."
	Filename string // base name of the selected file
	raw      []byte
	format   string
}

// Format returns the decoded image format ("png", "jpeg", "gif").
func (p PendingImage) Format() string { return p.format }

// Pipeline holds at most one PendingImage at a time. A new selection replaces
// the previous one atomically; a failed selection leaves it untouched.
type Pipeline struct {
	mu      sync.Mutex
	pending *PendingImage
}

// NewPipeline returns an empty Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Select reads and validates the file at path. On success the pending image
// is replaced; on any failure the previous pending image (if any) survives.
func (p *Pipeline) Select(path string) (PendingImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PendingImage{}, fmt.Errorf("reading image file: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return PendingImage{}, fmt.Errorf("%s is not a supported image: %w", filepath.Base(path), err)
	}

	img := PendingImage{
		Payload:  "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data),
		Filename: filepath.Base(path),
		raw:      data,
		format:   format,
	}

	p.mu.Lock()
	p.pending = &img
	p.mu.Unlock()
	return img, nil
}

// Pending returns the current pending image, if any.
func (p *Pipeline) Pending() (PendingImage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return PendingImage{}, false
	}
	return *p.pending, true
}

// Reset clears the pending image unconditionally.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
}

// Export writes the pending image's original bytes into dir and returns the
// written path. No network is involved. Returns ErrNoPendingImage when there
// is nothing to save.
func (p *Pipeline) Export(dir string) (string, error) {
	p.mu.Lock()
	img := p.pending
	p.mu.Unlock()
	if img == nil {
		return "", ErrNoPendingImage
	}

	name := img.Filename
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = exportFallbackName
	}
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, img.raw, 0o644); err != nil {
		return "", fmt.Errorf("saving image copy: %w", err)
	}
	return dst, nil
}
