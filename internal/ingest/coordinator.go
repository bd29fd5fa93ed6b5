// ABOUTME: Ingestion coordinator managing one document submission at a time
// ABOUTME: Owns the selected file and busy flag; both reset on every exit path

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/2389/genia/internal/api"
)

// Ingestion errors
var (
	ErrUploadInFlight  = errors.New("an upload is already in progress")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// DefaultExtensions are the document types the picker offers.
var DefaultExtensions = []string{".pdf", ".txt", ".md"}

// Uploader submits a document. *api.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*api.Ack, error)
}

// Coordinator tracks the selected file and whether a submission is outstanding.
// At most one upload runs at a time.
type Coordinator struct {
	mu       sync.Mutex
	uploader Uploader
	allowed  map[string]bool
	selected File
	busy     bool
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator accepting DefaultExtensions. Pass nil logger for default.
func NewCoordinator(uploader Uploader, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		uploader: uploader,
		logger:   logger.With("component", "ingest"),
	}
	c.SetExtensions(DefaultExtensions)
	return c
}

// SetExtensions replaces the accepted extensions. An empty list accepts everything.
func (c *Coordinator) SetExtensions(exts []string) {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	c.mu.Lock()
	c.allowed = allowed
	c.mu.Unlock()
}

// Select sets the file for the next Upload. A nil file clears the selection.
func (c *Coordinator) Select(f File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return ErrUploadInFlight
	}
	c.selected = f
	return nil
}

// Selected returns the currently selected file, if any.
func (c *Coordinator) Selected() (File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != nil
}

// Clear drops the selection. It is a no-op while an upload is outstanding;
// the running upload clears it when it finishes.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.busy {
		c.selected = nil
	}
}

// Busy reports whether a submission is outstanding.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Upload submits the selected file. With nothing selected it is a no-op and
// returns (nil, nil). Whatever the outcome, the busy flag is reset and the
// selection cleared before Upload returns.
func (c *Coordinator) Upload(ctx context.Context) (*api.Ack, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrUploadInFlight
	}
	f := c.selected
	if f == nil {
		c.mu.Unlock()
		return nil, nil
	}
	c.busy = true
	allowed := c.allowed
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.selected = nil
		c.mu.Unlock()
	}()

	name := f.Name()
	if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(name))] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	c.logger.Info("uploading document", "filename", name)

	ack, err := c.uploader.Upload(ctx, name, rc)
	if err != nil {
		c.logger.Warn("upload failed", "filename", name, "error", err)
		return nil, err
	}

	c.logger.Info("document indexed",
		"filename", name,
		"status", ack.Status,
		"chunks", ack.Chunks)
	return ack, nil
}
