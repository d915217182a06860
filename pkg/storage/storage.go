// Package storage keeps the original uploaded statement files on disk so an
// import can always be traced back to the exact bytes the bank produced.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrFileTooLarge rejects uploads above the configured limit.
var ErrFileTooLarge = errors.New("storage: file exceeds the upload size limit")

// ErrExtensionNotAllowed rejects files the decoder cannot handle.
var ErrExtensionNotAllowed = errors.New("storage: file extension not allowed")

// FileInfo contains metadata about a stored statement file.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for statement file retention.
type Storage interface {
	// Upload stores a statement file after the guard accepts it.
	Upload(ctx context.Context, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// GetReader streams a stored file back for decoding.
	GetReader(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, error)

	// GetInfo returns metadata for a file without reading it.
	GetInfo(ctx context.Context, fileID uuid.UUID) (*FileInfo, error)

	// List returns every retained statement file.
	List(ctx context.Context) ([]*FileInfo, error)

	// Delete removes a file and its metadata.
	Delete(ctx context.Context, fileID uuid.UUID) error
}

// Config holds storage configuration.
type Config struct {
	BasePath string
	// MaxUploadBytes caps accepted file size; zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// AllowedExtensions is the lowercase allow-list; nil means defaults.
	AllowedExtensions []string
}

// DefaultMaxUploadBytes is generous for bank exports, which rarely pass 1 MB.
const DefaultMaxUploadBytes = 20 << 20

func defaultExtensions() []string {
	return []string{".csv", ".txt", ".xlsx", ".xls"}
}

// Guard validates an upload before any bytes are written.
type Guard struct {
	maxBytes   int64
	extensions map[string]bool
}

// NewGuard builds a guard from configuration.
func NewGuard(cfg Config) *Guard {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	allowed := cfg.AllowedExtensions
	if len(allowed) == 0 {
		allowed = defaultExtensions()
	}
	extensions := make(map[string]bool, len(allowed))
	for _, ext := range allowed {
		extensions[strings.ToLower(ext)] = true
	}

	return &Guard{maxBytes: maxBytes, extensions: extensions}
}

// CheckName validates the filename extension.
func (g *Guard) CheckName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !g.extensions[ext] {
		return fmt.Errorf("%w: %q", ErrExtensionNotAllowed, ext)
	}
	return nil
}

// MaxBytes reports the configured size limit.
func (g *Guard) MaxBytes() int64 { return g.maxBytes }
