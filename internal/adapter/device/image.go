package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// FileImage "picks" the image at a fixed path. An empty path acts as a
// dismissed picker.
type FileImage struct {
	path string
}

// NewFileImage creates a provider for path.
func NewFileImage(path string) *FileImage {
	return &FileImage{path: strings.TrimSpace(path)}
}

// PickImage returns a draft pointing at the file. The content type is sniffed
// from the first bytes; non-image content is reported as-is and rejected by
// the backend. quality is ignored on this device.
func (f *FileImage) PickImage(ctx context.Context, _ float64) (*domain.ImageDraft, error) {
	if f.path == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(f.path)
	if err != nil {
		return nil, fmt.Errorf("device.PickImage: %w", err)
	}

	file, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("device.PickImage %s: %w", abs, domain.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("device.PickImage: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("device.PickImage: %w", err)
	}
	if info.IsDir() {
		return nil, domain.NewValidationError("image", fmt.Sprintf("%s is a directory", f.path))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("device.PickImage: read %s: %w", abs, err)
	}

	var mimeType string
	if n > 0 {
		mimeType, _, _ = strings.Cut(http.DetectContentType(head[:n]), ";")
	}

	return &domain.ImageDraft{
		URI:      "file://" + abs,
		Filename: filepath.Base(abs),
		MIMEType: mimeType,
	}, nil
}
