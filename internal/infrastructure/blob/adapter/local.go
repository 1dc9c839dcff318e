package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/port"
)

// LocalUploader writes attachments to a directory on disk. Development
// substitute for S3; the directory is expected to be served statically.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir string, baseURL string) (*LocalUploader, error) {
	if dir == "" {
		return nil, errors.New("local uploader: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local uploader: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Ensure interface compliance at compile time
var _ port.Uploader = (*LocalUploader)(nil)

func (u *LocalUploader) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// filename is generated upstream; reject anything that escapes the dir
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("local uploader: invalid filename %q", filename)
	}
	if err := os.WriteFile(filepath.Join(u.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("local uploader: write: %w", err)
	}
	return u.baseURL + "/" + filename, nil
}
