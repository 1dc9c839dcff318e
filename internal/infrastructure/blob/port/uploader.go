package port

import "context"

// Uploader stores raw bytes under the given filename and returns a publicly
// resolvable URL for them. Implementations must be concurrency-safe.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error)
}
