package render

import (
	"context"
	"os"
	"sync"
	"time"
)

// SealLoader provides the issuer's seal image (PNG). A failed load degrades
// the export to an unsealed document; it never fails the operation.
type SealLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileSealLoader reads the seal from disk with one retry after a fixed
// backoff, then caches the result for the life of the process.
type FileSealLoader struct {
	path    string
	backoff time.Duration

	mu     sync.Mutex
	cached []byte
}

func NewFileSealLoader(path string, backoff time.Duration) *FileSealLoader {
	return &FileSealLoader{path: path, backoff: backoff}
}

func (l *FileSealLoader) Load(ctx context.Context) ([]byte, error) {
	if l.path == "" {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil {
		return l.cached, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		select {
		case <-time.After(l.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		data, err = os.ReadFile(l.path)
		if err != nil {
			return nil, err
		}
	}

	l.cached = data
	return data, nil
}
