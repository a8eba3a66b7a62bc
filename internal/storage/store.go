package storage

import (
	"context"
	"io"
)

// Store defines the interface for the file backend a conversion reads its
// inputs from and writes its subtitle file to.
type Store interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Create(ctx context.Context, path string) (*Output, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
