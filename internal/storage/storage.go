// Package storage abstracts the blob store holding original and
// watermarked photo files.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type Store interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Put(ctx context.Context, path string, r io.Reader) error

	// PublicURL returns the URL a browser can use to fetch a watermarked
	// object directly.
	PublicURL(path string) string
}
