package storage

import (
	"errors"
	"io"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid blob key")

// BlobStore holds question images and other uploaded files.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Exists(key string) bool
}

// ImageKey is where the image file of a question in course code lives. The
// gateway serves it under {ImageBaseURL}/{code}/{file}.
func ImageKey(code, file string) (string, error) {
	for _, part := range []string{code, file} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", ErrInvalidKey
		}
	}
	return path.Join("img", code, file), nil
}
