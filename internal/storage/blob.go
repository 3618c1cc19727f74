package storage

import (
	"errors"
	"io"
)

var ErrNotExist = errors.New("blob does not exist")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)       // ErrNotExist when missing
	Exists(key string) (bool, error)
	Delete(key string) error // missing keys are not an error
}
