// Package repository persists CV documents. Documents are stored as their
// canonical JSON text under a storage key; every backend only moves bytes and
// the codec is applied here, in one place.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cv-builder/internal/codec"
	"cv-builder/internal/model"
)

// BaseKey is the storage key of the single local document.
const BaseKey = "cv-data"

// ErrNotFound is returned by a BlobStore when nothing is stored under a key.
var ErrNotFound = errors.New("document not found")

// StorageKey returns the key for subject's document; an empty subject is the
// local single-user document.
func StorageKey(subject string) string {
	if subject == "" {
		return BaseKey
	}
	return BaseKey + ":" + subject
}

// BlobStore is implemented by each storage backend.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// DocumentStore loads and saves whole documents.
type DocumentStore interface {
	Load(ctx context.Context, key string) (model.Document, error)
	Save(ctx context.Context, key string, d model.Document) error
}

// Codec adapts a BlobStore to DocumentStore.
type Codec struct {
	blobs BlobStore
	log   *slog.Logger
}

func NewDocumentStore(blobs BlobStore, log *slog.Logger) *Codec {
	if log == nil {
		log = slog.Default()
	}
	return &Codec{blobs: blobs, log: log}
}

// Load returns the stored document. Absent or unreadable text yields the
// default document; only backend failures are errors.
func (c *Codec) Load(ctx context.Context, key string) (model.Document, error) {
	data, err := c.blobs.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return model.Default(), nil
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("load %s: %w", key, err)
	}
	d, err := codec.Decode(data)
	if err != nil {
		c.log.Warn("repository: stored document unreadable, using default", "key", key, "err", err)
		return model.Default(), nil
	}
	return d, nil
}

func (c *Codec) Save(ctx context.Context, key string, d model.Document) error {
	data, err := codec.Encode(d)
	if err != nil {
		return err
	}
	if err := c.blobs.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
