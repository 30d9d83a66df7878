// Package catalog records finished audio files as first-class media assets
// in a NATS JetStream key-value bucket.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/glowline/audio-service/internal/core"
)

// ErrAssetNotFound indicates no catalog entry matched the lookup.
var ErrAssetNotFound = errors.New("media asset not found")

// Store implements the core.MediaCatalog interface on a key-value bucket
// keyed by asset id.
type Store struct {
	kv     nats.KeyValue
	bucket string
}

// New creates and initializes a new catalog store.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*Store, error) {
	kv, err := jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Media asset catalog for the %s bucket.", bucketName),
	})
	if err != nil {
		// If the bucket already exists, bind to it.
		kv, err = jetstreamContext.KeyValue(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to open media asset bucket '%s': %w", bucketName, err)
		}
	}

	return &Store{kv: kv, bucket: bucketName}, nil
}

// Insert catalogs a new media asset and returns its id. Assets are created
// exactly once and never mutated, so the write is a strict create.
func (s *Store) Insert(_ context.Context, asset *core.MediaAsset) (string, error) {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}

	data, err := json.Marshal(asset)
	if err != nil {
		return "", fmt.Errorf("failed to marshal media asset: %w", err)
	}

	_, err = s.kv.Create(asset.ID, data)
	if err != nil {
		return "", fmt.Errorf("failed to insert media asset '%s' into bucket '%s': %w", asset.ID, s.bucket, err)
	}

	return asset.ID, nil
}

// Get returns the media asset with the given id.
func (s *Store) Get(_ context.Context, id string) (*core.MediaAsset, error) {
	entry, err := s.kv.Get(id)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}

		return nil, fmt.Errorf("failed to get media asset '%s': %w", id, err)
	}

	return unmarshalAsset(entry.Value())
}

// FindByURL returns the asset whose file URL and related post both match.
// The linker uses this to locate the primary audio asset for a post.
func (s *Store) FindByURL(_ context.Context, fileURL, postID string) (*core.MediaAsset, error) {
	keys, err := s.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, ErrAssetNotFound
		}

		return nil, fmt.Errorf("failed to list media assets in bucket '%s': %w", s.bucket, err)
	}

	for _, key := range keys {
		entry, getErr := s.kv.Get(key)
		if getErr != nil {
			continue
		}

		asset, unmarshalErr := unmarshalAsset(entry.Value())
		if unmarshalErr != nil {
			continue
		}

		if asset.FileURL == fileURL && asset.RelatedPostID == postID {
			return asset, nil
		}
	}

	return nil, ErrAssetNotFound
}

func unmarshalAsset(data []byte) (*core.MediaAsset, error) {
	var asset core.MediaAsset

	err := json.Unmarshal(data, &asset)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal media asset: %w", err)
	}

	return &asset, nil
}
