// Package poststore tracks the primary-audio reference of content items in a
// NATS JetStream key-value bucket keyed by post id.
package poststore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// ErrPostNotFound indicates no primary-audio reference exists for the post.
var ErrPostNotFound = errors.New("post has no primary audio reference")

// Store implements the core.PostStore interface.
type Store struct {
	kv     nats.KeyValue
	bucket string
}

// New creates and initializes a new post store.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*Store, error) {
	kv, err := jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Post primary-audio references for the %s bucket.", bucketName),
	})
	if err != nil {
		// If the bucket already exists, bind to it.
		kv, err = jetstreamContext.KeyValue(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to open post bucket '%s': %w", bucketName, err)
		}
	}

	return &Store{kv: kv, bucket: bucketName}, nil
}

// SetPrimaryAudio points the post at the given media asset. This is an
// unconditional overwrite: the most recently completed job for a post wins.
func (s *Store) SetPrimaryAudio(_ context.Context, postID, assetID string) error {
	_, err := s.kv.Put(postID, []byte(assetID))
	if err != nil {
		return fmt.Errorf("failed to set primary audio for post '%s': %w", postID, err)
	}

	return nil
}

// PrimaryAudio returns the asset id currently linked to the post.
func (s *Store) PrimaryAudio(_ context.Context, postID string) (string, error) {
	entry, err := s.kv.Get(postID)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: %s", ErrPostNotFound, postID)
		}

		return "", fmt.Errorf("failed to get primary audio for post '%s': %w", postID, err)
	}

	return string(entry.Value()), nil
}
