// Package objectstore persists finished audio streams in a NATS JetStream
// object store and derives the public URL each stored object is served from.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Header names attached to stored objects.
const (
	headerContentType  = "Content-Type"
	headerCacheControl = "Cache-Control"
)

// AudioStore implements the core.BlobStore interface using NATS JetStream.
type AudioStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
	publicBaseURL    string
	cacheControl     string
}

// New creates and initializes a new AudioStore. Uploaded objects are served
// from publicBaseURL/bucket/key; cacheMaxAge sets the Cache-Control lifetime
// recorded on each object.
func New(
	jetstreamContext nats.JetStreamContext,
	bucketName, publicBaseURL string,
	cacheMaxAge time.Duration,
) (*AudioStore, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			// For any other error, fail.
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &AudioStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
		publicBaseURL:    strings.TrimSuffix(publicBaseURL, "/"),
		cacheControl:     fmt.Sprintf("max-age=%d", int(cacheMaxAge.Seconds())),
	}, nil
}

// Upload saves an object to the store and returns its public URL.
func (s *AudioStore) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	header := nats.Header{}
	header.Set(headerContentType, contentType)
	header.Set(headerCacheControl, s.cacheControl)

	reader := bytes.NewReader(data)

	_, err := s.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     header,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return "", fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	return s.PublicURL(key), nil
}

// PublicURL returns the URL an uploaded key is served from.
func (s *AudioStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key)
}
