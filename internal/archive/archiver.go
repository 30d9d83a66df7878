// Package archive persists a finished audio stream to durable storage and
// records it as a first-class media asset. A language's audio only counts as
// completed when both the upload and the catalog insert succeed.
package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/book-expert/logger"

	"github.com/glowline/audio-service/internal/core"
)

const (
	audioContentType = "audio/mpeg"

	// standaloneSegment is the storage path segment for jobs without an
	// owning post.
	standaloneSegment = "standalone"

	// storageKeyFormat is <prefix>/<post|standalone>/<millis>-<lang>-<title>.
	// The timestamp keeps repeated runs from colliding; the language keeps
	// sibling renditions of one job apart.
	storageKeyFormat = "audio/%s/%d-%s-%s.mp3"

	metadataType = "tts"
)

// ErrAudioEmpty indicates an attempt to archive a zero-length stream.
var ErrAudioEmpty = errors.New("audio stream cannot be empty")

// titleSanitizer collapses runs of non-alphanumeric characters to a single
// separator so titles are safe inside storage keys.
var titleSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Archiver implements the core.Archiver interface over a blob store and a
// media catalog.
type Archiver struct {
	blobs   core.BlobStore
	catalog core.MediaCatalog
	engine  string
	log     *logger.Logger
}

// New creates an archiver. The engine identifier is recorded in each asset's
// generation metadata.
func New(blobs core.BlobStore, assetCatalog core.MediaCatalog, engine string, log *logger.Logger) *Archiver {
	return &Archiver{
		blobs:   blobs,
		catalog: assetCatalog,
		engine:  engine,
		log:     log,
	}
}

// Archive uploads the audio bytes and catalogs the resulting asset. Any
// failure, storage or catalog, surfaces as an error and the language is not
// considered completed.
func (a *Archiver) Archive(ctx context.Context, audio []byte, title, language, postID string) (*core.MediaAsset, error) {
	if len(audio) == 0 {
		return nil, ErrAudioEmpty
	}

	key := storageKey(postID, language, title)

	fileURL, err := a.blobs.Upload(ctx, key, audio, audioContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio for language '%s': %w", language, err)
	}

	asset := &core.MediaAsset{
		ID:            "",
		Title:         title,
		FileURL:       fileURL,
		FileType:      core.FileTypeAudio,
		MimeType:      audioContentType,
		FileSizeBytes: int64(len(audio)),
		RelatedPostID: postID,
		GenerationMetadata: core.GenerationMetadata{
			Type:        metadataType,
			Language:    language,
			Engine:      a.engine,
			GeneratedAt: time.Now().UTC(),
		},
		Status: core.AssetStatusReady,
	}

	assetID, err := a.catalog.Insert(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to catalog audio for language '%s': %w", language, err)
	}

	asset.ID = assetID

	a.log.Info("Archived %d bytes for %s as asset %s at %s", len(audio), language, assetID, fileURL)

	return asset, nil
}

// storageKey derives a unique storage path from the owning post, the
// language, and a sanitized title.
func storageKey(postID, language, title string) string {
	segment := postID
	if segment == "" {
		segment = standaloneSegment
	}

	return fmt.Sprintf(storageKeyFormat, segment, time.Now().UnixMilli(), language, sanitizeTitle(title))
}

func sanitizeTitle(title string) string {
	return titleSanitizer.ReplaceAllString(title, "-")
}
