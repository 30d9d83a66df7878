// Package linker bonds a job's primary audio asset to its owning content
// item. Linking is best-effort: a missing asset is logged and skipped, never
// retried, and never affects the job's terminal status.
package linker

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"

	"github.com/glowline/audio-service/internal/core"
)

// Linker implements the core.PostLinker interface.
type Linker struct {
	catalog core.MediaCatalog
	posts   core.PostStore
	log     *logger.Logger
}

// New creates a linker over the media catalog and the post store.
func New(assetCatalog core.MediaCatalog, posts core.PostStore, log *logger.Logger) *Linker {
	return &Linker{
		catalog: assetCatalog,
		posts:   posts,
		log:     log,
	}
}

// LinkPrimaryAudio finds the media asset matching the URL and post, then
// points the post's primary-audio reference at it. Without a post id or a
// URL there is nothing to bond and the call is a no-op. A missing asset
// (archiving may have raced a concurrent update) leaves the post untouched.
func (l *Linker) LinkPrimaryAudio(ctx context.Context, postID, primaryAudioURL string) error {
	if postID == "" || primaryAudioURL == "" {
		return nil
	}

	asset, err := l.catalog.FindByURL(ctx, primaryAudioURL, postID)
	if err != nil {
		l.log.Warn("No media asset found for post %s at %s: %v", postID, primaryAudioURL, err)

		return nil
	}

	err = l.posts.SetPrimaryAudio(ctx, postID, asset.ID)
	if err != nil {
		return fmt.Errorf("failed to link asset '%s' to post '%s': %w", asset.ID, postID, err)
	}

	l.log.Info("Linked primary audio %s to post %s", asset.ID, postID)

	return nil
}
