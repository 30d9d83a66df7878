package core

import "context"

// JobStore persists audio job records with read-one / write-whole-record
// semantics, plus a per-job advisory lease that serializes concurrent
// invocations of the same job id.
type JobStore interface {
	Get(ctx context.Context, id string) (*AudioJob, error)
	Put(ctx context.Context, job *AudioJob) error
	AcquireLease(ctx context.Context, id string) error
	ReleaseLease(ctx context.Context, id string) error
}

// Translator obtains text in a target language from the source-language text.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Synthesizer converts text into a single binary audio stream for a language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, cfg JobConfig, language string) ([]byte, error)
}

// Archiver persists a finished audio stream and catalogs it as a media asset.
type Archiver interface {
	Archive(ctx context.Context, audio []byte, title, language, postID string) (*MediaAsset, error)
}

// BlobStore uploads binary objects to durable storage and returns a public
// URL for each stored object.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// MediaCatalog records media assets and supports the URL lookup the linker
// needs to bond audio to a post.
type MediaCatalog interface {
	Insert(ctx context.Context, asset *MediaAsset) (string, error)
	FindByURL(ctx context.Context, fileURL, postID string) (*MediaAsset, error)
}

// PostStore updates the primary-audio reference of a content item.
type PostStore interface {
	SetPrimaryAudio(ctx context.Context, postID, assetID string) error
}

// PostLinker bonds a job's primary audio asset to its owning content item.
type PostLinker interface {
	LinkPrimaryAudio(ctx context.Context, postID, primaryAudioURL string) error
}

// JobProcessor drives one job through all of its target languages.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) (ProcessSummary, error)
}
