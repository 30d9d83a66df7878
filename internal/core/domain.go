// Package core defines the domain model and ports for the audio generation
// service. Types here carry the state of one multilingual narration job from
// creation through per-language completion.
package core

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// SourceLanguage is the language audio jobs are authored in. Text for this
// language is narrated as-is, without a translation call.
const SourceLanguage = "en"

// FileTypeAudio is the media asset file type produced by this service.
const FileTypeAudio = "audio"

// ErrIllegalTransition indicates a job status transition that the state
// machine does not permit.
var ErrIllegalTransition = errors.New("illegal job status transition")

// JobStatus is the job-level lifecycle state.
type JobStatus string

const (
	// JobStatusPending marks a job that has been created but not yet picked up.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing marks a job whose languages are being worked through.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted marks a job where at least one language succeeded.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed marks a job where no language succeeded.
	JobStatusFailed JobStatus = "failed"
)

// Terminal reports whether the status permits no further automatic transition.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether moving to next is a legal transition.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false
	default:
		return false
	}
}

// LanguageState is the per-language lifecycle state within a job.
type LanguageState string

const (
	// LanguageStatePending marks a language that has not been attempted.
	LanguageStatePending LanguageState = "pending"
	// LanguageStateCompleted marks a language whose audio was archived.
	LanguageStateCompleted LanguageState = "completed"
	// LanguageStateFailed marks a language whose generation failed.
	LanguageStateFailed LanguageState = "failed"
)

// LanguageStatus records the outcome of one language within a job. Once a
// language reaches a terminal state it is never regressed by the processor.
type LanguageStatus struct {
	State       LanguageState `json:"status"`
	AudioURL    string        `json:"audio_url,omitempty"`
	Error       string        `json:"error,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	FailedAt    *time.Time    `json:"failed_at,omitempty"`
}

// JobConfig holds free-form per-job narration settings.
type JobConfig struct {
	// Title names the narration; it seeds media asset titles and storage keys.
	Title string `json:"title,omitempty"`

	// VoiceID selects the synthesis voice. It takes precedence over Voice.
	VoiceID string `json:"voice_id,omitempty"`

	// Voice is a legacy alias for VoiceID, kept for jobs created before the
	// field was renamed.
	Voice string `json:"voice,omitempty"`

	// Speed is the speech rate passed to the synthesis provider.
	Speed float64 `json:"speed,omitempty"`
}

// AudioJob is the unit of work: one block of source text narrated into
// zero-or-more target languages.
type AudioJob struct {
	ID                 string                    `json:"id"`
	InputText          string                    `json:"input_text"`
	PostID             string                    `json:"post_id,omitempty"`
	Languages          []string                  `json:"languages"`
	LanguageStatuses   map[string]LanguageStatus `json:"language_statuses"`
	AudioURLs          map[string]string         `json:"audio_urls"`
	CompletedLanguages []string                  `json:"completed_languages"`
	TranslatedTexts    map[string]string         `json:"translated_texts,omitempty"`
	Config             JobConfig                 `json:"config"`
	Status             JobStatus                 `json:"status"`
	ErrorMessage       string                    `json:"error_message,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// NewAudioJob creates a pending job for the given input text and target
// languages. Every requested language starts with a pending status entry.
func NewAudioJob(id, inputText, postID string, languages []string, cfg JobConfig) *AudioJob {
	now := time.Now().UTC()

	statuses := make(map[string]LanguageStatus, len(languages))
	for _, language := range languages {
		statuses[language] = LanguageStatus{State: LanguageStatePending}
	}

	return &AudioJob{
		ID:                 id,
		InputText:          inputText,
		PostID:             postID,
		Languages:          append([]string(nil), languages...),
		LanguageStatuses:   statuses,
		AudioURLs:          make(map[string]string),
		CompletedLanguages: []string{},
		TranslatedTexts:    make(map[string]string),
		Config:             cfg,
		Status:             JobStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Transition moves the job to next after checking legality.
func (j *AudioJob) Transition(next JobStatus) error {
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, j.Status, next)
	}

	j.Status = next

	return nil
}

// EffectiveLanguages returns the union of the requested languages and the
// keys of the per-language status map. Jobs created by either field alone are
// tolerated. Explicitly requested languages keep their order; languages known
// only from the status map follow in sorted order for determinism.
func (j *AudioJob) EffectiveLanguages() []string {
	seen := make(map[string]struct{}, len(j.Languages)+len(j.LanguageStatuses))
	languages := make([]string, 0, len(j.Languages)+len(j.LanguageStatuses))

	for _, language := range j.Languages {
		if _, ok := seen[language]; ok {
			continue
		}

		seen[language] = struct{}{}
		languages = append(languages, language)
	}

	extra := make([]string, 0, len(j.LanguageStatuses))

	for language := range j.LanguageStatuses {
		if _, ok := seen[language]; ok {
			continue
		}

		extra = append(extra, language)
	}

	sort.Strings(extra)

	return append(languages, extra...)
}

// LanguageCompleted reports whether the language already produced audio in a
// prior run. Completed languages are never re-synthesized.
func (j *AudioJob) LanguageCompleted(language string) bool {
	for _, completed := range j.CompletedLanguages {
		if completed == language {
			return true
		}
	}

	return false
}

// MarkLanguageCompleted records a successful language: the audio URL is
// merged, the language is appended to the completed list, and its status
// entry becomes terminal.
func (j *AudioJob) MarkLanguageCompleted(language, audioURL string, at time.Time) {
	if j.AudioURLs == nil {
		j.AudioURLs = make(map[string]string)
	}

	j.AudioURLs[language] = audioURL

	if !j.LanguageCompleted(language) {
		j.CompletedLanguages = append(j.CompletedLanguages, language)
	}

	if j.LanguageStatuses == nil {
		j.LanguageStatuses = make(map[string]LanguageStatus)
	}

	j.LanguageStatuses[language] = LanguageStatus{
		State:       LanguageStateCompleted,
		AudioURL:    audioURL,
		CompletedAt: &at,
	}
}

// MarkLanguageFailed records a failed language with the captured error.
func (j *AudioJob) MarkLanguageFailed(language string, cause error, at time.Time) {
	if j.LanguageStatuses == nil {
		j.LanguageStatuses = make(map[string]LanguageStatus)
	}

	j.LanguageStatuses[language] = LanguageStatus{
		State:    LanguageStateFailed,
		Error:    cause.Error(),
		FailedAt: &at,
	}
}

// CacheTranslation stores a translation on the job so later runs do not
// re-pay the provider for the same language.
func (j *AudioJob) CacheTranslation(language, text string) {
	if j.TranslatedTexts == nil {
		j.TranslatedTexts = make(map[string]string)
	}

	j.TranslatedTexts[language] = text
}

// CachedTranslation returns the stored translation for the language, if any.
func (j *AudioJob) CachedTranslation(language string) (string, bool) {
	text, ok := j.TranslatedTexts[language]

	return text, ok
}

// GenerationMetadata describes how a media asset was produced.
type GenerationMetadata struct {
	Type        string    `json:"type"`
	Language    string    `json:"language"`
	Engine      string    `json:"engine"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AssetStatusReady marks a media asset whose bytes and catalog entry both
// exist.
const AssetStatusReady = "ready"

// MediaAsset is a durably stored audio artifact. Assets are created exactly
// once per archived language and never mutated afterwards; regeneration
// creates a new asset.
type MediaAsset struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	FileURL            string             `json:"file_url"`
	FileType           string             `json:"file_type"`
	MimeType           string             `json:"mime_type"`
	FileSizeBytes      int64              `json:"file_size_bytes"`
	RelatedPostID      string             `json:"related_post_id,omitempty"`
	GenerationMetadata GenerationMetadata `json:"generation_metadata"`
	Status             string             `json:"status"`
}

// ProcessSummary is the structured result returned to the trigger for one
// processing run.
type ProcessSummary struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	ProcessedLanguages []string `json:"processed_languages"`
	PrimaryAudioURL    string   `json:"primary_audio_url,omitempty"`
}
