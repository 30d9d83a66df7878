// Package processor drives one audio job through every requested language.
//
// Languages are processed one at a time and the whole job record is
// persisted after each language, so a crash mid-run loses at most one
// in-flight language. Per-language failures are recorded and the loop
// continues; a job only ends failed when its completed language list is
// empty, counting languages finished by earlier invocations.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/glowline/audio-service/internal/core"
)

// defaultAssetTitle seeds asset titles for jobs configured without one.
const defaultAssetTitle = "Audio"

// Static errors.
var (
	// ErrJobIDEmpty indicates a trigger without a job identifier.
	ErrJobIDEmpty = errors.New("job id cannot be empty")
	// ErrJobTerminal indicates the job already completed or failed; resumption
	// of terminal jobs requires an explicit regeneration request.
	ErrJobTerminal = errors.New("job already reached a terminal status")
	// ErrTranslation classifies a provider failure while resolving text.
	ErrTranslation = errors.New("translation failed")
	// ErrUnexpectedFailure classifies a recovered panic during a run.
	ErrUnexpectedFailure = errors.New("unexpected processing failure")
)

// Processor is the orchestrator: it loads the job, works through the
// effective language set, checkpoints progress, classifies the terminal
// status, and bonds the primary audio to the owning post.
type Processor struct {
	jobs       core.JobStore
	translator core.Translator
	synth      core.Synthesizer
	archiver   core.Archiver
	linker     core.PostLinker
	log        *logger.Logger
}

// New creates a processor over the given ports.
func New(
	jobs core.JobStore,
	translator core.Translator,
	synth core.Synthesizer,
	archiver core.Archiver,
	postLinker core.PostLinker,
	log *logger.Logger,
) *Processor {
	return &Processor{
		jobs:       jobs,
		translator: translator,
		synth:      synth,
		archiver:   archiver,
		linker:     postLinker,
		log:        log,
	}
}

// Process drives the job with the given id to a terminal status and returns
// a structured summary. Per-language failures never surface as errors here;
// an error return means the run could not start (unknown id, terminal job,
// lease held). Unexpected failures mid-run mark the job failed and still
// produce a summary, so the trigger always receives a structured response.
func (p *Processor) Process(ctx context.Context, jobID string) (summary core.ProcessSummary, err error) {
	if jobID == "" {
		return core.ProcessSummary{}, ErrJobIDEmpty
	}

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return core.ProcessSummary{}, err
	}

	if job.Status.Terminal() {
		return core.ProcessSummary{}, fmt.Errorf("%w: %s is %s", ErrJobTerminal, jobID, job.Status)
	}

	err = p.jobs.AcquireLease(ctx, jobID)
	if err != nil {
		return core.ProcessSummary{}, err
	}

	defer func() {
		releaseErr := p.jobs.ReleaseLease(ctx, jobID)
		if releaseErr != nil {
			p.log.Warn("Failed to release lease for job %s: %v", jobID, releaseErr)
		}
	}()

	// A panic anywhere in a run must not take the host process down; the
	// job is marked failed and the trigger still receives a structured
	// summary.
	defer func() {
		cause := recover()
		if cause == nil {
			return
		}

		panicErr := fmt.Errorf("%w: %v", ErrUnexpectedFailure, cause)

		p.log.Error("Job %s panicked: %v", jobID, cause)

		if !job.Status.Terminal() {
			p.markFailed(ctx, job, panicErr)
		}

		summary = core.ProcessSummary{
			Success:            false,
			Message:            fmt.Sprintf("processing failed: %v", panicErr),
			ProcessedLanguages: []string{},
			PrimaryAudioURL:    "",
		}
		err = nil
	}()

	summary, runErr := p.run(ctx, job)
	if runErr != nil {
		p.log.Error("Job %s aborted: %v", jobID, runErr)
		p.markFailed(ctx, job, runErr)

		summary.Success = false
		summary.Message = fmt.Sprintf("processing failed: %v", runErr)

		return summary, nil
	}

	if summary.PrimaryAudioURL != "" && job.PostID != "" {
		linkErr := p.linker.LinkPrimaryAudio(ctx, job.PostID, summary.PrimaryAudioURL)
		if linkErr != nil {
			// Audio generation success is independent of linking success.
			p.log.Error("Failed to link primary audio for job %s: %v", jobID, linkErr)
		}
	}

	return summary, nil
}

// run works through the effective language set. It returns an error only for
// failures outside the per-language taxonomy, such as a persistence failure;
// the partial summary accompanies the error so the caller can report what
// did complete.
func (p *Processor) run(ctx context.Context, job *core.AudioJob) (core.ProcessSummary, error) {
	summary := core.ProcessSummary{
		Success:            false,
		Message:            "",
		ProcessedLanguages: []string{},
		PrimaryAudioURL:    "",
	}

	if job.Status == core.JobStatusPending {
		transitionErr := job.Transition(core.JobStatusProcessing)
		if transitionErr != nil {
			return summary, transitionErr
		}
	}

	persistErr := p.jobs.Put(ctx, job)
	if persistErr != nil {
		return summary, persistErr
	}

	for _, language := range job.EffectiveLanguages() {
		if job.LanguageCompleted(language) {
			p.log.Info("Job %s: language %s already completed, skipping", job.ID, language)

			continue
		}

		audioURL, langErr := p.processLanguage(ctx, job, language)
		now := time.Now().UTC()

		if langErr != nil {
			p.log.Error("Job %s: language %s failed: %v", job.ID, language, langErr)
			job.MarkLanguageFailed(language, langErr, now)
		} else {
			job.MarkLanguageCompleted(language, audioURL, now)
			summary.ProcessedLanguages = append(summary.ProcessedLanguages, language)

			if summary.PrimaryAudioURL == "" {
				// First success wins; later languages never displace it.
				summary.PrimaryAudioURL = audioURL
				p.log.Info("Job %s: adopted %s audio as primary", job.ID, language)
			}
		}

		// Checkpoint before the next language so a crash mid-loop does not
		// lose this language's outcome.
		persistErr = p.jobs.Put(ctx, job)
		if persistErr != nil {
			return summary, persistErr
		}
	}

	// Classification looks at the whole job, not just this run: languages
	// completed by an earlier invocation keep the job completed even when
	// every remaining language fails.
	final := core.JobStatusFailed
	if len(job.CompletedLanguages) > 0 {
		final = core.JobStatusCompleted
	}

	transitionErr := job.Transition(final)
	if transitionErr != nil {
		return summary, transitionErr
	}

	persistErr = p.jobs.Put(ctx, job)
	if persistErr != nil {
		return summary, persistErr
	}

	summary.Success = final == core.JobStatusCompleted
	summary.Message = fmt.Sprintf(
		"processed %d languages: %s",
		len(summary.ProcessedLanguages),
		strings.Join(summary.ProcessedLanguages, ", "),
	)

	p.log.Info("Job %s finished %s with %d completed languages", job.ID, final, len(job.CompletedLanguages))

	return summary, nil
}

// processLanguage resolves the text to speak, synthesizes it, and archives
// the result. It returns the public URL of the archived audio.
func (p *Processor) processLanguage(ctx context.Context, job *core.AudioJob, language string) (string, error) {
	text, err := p.resolveText(ctx, job, language)
	if err != nil {
		return "", err
	}

	audio, err := p.synth.Synthesize(ctx, text, job.Config, language)
	if err != nil {
		return "", err
	}

	asset, err := p.archiver.Archive(ctx, audio, assetTitle(job.Config.Title, language), language, job.PostID)
	if err != nil {
		return "", err
	}

	return asset.FileURL, nil
}

// resolveText returns the text to narrate for a language. Source-language
// jobs speak the input as-is; other languages consult the job's translation
// cache before paying the provider, and new translations are stored on the
// job so the per-language checkpoint persists them.
func (p *Processor) resolveText(ctx context.Context, job *core.AudioJob, language string) (string, error) {
	if language == core.SourceLanguage {
		return job.InputText, nil
	}

	if cached, ok := job.CachedTranslation(language); ok {
		p.log.Info("Job %s: using cached translation for %s", job.ID, language)

		return cached, nil
	}

	translated, err := p.translator.Translate(ctx, job.InputText, language)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %w", ErrTranslation, language, err)
	}

	job.CacheTranslation(language, translated)

	return translated, nil
}

// markFailed forces the job to the failed terminal status with the captured
// error. Persistence failures here can only be logged.
func (p *Processor) markFailed(ctx context.Context, job *core.AudioJob, cause error) {
	job.Status = core.JobStatusFailed
	job.ErrorMessage = cause.Error()

	persistErr := p.jobs.Put(ctx, job)
	if persistErr != nil {
		p.log.Error("Failed to persist failed status for job %s: %v", job.ID, persistErr)
	}
}

func assetTitle(configured, language string) string {
	title := configured
	if title == "" {
		title = defaultAssetTitle
	}

	return fmt.Sprintf("%s - %s", title, strings.ToUpper(language))
}
