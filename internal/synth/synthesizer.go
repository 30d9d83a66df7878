package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"golang.org/x/time/rate"

	"github.com/glowline/audio-service/internal/chunker"
	"github.com/glowline/audio-service/internal/core"
)

// Voice selection defaults and per-language overrides. The override table is
// a deliberate simplification kept for behavioral parity: Hindi and Spanish
// carry dedicated voices regardless of the job's configured default.
const (
	DefaultVoice = "nova"
	DefaultSpeed = 0.9

	voiceHindi   = "fable"
	voiceSpanish = "alloy"

	languageHindi   = "hi"
	languageSpanish = "es"
)

// chunkCallRate spaces consecutive provider calls. This is provider
// courtesy, not a correctness requirement.
const chunkCallRate = 10 // calls per second

// Static errors.
var (
	// ErrNoSpeakableText indicates the text reduced to zero chunks.
	ErrNoSpeakableText = errors.New("no speakable text after chunking")
	// ErrChunkSynthesis indicates a provider failure on an individual chunk.
	ErrChunkSynthesis = errors.New("chunk synthesis failed")
)

// SpeechClient is the provider call the synthesizer depends on.
type SpeechClient interface {
	GenerateSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

// Synthesizer turns text into one audio stream for a target language.
type Synthesizer struct {
	client  SpeechClient
	chunker *chunker.Chunker
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates a synthesizer over the given provider client and chunker.
func New(client SpeechClient, split *chunker.Chunker, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		client:  client,
		chunker: split,
		limiter: rate.NewLimiter(rate.Limit(chunkCallRate), 1),
		log:     log,
	}
}

// VoiceFor resolves the synthesis voice for a language. The per-language
// override table wins over the job's configured voice; absent both, the
// default voice is used.
func VoiceFor(cfg core.JobConfig, language string) string {
	switch language {
	case languageHindi:
		return voiceHindi
	case languageSpanish:
		return voiceSpanish
	}

	if cfg.VoiceID != "" {
		return cfg.VoiceID
	}

	if cfg.Voice != "" {
		return cfg.Voice
	}

	return DefaultVoice
}

// Synthesize converts text into a single audio stream. Each chunk is
// synthesized in order; a failure on any chunk aborts the language and the
// partial buffers are discarded. Single-chunk input returns the provider's
// bytes directly; multi-chunk input is concatenated without re-encoding.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, cfg core.JobConfig, language string) ([]byte, error) {
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, ErrNoSpeakableText
	}

	voice := VoiceFor(cfg, language)

	speed := cfg.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}

	s.log.Info("Synthesizing %d chunks for %s with voice %s", len(chunks), language, voice)

	buffers := make([][]byte, 0, len(chunks))

	for chunkIndex, chunk := range chunks {
		waitErr := s.limiter.Wait(ctx)
		if waitErr != nil {
			return nil, fmt.Errorf("synthesis interrupted before chunk %d: %w", chunkIndex+1, waitErr)
		}

		audioData, err := s.client.GenerateSpeech(ctx, chunk, voice, speed)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d of %d: %w", ErrChunkSynthesis, chunkIndex+1, len(chunks), err)
		}

		s.log.Info("Synthesized chunk %d/%d for %s (%d bytes)", chunkIndex+1, len(chunks), language, len(audioData))

		buffers = append(buffers, audioData)
	}

	if len(buffers) == 1 {
		return buffers[0], nil
	}

	return concatenate(buffers), nil
}

// concatenate joins chunk buffers in their original order. The container
// format tolerates raw byte concatenation, so no re-encoding happens here.
func concatenate(buffers [][]byte) []byte {
	total := 0
	for _, buffer := range buffers {
		total += len(buffer)
	}

	joined := make([]byte, 0, total)
	for _, buffer := range buffers {
		joined = append(joined, buffer...)
	}

	return joined
}
