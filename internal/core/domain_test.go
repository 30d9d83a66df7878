// Package core_test tests the audio job domain model.
package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowline/audio-service/internal/core"
)

func TestJobStatus_Transitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		from  core.JobStatus
		to    core.JobStatus
		legal bool
	}{
		{name: "pending to processing", from: core.JobStatusPending, to: core.JobStatusProcessing, legal: true},
		{name: "processing to completed", from: core.JobStatusProcessing, to: core.JobStatusCompleted, legal: true},
		{name: "processing to failed", from: core.JobStatusProcessing, to: core.JobStatusFailed, legal: true},
		{name: "pending to completed", from: core.JobStatusPending, to: core.JobStatusCompleted, legal: false},
		{name: "completed to processing", from: core.JobStatusCompleted, to: core.JobStatusProcessing, legal: false},
		{name: "failed to processing", from: core.JobStatusFailed, to: core.JobStatusProcessing, legal: false},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.legal, testCase.from.CanTransitionTo(testCase.to))
		})
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, core.JobStatusPending.Terminal())
	assert.False(t, core.JobStatusProcessing.Terminal())
	assert.True(t, core.JobStatusCompleted.Terminal())
	assert.True(t, core.JobStatusFailed.Terminal())
}

func TestAudioJob_TransitionRejectsIllegalMove(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "", []string{"en"}, core.JobConfig{})

	err := job.Transition(core.JobStatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIllegalTransition))
	assert.Equal(t, core.JobStatusPending, job.Status)

	require.NoError(t, job.Transition(core.JobStatusProcessing))
	require.NoError(t, job.Transition(core.JobStatusCompleted))
}

func TestNewAudioJob_SeedsPendingLanguageStatuses(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "post-1", []string{"en", "es"}, core.JobConfig{Title: "Greeting"})

	assert.Equal(t, core.JobStatusPending, job.Status)
	require.Len(t, job.LanguageStatuses, 2)
	assert.Equal(t, core.LanguageStatePending, job.LanguageStatuses["en"].State)
	assert.Equal(t, core.LanguageStatePending, job.LanguageStatuses["es"].State)
	assert.Empty(t, job.CompletedLanguages)
}

func TestEffectiveLanguages_UnionPreservesRequestOrder(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "", []string{"es", "en"}, core.JobConfig{})
	job.LanguageStatuses["hi"] = core.LanguageStatus{State: core.LanguageStatePending}
	job.LanguageStatuses["fr"] = core.LanguageStatus{State: core.LanguageStatePending}

	languages := job.EffectiveLanguages()

	// Requested order first, then status-only languages in sorted order.
	assert.Equal(t, []string{"es", "en", "fr", "hi"}, languages)
}

func TestEffectiveLanguages_DeduplicatesRequests(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "", []string{"en", "en", "es"}, core.JobConfig{})

	assert.Equal(t, []string{"en", "es"}, job.EffectiveLanguages())
}

func TestMarkLanguageCompleted_AppendsOnce(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "", []string{"en"}, core.JobConfig{})
	now := time.Now().UTC()

	job.MarkLanguageCompleted("en", "https://cdn.example.com/en.mp3", now)
	job.MarkLanguageCompleted("en", "https://cdn.example.com/en.mp3", now)

	assert.Equal(t, []string{"en"}, job.CompletedLanguages)
	assert.Equal(t, "https://cdn.example.com/en.mp3", job.AudioURLs["en"])

	status := job.LanguageStatuses["en"]
	assert.Equal(t, core.LanguageStateCompleted, status.State)
	assert.Equal(t, "https://cdn.example.com/en.mp3", status.AudioURL)
	require.NotNil(t, status.CompletedAt)
}

func TestMarkLanguageFailed_RecordsError(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "", []string{"es"}, core.JobConfig{})
	now := time.Now().UTC()

	job.MarkLanguageFailed("es", errors.New("provider exploded"), now)

	status := job.LanguageStatuses["es"]
	assert.Equal(t, core.LanguageStateFailed, status.State)
	assert.Equal(t, "provider exploded", status.Error)
	require.NotNil(t, status.FailedAt)
	assert.False(t, job.LanguageCompleted("es"))
}

func TestTranslationCache(t *testing.T) {
	t.Parallel()

	job := core.NewAudioJob("job-1", "hello", "", []string{"es"}, core.JobConfig{})

	_, ok := job.CachedTranslation("es")
	assert.False(t, ok)

	job.CacheTranslation("es", "hola")

	cached, ok := job.CachedTranslation("es")
	require.True(t, ok)
	assert.Equal(t, "hola", cached)
}
