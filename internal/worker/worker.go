// Package worker provides a NATS worker that triggers audio job processing.
// A request carries a job identifier; the reply is the structured summary of
// the run, whether it succeeded or not.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/glowline/audio-service/internal/core"
)

// handleMessageTimeout bounds one full job run: translation, synthesis of
// every chunk, uploads, and catalog writes across all languages.
const handleMessageTimeout = 10 * time.Minute

// ProcessRequest is the trigger payload.
type ProcessRequest struct {
	JobID string `json:"job_id"`
}

// NatsWorker listens for processing triggers on a NATS subject and drives
// jobs through the processor.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	processor      core.JobProcessor
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	processor core.JobProcessor,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		processor:      processor,
		log:            log,
	}
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

// handleMessage processes one trigger. The reply is always a structured
// summary; nothing in a job run is fatal to the host process.
func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	// A panic in a handler would otherwise propagate out of the NATS
	// callback and kill the host process.
	defer func() {
		cause := recover()
		if cause == nil {
			return
		}

		w.log.Error("Recovered panic while handling message on %s: %v", w.subject, cause)
		w.replyFailure(msg, fmt.Sprintf("unexpected failure: %v", cause))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var req ProcessRequest

	err := json.Unmarshal(msg.Data, &req)
	if err != nil {
		w.log.Error("Failed to unmarshal process request: %v", err)
		w.replyFailure(msg, "invalid request payload")

		return
	}

	if req.JobID == "" {
		w.replyFailure(msg, "job_id is required")

		return
	}

	w.log.Info("Processing audio job %s", req.JobID)

	summary, err := w.processor.Process(ctx, req.JobID)
	if err != nil {
		w.log.Error("Failed to process audio job %s: %v", req.JobID, err)
		w.replyFailure(msg, err.Error())

		return
	}

	w.reply(msg, summary)
}

func (w *NatsWorker) replyFailure(msg *nats.Msg, message string) {
	w.reply(msg, core.ProcessSummary{
		Success:            false,
		Message:            message,
		ProcessedLanguages: []string{},
		PrimaryAudioURL:    "",
	})
}

func (w *NatsWorker) reply(msg *nats.Msg, summary core.ProcessSummary) {
	data, err := json.Marshal(summary)
	if err != nil {
		w.log.Error("Failed to marshal process summary: %v", err)

		return
	}

	err = msg.Respond(data)
	if err != nil {
		w.log.Error("Failed to publish process summary: %v", err)
	}
}
