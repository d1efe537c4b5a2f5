package queue

import (
	"encoding/json"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// RebuildMsg is one queued index rebuild job.
type RebuildMsg struct {
	JobID       string    `json:"job_id"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// PublishRebuild enqueues a full index rebuild and returns its job id.
// Rebuilds are idempotent, so queueing several jobs back to back only
// costs time, never correctness.
func PublishRebuild(ch *amqp091.Channel, reason string) (string, error) {
	jobID, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	msg := RebuildMsg{
		JobID:       jobID,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	if err := PublishFIFO(ch, RebuildQueue, data); err != nil {
		return "", err
	}
	return jobID, nil
}
