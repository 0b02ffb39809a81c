package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// ErrDiscard marks a handler failure that retrying cannot fix. Deliveries
// failing with it are rejected without requeue.
var ErrDiscard = errors.New("discard message")

// RecordBatchMessage carries raw records of one kind to the ingest worker.
// The records stay in their wire form so the worker decodes them with the
// same lenient rules as every other source.
type RecordBatchMessage struct {
	ID        uuid.UUID       `json:"id"`
	Kind      core.Kind       `json:"kind"`
	Records   json.RawMessage `json:"records"`
	Source    string          `json:"source,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewRecordBatchMessage(kind core.Kind, records json.RawMessage) *RecordBatchMessage {
	return &RecordBatchMessage{
		ID:        uuid.New(),
		Kind:      kind,
		Records:   records,
		Timestamp: time.Now(),
	}
}

func (m *RecordBatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordBatchMessageFromJSON decodes a message and rejects ones without an
// id or with a kind outside the modelled set.
func RecordBatchMessageFromJSON(data []byte) (*RecordBatchMessage, error) {
	var msg RecordBatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, errors.New("message has no id")
	}
	if !msg.Kind.IsKnown() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, msg.Kind)
	}
	return &msg, nil
}

// Snapshot decodes the carried records into a snapshot holding only Kind.
func (m *RecordBatchMessage) Snapshot() (core.Snapshot, error) {
	return core.DecodeRecords(m.Kind, m.Records)
}
