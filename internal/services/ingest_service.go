package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sources"
)

var (
	ErrEmptyBatch    = errors.New("empty batch")
	ErrInvalidRecord = errors.New("invalid record")
	ErrNoDestination = errors.New("no store or queue configured")
)

// Publisher hands a batch to the ingest queue.
type Publisher interface {
	PublishRecordBatch(ctx context.Context, msg *amqp.RecordBatchMessage) error
}

// Invalidator drops cached snapshots after records change.
type Invalidator interface {
	Invalidate()
}

// Receipt describes what happened to an accepted batch. Queued batches are
// stored later by the worker.
type Receipt struct {
	BatchID string    `json:"batch_id"`
	Kind    core.Kind `json:"kind"`
	Records int       `json:"records"`
	Queued  bool      `json:"queued"`
}

// IngestService accepts raw records and routes them to the queue when one is
// configured, otherwise straight to the store.
type IngestService struct {
	store       sources.RecordAppender
	publisher   Publisher
	invalidator Invalidator
}

func NewIngestService(store sources.RecordAppender, publisher Publisher, invalidator Invalidator) *IngestService {
	return &IngestService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// DecodeBatch parses kindName and the JSON array raw into a validated
// snapshot holding only that kind.
func DecodeBatch(kindName string, raw []byte) (core.Kind, core.Snapshot, error) {
	kind, err := core.ParseKind(kindName)
	if err != nil {
		return "", core.Snapshot{}, err
	}
	if kind == core.KindAll {
		return "", core.Snapshot{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kindName)
	}
	s, err := core.DecodeRecords(kind, raw)
	if err != nil {
		return "", core.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if s.Len() == 0 {
		return "", core.Snapshot{}, ErrEmptyBatch
	}
	if err := s.Validate(); err != nil {
		return "", core.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return kind, s, nil
}

// Ingest validates a batch and either queues or stores it. A failed publish
// falls back to storing directly when a store is available.
func (s *IngestService) Ingest(ctx context.Context, kindName string, raw []byte) (Receipt, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentIngest)

	kind, snap, err := DecodeBatch(kindName, raw)
	if err != nil {
		logger.WarnContext(ctx, "Rejected record batch", log.FieldKind, kindName, log.FieldError, err)
		return Receipt{}, err
	}

	msg := amqp.NewRecordBatchMessage(kind, raw)
	receipt := Receipt{BatchID: msg.ID.String(), Kind: kind, Records: snap.Len()}

	if s.publisher != nil {
		err := s.publisher.PublishRecordBatch(ctx, msg)
		if err == nil {
			receipt.Queued = true
			logger.InfoContext(ctx, "Queued record batch",
				log.NewFields().WithBatch(receipt.BatchID, string(kind), receipt.Records).ToSlice()...)
			return receipt, nil
		}
		if s.store == nil {
			return Receipt{}, fmt.Errorf("publish batch: %w", err)
		}
		logger.ErrorContext(ctx, "Failed to publish batch, storing directly",
			log.FieldBatchID, receipt.BatchID, log.FieldError, err)
	}

	if s.store == nil {
		return Receipt{}, ErrNoDestination
	}
	n, err := s.storeBatch(ctx, receipt.BatchID, kind, snap)
	if err != nil {
		return Receipt{}, fmt.Errorf("store batch: %w", err)
	}
	receipt.Records = n
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	logger.InfoContext(ctx, "Stored record batch",
		log.NewFields().WithBatch(receipt.BatchID, string(kind), n).ToSlice()...)
	return receipt, nil
}

// storeBatch records the batch id when the store keeps batch history.
func (s *IngestService) storeBatch(ctx context.Context, id string, kind core.Kind, snap core.Snapshot) (int, error) {
	bs, ok := s.store.(sources.BatchStore)
	if !ok {
		return s.store.AppendRecords(ctx, snap)
	}
	n, _, err := bs.StoreBatch(ctx, id, kind, snap)
	return n, err
}
