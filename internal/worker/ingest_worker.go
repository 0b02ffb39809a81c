package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sources"
)

// Stats counts batches handled since start.
type Stats struct {
	Stored     int64 `json:"stored"`
	Duplicates int64 `json:"duplicates"`
	Rejected   int64 `json:"rejected"`
	Failed     int64 `json:"failed"`
	Mirrored   int64 `json:"mirrored"`
}

// IngestWorker stores queued record batches and optionally copies them to a
// mirror such as the Google Sheets workbook.
type IngestWorker struct {
	store  sources.BatchStore
	mirror sources.RecordAppender

	stored, duplicates, rejected, failed, mirrored atomic.Int64
}

func NewIngestWorker(store sources.BatchStore, mirror sources.RecordAppender) *IngestWorker {
	return &IngestWorker{store: store, mirror: mirror}
}

// HandleRecordBatch processes one message. Undecodable or invalid batches
// are discarded; storage errors are returned so the delivery is requeued.
func (w *IngestWorker) HandleRecordBatch(ctx context.Context, msg *amqp.RecordBatchMessage) error {
	id := msg.ID.String()
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker).
		With(log.FieldBatchID, id, log.FieldKind, msg.Kind)

	s, err := msg.Snapshot()
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		w.rejected.Add(1)
		logger.WarnContext(ctx, "Discarding invalid batch", log.FieldError, err)
		return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
	}

	n, duplicate, err := w.store.StoreBatch(ctx, id, msg.Kind, s)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("store batch: %w", err)
	}
	if duplicate {
		w.duplicates.Add(1)
		logger.InfoContext(ctx, "Batch already processed")
		return nil
	}
	w.stored.Add(1)
	logger.InfoContext(ctx, "Stored record batch", log.FieldRecords, n)

	if w.mirror == nil {
		return nil
	}
	// The batch is committed locally; a mirror failure is logged, not retried.
	if _, err := w.mirror.AppendRecords(ctx, s); err != nil {
		logger.ErrorContext(ctx, "Failed to mirror batch", log.FieldError, err)
		return nil
	}
	w.mirrored.Add(1)
	return nil
}

func (w *IngestWorker) Stats() Stats {
	return Stats{
		Stored:     w.stored.Load(),
		Duplicates: w.duplicates.Load(),
		Rejected:   w.rejected.Load(),
		Failed:     w.failed.Load(),
		Mirrored:   w.mirrored.Load(),
	}
}
