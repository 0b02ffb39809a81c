package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sources/google"
	"fintrack/internal/sources/memory"
	"fintrack/internal/storage"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: Backend{Type: SQLiteBackend, Source: repo, Appender: repo, Pinger: repo, Batches: repo},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := f.newSheetsClient(ctx, config)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{
		Backend: Backend{Type: SheetsBackend, Source: cli, Appender: cli, Pinger: cli},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend seeds: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{
		Backend: Backend{Type: MemoryBackend, Source: store, Appender: store, Pinger: store},
	}, nil
}

func (f *DefaultFactory) newSheetsClient(ctx context.Context, config Config) (*gsheet.Client, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		CredentialsFile: config.GoogleCredentialsFile,
		CredentialsJSON: config.GoogleCredentialsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}

// CreateMirror returns a Sheets client used by the worker to copy stored
// batches to the workbook.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (*gsheet.Client, error) {
	if config.GoogleSpreadsheetID == "" {
		return nil, fmt.Errorf("Google Spreadsheet ID is required for the sheets mirror")
	}
	cli, err := f.newSheetsClient(ctx, config)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}

// CreateQueue connects to the broker. A failure is logged and reported as a
// nil client so callers can continue without the queue.
func (f *DefaultFactory) CreateQueue(url, exchange, queue string) *amqp.Client {
	if url == "" {
		return nil
	}
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without queue", log.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", exchange, "queue", queue)
	return client
}
