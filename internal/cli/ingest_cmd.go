package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type ingestCmd struct {
	app  *App
	in   io.Reader
	kind string
}

func (*ingestCmd) Name() string     { return "ingest" }
func (*ingestCmd) Synopsis() string { return "send a JSON array of raw records to the ingest queue" }
func (*ingestCmd) Usage() string {
	return `fintrack-cli ingest -kind <kind> <file.json | ->

  Validates the records and publishes them as one batch to the ingest queue.
  Without AMQP_URL the batch is written straight to the configured backend.
  Use - to read the records from standard input.
`
}

func (c *ingestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "Record kind: income, expense, investment, loan, interest or tax.")
}

func (c *ingestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.kind == "" || f.NArg() != 1 {
		return c.app.usagef("%s", c.Usage())
	}
	raw, err := c.read(f.Arg(0))
	if err != nil {
		return c.app.failf("read records: %v", err)
	}

	factory, result, err := c.app.openBackend(ctx)
	if err != nil {
		return c.app.failf("open backend: %v", err)
	}
	defer result.Close()

	var publisher services.Publisher
	cfg := c.app.Config
	if cfg.QueueEnabled() {
		queue := factory.CreateQueue(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if queue != nil {
			defer queue.Close()
			publisher = queue
		}
	}

	receipt, err := services.NewIngestService(result.Backend.Appender, publisher, nil).Ingest(ctx, c.kind, raw)
	switch {
	case errors.Is(err, core.ErrUnknownKind):
		return c.app.usagef("%v", err)
	case err != nil:
		return c.app.failf("ingest: %v", err)
	}

	action := "stored"
	if receipt.Queued {
		action = "queued"
	}
	fmt.Fprintf(c.app.Out, "%s %d %s record(s) as batch %s\n", action, receipt.Records, receipt.Kind, receipt.BatchID)
	return subcommands.ExitSuccess
}

func (c *ingestCmd) read(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.in)
	}
	return os.ReadFile(path)
}
