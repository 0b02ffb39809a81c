package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sources"
)

// App carries what every subcommand needs.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
	Err    io.Writer
}

// Commands returns the fintrack-cli subcommands bound to app.
func (app *App) Commands() []subcommands.Command {
	return []subcommands.Command{
		&ledgerCmd{app: app},
		&facetsCmd{app: app},
		&ingestCmd{app: app, in: os.Stdin},
	}
}

func (app *App) stderr() io.Writer {
	if app.Err != nil {
		return app.Err
	}
	return os.Stderr
}

func (app *App) failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(app.stderr(), format+"\n", args...)
	return subcommands.ExitFailure
}

func (app *App) usagef(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(app.stderr(), format+"\n", args...)
	return subcommands.ExitUsageError
}

func (app *App) openBackend(ctx context.Context) (*backend.DefaultFactory, *backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(app.Config)
	if err != nil {
		return nil, nil, err
	}
	factory := backend.NewFactory(app.Logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}
	return factory, result, nil
}

// loadSnapshot fetches every collection once. Collections that failed are
// reported on stderr and left out.
func (app *App) loadSnapshot(ctx context.Context, q sources.Query) (sources.Result, error) {
	_, result, err := app.openBackend(ctx)
	if err != nil {
		return sources.Result{}, err
	}
	defer result.Close()

	res, err := sources.NewFetcher(result.Backend.Source, app.Config.FetchTimeout).Fetch(ctx, q)
	if err != nil {
		return sources.Result{}, err
	}
	if len(res.Failed) > 0 {
		names := make([]string, len(res.Failed))
		for i, k := range res.Failed {
			names[i] = k.String()
		}
		fmt.Fprintf(app.stderr(), "warning: could not load %s\n", strings.Join(names, ", "))
	}
	return res, nil
}

// multiFlag is a repeatable flag that also splits comma-separated values.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*m = append(*m, part)
		}
	}
	return nil
}
