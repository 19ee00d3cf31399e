// Command milvusctl runs reads and deletes against a Milvus collection and
// prints the results as JSON.
//
// Usage:
//
//	milvusctl [global flags] <command> [flags]
//
// Examples:
//
//	milvusctl --endpoint milvus.internal count -c docs -f 'lang == "de"'
//	milvusctl get -c docs --ids 1,2,3 -o title
//	milvusctl search -c docs -v 0.1,0.2,0.3,0.4 -k 5 --params '{"ef": 64}'
//	milvusctl search -c docs -t "vector index tuning" -o title
//
// Configuration is read from milvusctl.yaml, MILVUSCTL_* environment
// variables (e.g. MILVUSCTL_MILVUS_ENDPOINT) and the global flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/milvus-adapter/v1/embedding"
	"github.com/Aleph-Alpha/milvus-adapter/v1/logger"
	"github.com/Aleph-Alpha/milvus-adapter/v1/metrics"
	"github.com/Aleph-Alpha/milvus-adapter/v1/milvus"
	"github.com/Aleph-Alpha/milvus-adapter/v1/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "milvusctl:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := globalFlags()
	fs.SetInterspersed(false)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usagef("%v", err)
	}
	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return usagef("no command given")
	}

	cmd, ok := lookupCommand(fs.Arg(0))
	if !ok {
		return usagef("unknown command %q", fs.Arg(0))
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}

	var (
		client *milvus.Client
		d      deps
	)
	populate := []fx.Option{fx.Populate(&client)}
	if cfg.Embedding.Endpoint != "" {
		populate = append(populate, fx.Invoke(func(e *embedding.Client) { d.embed = e }))
	}
	app := fx.New(appOptions(cfg, populate...)...)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		// Stop gets a fresh context so spans are flushed after an interrupt.
		_ = app.Stop(context.Background())
	}()

	d.db = client
	return cmd.run(ctx, d, fs.Args()[1:], stdout)
}

// appOptions composes the logger, tracer and Milvus modules, plus metrics
// and embedding when configured.
func appOptions(cfg *appConfig, extra ...fx.Option) []fx.Option {
	opts := []fx.Option{
		fx.NopLogger,
		fx.Supply(cfg.Logger, cfg.Tracer, cfg.Milvus),
		logger.FXModule,
		tracer.FXModule,
		milvus.FXModule,
		fx.Provide(
			func(l *logger.LoggerClient) milvus.Logger { return l },
			func(l *logger.LoggerClient) tracer.Logger { return l },
		),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts,
			fx.Supply(cfg.Metrics.Config),
			metrics.FXModule,
			fx.Provide(func(l *logger.LoggerClient) metrics.Logger { return l }),
		)
	}
	if cfg.Embedding.Endpoint != "" {
		opts = append(opts,
			fx.Supply(cfg.Embedding),
			embedding.FXModule,
		)
	}
	return append(opts, extra...)
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: milvusctl [global flags] <command> [flags]")
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w, "\nGlobal flags:")
	fmt.Fprint(w, fs.FlagUsages())
}
