// Package main provides exportctl, a CLI that exports AREFA sheets from a
// running server: it lists the records over the API, filters and plans the
// lots locally, then renders the documents and builds the zip archive on the
// local machine, fetching photos from the server's /uploads/ route.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"arefa/internal/assets"
	"arefa/internal/export/batch"
	"arefa/internal/export/document"
	"arefa/internal/export/filter"
	"arefa/internal/platform/logger"
	"arefa/internal/registry/handler"
	"arefa/internal/registry/models"
	"arefa/internal/registry/sheets"
)

const (
	defaultServer  = "http://127.0.0.1:5000"
	defaultTimeout = 2 * time.Minute
)

// options are the flags shared by every subcommand.
type options struct {
	server    string
	kind      string
	criteria  filter.Criteria
	batch     int
	batchSize int
	id        int64
	out       string
	photoWait time.Duration
	timeout   time.Duration
	logLevel  string
}

func newFlagSet(name string, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&o.server, "server", defaultServer, "AREFA server base URL")
	fs.StringVar(&o.kind, "kind", string(models.KindTrader), "Record kind: cambiste or operateur")
	fs.DurationVar(&o.timeout, "timeout", defaultTimeout, "Overall time limit")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return fs
}

func criteriaFlags(fs *flag.FlagSet, o *options) {
	fs.StringVar(&o.criteria.Name, "name", "", "Name contains (case-insensitive)")
	fs.StringVar(&o.criteria.Association, "association", "", "Association (traders) or establishment (operators) contains")
	fs.StringVar(&o.criteria.Date, "date", "", "Registration day, YYYY-MM-DD")
	fs.StringVar(&o.criteria.Activity, "activity", "", "Activity flag, e.g. mPesa, or all")
	fs.StringVar(&o.criteria.Category, "statut", "", "Operator establishment type")
	fs.IntVar(&o.batchSize, "batch-size", batch.DefaultSize, "Records per lot")
}

func main() {
	var o options
	planCmd := newFlagSet("plan", &o)
	criteriaFlags(planCmd, &o)

	exportCmd := newFlagSet("export", &o)
	criteriaFlags(exportCmd, &o)
	exportCmd.IntVar(&o.batch, "batch", 1, "Lot number (1-based)")
	exportCmd.StringVar(&o.out, "out", ".", "Output directory")
	exportCmd.DurationVar(&o.photoWait, "photo-wait", 3*time.Second, "Time allowed per photo")

	documentCmd := newFlagSet("document", &o)
	documentCmd.Int64Var(&o.id, "id", 0, "Record id")
	documentCmd.StringVar(&o.out, "out", ".", "Output directory")
	documentCmd.DurationVar(&o.photoWait, "photo-wait", 3*time.Second, "Time allowed per photo")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var cmd string
	switch os.Args[1] {
	case "plan":
		planCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		cmd = "plan"
	case "export":
		exportCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		cmd = "export"
	case "document":
		documentCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		cmd = "document"
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := run(ctx, cmd, o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "exportctl %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, o options, stdout io.Writer) error {
	switch models.Kind(o.kind) {
	case models.KindTrader:
		return runKind[*models.Trader](ctx, cmd, o, handler.TraderRoute.Path, sheets.Trader, stdout)
	case models.KindOperator:
		return runKind[*models.Operator](ctx, cmd, o, handler.OperatorRoute.Path, sheets.Operator, stdout)
	default:
		return fmt.Errorf("unknown kind %q, expected %s or %s", o.kind, models.KindTrader, models.KindOperator)
	}
}

func runKind[T record](ctx context.Context, cmd string, o options, path string, profile sheets.Profile, stdout io.Writer) error {
	client := newAPIClient(o.server, o.timeout)
	records, err := getJSON[[]T](ctx, client, path)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(os.Stderr, o.logLevel)
	photos := assets.NewHTTPFetcher(o.server, nil)
	renderer := document.New(photos,
		document.WithPhotoWait(o.photoWait),
		document.WithLogger(log),
	)
	p := &pipeline[T]{
		profile:   profile,
		records:   records,
		batchSize: o.batchSize,
		renderer:  renderer,
		photos:    photos,
		stdout:    stdout,
	}

	switch cmd {
	case "plan":
		return p.plan(o.criteria)
	case "export":
		out, err := p.export(ctx, o.criteria, o.batch, o.out)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
	case "document":
		out, err := p.document(ctx, o.id, o.out)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
	}
	return nil
}

func printUsage() {
	fmt.Println(`exportctl - Export AREFA sheets from a running server

Usage:
  exportctl <command> [flags]

Commands:
  plan       List the lots matching the filters
  export     Build the zip archive of one lot
  document   Render the PDF sheet of one record

Examples:
  # Lots of traders registered on a given day
  exportctl plan -date 2024-03-01

  # Second lot of M-Pesa operators, written to ./exports
  exportctl export -kind operateur -activity mPesa -batch 2 -out exports

  # Single trader sheet
  exportctl document -id 42

Run 'exportctl <command> -h' for the flags of a command.`)
}
