// Command treelift 读取带权树与三元查询，按批量控制台协议输出每条查询的祖先/分叉分类。
//
//	treelift [--input FILE] [--output FILE] [--config FILE] [--root N] [--workers N]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/treelift/config"
	"github.com/wyfcoding/treelift/logging"
	"github.com/wyfcoding/treelift/metrics"
	"github.com/wyfcoding/treelift/query"
	"github.com/wyfcoding/treelift/tracing"
	"github.com/wyfcoding/treelift/xerrors"
)

const serviceName = "treelift"

var (
	// version 由构建时 -ldflags "-X main.version=..." 注入。
	version = "dev"

	configPath string
	inputPath  string
	outputPath string

	rootCmd = &cobra.Command{
		Use:   "treelift",
		Short: "Classify node triples of a weighted tree using binary-lifting LCA",
		Long: `treelift reads "n q", n-1 weighted edges and q node triples,
builds binary-lifting ancestor tables once and prints one classification line per triple.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBatch,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "TOML config file")
	flags.StringVarP(&inputPath, "input", "i", "", "input file (default stdin)")
	flags.StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	flags.Int("root", 0, "root node of the tree")
	flags.Int("workers", 1, "goroutines used to evaluate queries")
	flags.Bool("strict", false, "reject duplicate edges")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "also write logs to this file (rotated)")
	flags.String("metrics-file", "", "write prometheus metrics to this file after the run")
	rootCmd.Version = version
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.InitFromConfig(cfg.LoggingConfig(serviceName, "batch"))
	config.PrintWithMask(logger.Logger, cfg)

	shutdown, err := tracing.InitTracer(serviceName)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics(serviceName)
		m.RegisterBuildInfo(serviceName, version)
	}

	in, closeIn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := query.NewRunner(query.Options{
		Root:        cfg.Query.Root,
		Workers:     cfg.Query.Workers,
		StrictEdges: cfg.Query.StrictEdges,
	}, logger, m)

	sum, runErr := runner.Run(ctx, in, out)
	logger.InfoContext(ctx, "batch finished",
		"nodes", sum.Nodes, "queries", sum.Queries, "failed", sum.Failed)

	if m != nil {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.ErrorContext(ctx, "write metrics textfile failed", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return runErr
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, xerrors.Wrap(err, xerrors.ErrInvalidArg, "open input")
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, xerrors.Wrap(err, xerrors.ErrInternal, "create output")
	}
	return f, func() { _ = f.Close() }, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "treelift:", err)
		os.Exit(xerrors.ExitCode(err))
	}
}
