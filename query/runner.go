package query

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc/stream"

	"github.com/wyfcoding/treelift/algorithm/graph"
	"github.com/wyfcoding/treelift/logging"
	"github.com/wyfcoding/treelift/metrics"
	"github.com/wyfcoding/treelift/tracing"
	"github.com/wyfcoding/treelift/xerrors"
)

// Options 控制构建与查询行为。
type Options struct {
	Root        int
	Workers     int // 并发求值的 goroutine 数，输出顺序始终与输入一致
	StrictEdges bool
}

// Summary 是一次批量运行的统计。
type Summary struct {
	Nodes   int
	Queries int
	Failed  int
}

// Runner 执行批量协议。
type Runner struct {
	opts    Options
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewRunner 创建 Runner，logger 为 nil 时使用默认日志，m 可以为 nil。
func NewRunner(opts Options, logger *logging.Logger, m *metrics.Metrics) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{opts: opts, logger: logger, metrics: m}
}

// Build 插入全部边并以配置的根初始化，任何错误都会中止构建。
func (r *Runner) Build(ds *Dataset) (*graph.WeightedLCA, error) {
	start := time.Now()

	opts := []graph.Option{graph.WithLogger(r.logger)}
	if r.opts.StrictEdges {
		opts = append(opts, graph.WithStrictEdges())
	}
	tree, err := graph.NewWeightedLCA(ds.N, opts...)
	if err != nil {
		return nil, err
	}
	for i, e := range ds.Edges {
		if err := tree.AddEdge(e.U, e.V, e.Weight); err != nil {
			return nil, xerrors.Wrap(err, xerrors.ErrInvalidArg, fmt.Sprintf("edge %d (%d %d %d)", i+1, e.U, e.V, e.Weight))
		}
	}
	if err := tree.Initialize(r.opts.Root); err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.BuildDuration.Observe(time.Since(start).Seconds())
		r.metrics.TreeNodes.Set(float64(ds.N))
	}
	return tree, nil
}

// Run 解析 in、构建树并将每条查询结果按输入顺序写入 out。
// 单条查询失败只输出 `error <reason>` 行，不会中止整批。
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (sum Summary, err error) {
	ctx, span := tracing.StartSpan(ctx, "treelift.run")
	defer func() {
		tracing.SetError(ctx, err)
		span.End()
	}()
	defer logging.LogDuration(ctx, "batch run")()

	ds, err := Parse(in)
	if err != nil {
		return Summary{}, err
	}
	tracing.AddTag(ctx, "nodes", ds.N)
	tracing.AddTag(ctx, "queries", len(ds.Queries))

	buildCtx, buildSpan := tracing.StartSpan(ctx, "treelift.build")
	tree, err := r.Build(ds)
	tracing.SetError(buildCtx, err)
	buildSpan.End()
	if err != nil {
		return Summary{}, err
	}
	r.logger.InfoContext(ctx, "tree built",
		"nodes", ds.N, "levels", tree.Levels(), "root", tree.Root(), "queries", len(ds.Queries))

	evalCtx, evalSpan := tracing.StartSpan(ctx, "treelift.evaluate")
	sum, err = r.Evaluate(evalCtx, tree, ds.Queries, out)
	tracing.AddTag(evalCtx, "failed", sum.Failed)
	tracing.SetError(evalCtx, err)
	evalSpan.End()
	sum.Nodes = ds.N
	return sum, err
}

// Evaluate 对已初始化的树求值全部查询。
func (r *Runner) Evaluate(ctx context.Context, tree *graph.WeightedLCA, queries []Triple, out io.Writer) (Summary, error) {
	w := bufio.NewWriter(out)
	var (
		sum      Summary
		writeErr error
	)

	// 回调按提交顺序串行执行，因此 w、sum 与 writeErr 无需加锁。
	s := stream.New().WithMaxGoroutines(r.opts.Workers)
	for i, t := range queries {
		if ctx.Err() != nil {
			break
		}
		s.Go(func() stream.Callback {
			c, err := tree.Classify(t.U, t.V, t.W)
			return func() {
				sum.Queries++
				if err != nil {
					sum.Failed++
					r.reportFailure(ctx, i, t, err)
				} else if r.metrics != nil {
					r.metrics.QueriesTotal.WithLabelValues(c.Relation.String()).Inc()
				}
				if writeErr == nil {
					writeErr = writeResult(w, c, err)
				}
			}
		})
	}
	s.Wait()

	if writeErr != nil {
		return sum, xerrors.Wrap(writeErr, xerrors.ErrInternal, "write output")
	}
	if err := w.Flush(); err != nil {
		return sum, xerrors.Wrap(err, xerrors.ErrInternal, "flush output")
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r *Runner) reportFailure(ctx context.Context, idx int, t Triple, err error) {
	reason := failureReason(err)
	if r.metrics != nil {
		r.metrics.QueryErrors.WithLabelValues(reason).Inc()
	}
	r.logger.WarnContext(ctx, "query rejected",
		"index", idx+1, "u", t.U, "v", t.V, "w", t.W, "reason", reason, "error", err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, xerrors.ErrInvalidNodeID):
		return "invalid-node"
	case errors.Is(err, xerrors.ErrNotInitialized):
		return "not-initialized"
	default:
		return "internal"
	}
}

func writeResult(w io.Writer, c graph.Classification, err error) error {
	if err != nil {
		_, werr := fmt.Fprintf(w, "error %s\n", failureReason(err))
		return werr
	}
	path := "NO"
	if c.OnCommonPath {
		path = "YES"
	}
	_, werr := fmt.Fprintf(w, "%s %d %s\n", c.Relation, c.Pivot, path)
	return werr
}
