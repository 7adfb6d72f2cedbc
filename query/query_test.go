package query

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/treelift/logging"
	"github.com/wyfcoding/treelift/metrics"
	"github.com/wyfcoding/treelift/xerrors"
)

var quietLogger = logging.NewFromConfig(logging.Config{Service: "test", Module: "query", Quiet: true})

const fiveNodeInput = `5 5
0 1 2
0 2 3
1 3 1
1 4 5
1 3 4
3 2 4
3 4 2
2 3 4
3 9 4
`

func TestParse(t *testing.T) {
	ds, err := Parse(strings.NewReader(fiveNodeInput))
	require.NoError(t, err)
	assert.Equal(t, 5, ds.N)
	require.Len(t, ds.Edges, 4)
	assert.Equal(t, Edge{U: 1, V: 4, Weight: 5}, ds.Edges[3])
	require.Len(t, ds.Queries, 5)
	assert.Equal(t, Triple{U: 3, V: 9, W: 4}, ds.Queries[4])
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":            "",
		"not a number":     "3 x",
		"zero nodes":       "0 1",
		"negative q":       "2 -1",
		"truncated edges":  "3 0\n0 1 1\n",
		"truncated query":  "2 1\n0 1 1\n0 1",
		"huge node count":  "1000000000000000 0",
		"huge query count": "2 1000000000000000000\n0 1 1\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.ErrorIs(t, err, xerrors.ErrMalformedInput)
		})
	}
}

func TestRunner_Run(t *testing.T) {
	m := metrics.NewMetrics("test")
	r := NewRunner(Options{Root: 0, Workers: 1}, quietLogger, m)

	var out bytes.Buffer
	sum, err := r.Run(context.Background(), strings.NewReader(fiveNodeInput), &out)
	require.NoError(t, err)

	assert.Equal(t, "u-ancestor 1 YES\n"+
		"common-branch 0 NO\n"+
		"pair-uv 1 NO\n"+
		"pair-vw 1 NO\n"+
		"error invalid-node\n", out.String())
	assert.Equal(t, Summary{Nodes: 5, Queries: 5, Failed: 1}, sum)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("pair-uv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryErrors.WithLabelValues("invalid-node")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TreeNodes))
}

func TestRunner_BuildErrorsAbort(t *testing.T) {
	tests := map[string]struct {
		input  string
		opts   Options
		target error
	}{
		"disconnected": {"4 1\n0 1 1\n1 0 1\n2 3 1\n0 1 2\n", Options{}, xerrors.ErrDisconnectedGraph},
		"strict duplicate": {"4 0\n0 1 1\n1 0 1\n2 3 1\n", Options{StrictEdges: true}, xerrors.ErrDuplicateEdge},
		"self loop":        {"2 0\n1 1 1\n", Options{}, xerrors.ErrSelfLoop},
		"bad node in edge": {"2 0\n0 2 1\n", Options{}, xerrors.ErrInvalidNodeID},
		"negative weight":  {"2 0\n0 1 -1\n", Options{}, xerrors.ErrNegativeWeight},
		"bad root":         {"2 0\n0 1 1\n", Options{Root: 5}, xerrors.ErrInvalidNodeID},
		"weight overflow":  {"3 0\n0 1 4611686018427387904\n1 2 4611686018427387904\n", Options{}, xerrors.ErrWeightOverflow},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := NewRunner(tt.opts, quietLogger, nil).Run(context.Background(), strings.NewReader(tt.input), &out)
			assert.ErrorIs(t, err, tt.target)
			assert.Zero(t, out.Len(), "no output before a successful build")
		})
	}
}

func randomInput(r *rand.Rand, n, q int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", n, q)
	for i := 1; i < n; i++ {
		fmt.Fprintf(&b, "%d %d %d\n", r.IntN(i), i, r.IntN(100))
	}
	for range q {
		// 偶尔越界，验证错误行也保持顺序。
		fmt.Fprintf(&b, "%d %d %d\n", r.IntN(n+1), r.IntN(n), r.IntN(n))
	}
	return b.String()
}

func TestRunner_ParallelOutputKeepsOrder(t *testing.T) {
	input := randomInput(rand.New(rand.NewPCG(1, 2)), 300, 2000)

	var serial, parallel bytes.Buffer
	s1, err := NewRunner(Options{Workers: 1}, quietLogger, nil).Run(context.Background(), strings.NewReader(input), &serial)
	require.NoError(t, err)
	s8, err := NewRunner(Options{Workers: 8}, quietLogger, nil).Run(context.Background(), strings.NewReader(input), &parallel)
	require.NoError(t, err)

	assert.Equal(t, serial.String(), parallel.String())
	assert.Equal(t, s1, s8)
	assert.Equal(t, 2000, strings.Count(serial.String(), "\n"))
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := NewRunner(Options{}, quietLogger, nil).Run(ctx, strings.NewReader(fiveNodeInput), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}
