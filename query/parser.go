// Package query 实现批量控制台协议：读取带权树与三元查询，输出每条查询的分类结果。
package query

import (
	"bufio"
	"io"
	"strconv"

	"github.com/wyfcoding/treelift/algorithm/graph"
	"github.com/wyfcoding/treelift/xerrors"
)

// preallocLimit 按声明的计数预分配切片时的上限，更多的元素由 append 按需扩容。
const preallocLimit = 1 << 16

// Edge 输入中的一条带权边。
type Edge struct {
	U, V   int
	Weight int64
}

// Triple 一条三元查询。
type Triple struct {
	U, V, W int
}

// Dataset 是一次完整的批量输入。
type Dataset struct {
	N       int
	Edges   []Edge
	Queries []Triple
}

type tokenReader struct {
	sc    *bufio.Scanner
	count int
}

func (t *tokenReader) next(what string) (int64, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return 0, xerrors.Wrap(err, xerrors.ErrInternal, "read input")
		}
		return 0, xerrors.ErrMalformedInput.WithDetail("unexpected end of input, want %s (token %d)", what, t.count+1)
	}
	t.count++
	v, err := strconv.ParseInt(t.sc.Text(), 10, 64)
	if err != nil {
		return 0, xerrors.ErrMalformedInput.WithDetail("token %d (%s): %q is not an integer", t.count, what, t.sc.Text())
	}
	return v, nil
}

func (t *tokenReader) nextInt(what string) (int, error) {
	v, err := t.next(what)
	return int(v), err
}

// Parse 读取 `n q`、n-1 行 `u v w` 边与 q 行 `u v w` 查询。
// 这里只校验格式与计数，节点编号的合法性由树结构在构建或查询时检查。
func Parse(r io.Reader) (*Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	tr := &tokenReader{sc: sc}

	n, err := tr.nextInt("n")
	if err != nil {
		return nil, err
	}
	q, err := tr.nextInt("q")
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, xerrors.ErrMalformedInput.WithDetail("node count must be positive, got %d", n)
	}
	if n > graph.MaxNodes {
		return nil, xerrors.ErrMalformedInput.WithDetail("node count %d exceeds limit %d", n, graph.MaxNodes)
	}
	if q < 0 {
		return nil, xerrors.ErrMalformedInput.WithDetail("query count must be non-negative, got %d", q)
	}

	ds := &Dataset{
		N:       n,
		Edges:   make([]Edge, 0, min(n-1, preallocLimit)),
		Queries: make([]Triple, 0, min(q, preallocLimit)),
	}
	for range n - 1 {
		var e Edge
		if e.U, err = tr.nextInt("edge u"); err != nil {
			return nil, err
		}
		if e.V, err = tr.nextInt("edge v"); err != nil {
			return nil, err
		}
		if e.Weight, err = tr.next("edge weight"); err != nil {
			return nil, err
		}
		ds.Edges = append(ds.Edges, e)
	}
	for range q {
		var t Triple
		if t.U, err = tr.nextInt("query u"); err != nil {
			return nil, err
		}
		if t.V, err = tr.nextInt("query v"); err != nil {
			return nil, err
		}
		if t.W, err = tr.nextInt("query w"); err != nil {
			return nil, err
		}
		ds.Queries = append(ds.Queries, t)
	}
	return ds, nil
}
