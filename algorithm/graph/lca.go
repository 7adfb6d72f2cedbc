// Package graph 提供了基于倍增（Binary Lifting）的带权树最近公共祖先查询。
package graph

import (
	"context"
	"log/slog"
	"math"
	"math/bits"
	"time"

	"github.com/wyfcoding/treelift/logging"
	"github.com/wyfcoding/treelift/xerrors"
)

// MaxNodes 单棵树允许的最大节点数，倍增表占用 O(MaxNodes log MaxNodes) 内存。
const MaxNodes = 1 << 22

// Option 配置 WeightedLCA 的可选行为。
type Option func(*WeightedLCA)

// WithStrictEdges 开启重复边检测，重复插入同一条无向边时返回 ErrDuplicateEdge。
func WithStrictEdges() Option {
	return func(l *WeightedLCA) {
		l.strict = true
	}
}

// WithLogger 指定构建日志使用的 Logger，默认使用 logging.Default()。
func WithLogger(logger *logging.Logger) Option {
	return func(l *WeightedLCA) {
		l.logger = logger
	}
}

type edge struct {
	to     int
	weight int64
}

// WeightedLCA 实现了带边权的倍增 LCA。
// 预处理复杂度 O(N log N)，单次查询复杂度 O(log N)。
// Initialize 之后结构只读，可被任意数量的 goroutine 并发查询。
type WeightedLCA struct {
	adj    [][]edge
	seen   map[[2]int]struct{} // 仅在严格模式下使用
	logger *logging.Logger

	up    []int   // 扁平化数组: up[v*logN+k] 表示节点 v 的第 2^k 个祖先，根节点指向自身。
	jump  []int64 // jump[v*logN+k] 表示从 v 向上跳 2^k 步经过的边权之和。
	depth []int

	n           int
	logN        int
	edges       int
	totalWeight int64 // 全部边权之和，任意路径长度都不超过它。
	root        int
	strict      bool
	initialized bool
}

// NewWeightedLCA 创建一个包含 n 个节点 (编号 0..n-1) 的空树。
func NewWeightedLCA(n int, opts ...Option) (*WeightedLCA, error) {
	if n <= 0 {
		return nil, xerrors.ErrInvalidInput.WithDetail("node count must be positive, got %d", n)
	}
	if n > MaxNodes {
		return nil, xerrors.ErrInvalidInput.WithDetail("node count %d exceeds limit %d", n, MaxNodes)
	}

	// 2^(logN-1) >= n-1，保证任意祖先距离都能被二进制分解。
	logN := bits.Len(uint(n-1)) + 1

	lca := &WeightedLCA{
		adj:   make([][]edge, n),
		up:    make([]int, n*logN),
		jump:  make([]int64, n*logN),
		depth: make([]int, n),
		n:     n,
		logN:  logN,
		root:  -1,
	}
	for _, opt := range opts {
		opt(lca)
	}
	if lca.strict {
		lca.seen = make(map[[2]int]struct{}, n)
	}
	if lca.logger == nil {
		lca.logger = logging.Default()
	}
	return lca, nil
}

// AddEdge 插入一条带权无向边。必须在 Initialize 之前调用恰好 n-1 次。
// 全部边权之和必须能用 int64 表示，否则返回 ErrWeightOverflow。
func (l *WeightedLCA) AddEdge(u, v int, weight int64) error {
	if l.initialized {
		return xerrors.ErrTreeFrozen
	}
	if err := l.checkNode(u); err != nil {
		return err
	}
	if err := l.checkNode(v); err != nil {
		return err
	}
	if u == v {
		return xerrors.ErrSelfLoop.WithContext("node", u)
	}
	if weight < 0 {
		return xerrors.ErrNegativeWeight.WithContext("weight", weight)
	}
	if l.edges >= l.n-1 {
		return xerrors.ErrTooManyEdges.WithDetail("tree with %d nodes already has %d edges", l.n, l.edges)
	}
	if weight > math.MaxInt64-l.totalWeight {
		return xerrors.ErrWeightOverflow.WithDetail("edge %d-%d weight %d on top of %d", u, v, weight, l.totalWeight)
	}
	if l.strict {
		key := [2]int{min(u, v), max(u, v)}
		if _, ok := l.seen[key]; ok {
			return xerrors.ErrDuplicateEdge.WithDetail("edge %d-%d", u, v)
		}
		l.seen[key] = struct{}{}
	}

	l.adj[u] = append(l.adj[u], edge{to: v, weight: weight})
	l.adj[v] = append(l.adj[v], edge{to: u, weight: weight})
	l.edges++
	l.totalWeight += weight
	return nil
}

// Initialize 以 root 为根构建深度表与倍增表。
// 失败时结构保持未初始化状态；对同一组边重复调用会得到完全相同的表。
func (l *WeightedLCA) Initialize(root int) error {
	if err := l.checkNode(root); err != nil {
		return err
	}
	if l.edges != l.n-1 {
		return xerrors.ErrEdgeCount.WithDetail("have %d edges, need %d", l.edges, l.n-1)
	}

	start := time.Now()
	l.initialized = false
	reached := l.iterativeDFS(root)
	if reached != l.n {
		return xerrors.ErrDisconnectedGraph.WithDetail("reached %d of %d nodes from root %d", reached, l.n, root)
	}

	l.root = root
	l.initialized = true
	l.logger.DebugContext(context.Background(), "lca tables built",
		slog.Int("nodes", l.n),
		slog.Int("levels", l.logN),
		slog.Int("root", root),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// iterativeDFS 使用显式栈遍历树，防止深度过大导致栈溢出。
// 节点出栈时其父节点早已出栈并完成倍增表，因此可以立即补全该节点所有层级。
// 返回可达节点数。
func (l *WeightedLCA) iterativeDFS(root int) int {
	type stackItem struct {
		v, p int
		w    int64
	}

	visited := make([]bool, l.n)
	visited[root] = true
	stack := []stackItem{{v: root, p: root}}
	reached := 0

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++

		v, p := item.v, item.p
		base := v * l.logN
		if v == root {
			l.depth[v] = 0
		} else {
			l.depth[v] = l.depth[p] + 1
		}
		l.up[base] = p
		l.jump[base] = item.w

		for k := 1; k < l.logN; k++ {
			// up[v][k] = up[up[v][k-1]][k-1]。
			mid := l.up[base+k-1]
			l.up[base+k] = l.up[mid*l.logN+k-1]
			l.jump[base+k] = l.jump[base+k-1] + l.jump[mid*l.logN+k-1]
		}

		for _, e := range l.adj[v] {
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			stack = append(stack, stackItem{v: e.to, p: v, w: e.weight})
		}
	}
	return reached
}

// LCA 查询两个节点的最近公共祖先。
func (l *WeightedLCA) LCA(u, v int) (int, error) {
	if err := l.checkQuery(u, v); err != nil {
		return 0, err
	}
	return l.lca(u, v), nil
}

func (l *WeightedLCA) lca(u, v int) int {
	if l.depth[u] < l.depth[v] {
		u, v = v, u
	}

	// 1. 将 u 提升到与 v 同一深度。
	u = l.lift(u, l.depth[u]-l.depth[v])
	if u == v {
		return u
	}

	// 2. 同时提升 u 和 v，直到它们的父节点相同。
	for k := l.logN - 1; k >= 0; k-- {
		pu := l.up[u*l.logN+k]
		pv := l.up[v*l.logN+k]
		if pu != pv {
			u, v = pu, pv
		}
	}

	return l.up[u*l.logN]
}

// lift 将 v 向上提升 steps 步，调用方保证 steps <= depth[v]。
func (l *WeightedLCA) lift(v, steps int) int {
	for k := l.logN - 1; k >= 0 && steps > 0; k-- {
		if steps >= 1<<k {
			v = l.up[v*l.logN+k]
			steps -= 1 << k
		}
	}
	return v
}

// DistanceToRoot 返回节点 v 到根的带权距离。
func (l *WeightedLCA) DistanceToRoot(v int) (int64, error) {
	if err := l.checkQuery(v); err != nil {
		return 0, err
	}
	return l.distanceToRoot(v), nil
}

func (l *WeightedLCA) distanceToRoot(v int) int64 {
	var sum int64
	for k := l.logN - 1; k >= 0; k-- {
		if v == l.root {
			break
		}
		if l.depth[v] >= 1<<k {
			sum += l.jump[v*l.logN+k]
			v = l.up[v*l.logN+k]
		}
	}
	return sum
}

// Distance 返回 u 与 v 之间路径的边权之和。
func (l *WeightedLCA) Distance(u, v int) (int64, error) {
	if err := l.checkQuery(u, v); err != nil {
		return 0, err
	}
	a := l.lca(u, v)
	// 先减后加：两段都不超过边权总和，d(u)+d(v) 本身却可能溢出。
	da := l.distanceToRoot(a)
	return (l.distanceToRoot(u) - da) + (l.distanceToRoot(v) - da), nil
}

// HopDistance 返回 u 与 v 之间路径的边数。
func (l *WeightedLCA) HopDistance(u, v int) (int, error) {
	if err := l.checkQuery(u, v); err != nil {
		return 0, err
	}
	return l.hops(u, v), nil
}

func (l *WeightedLCA) hops(u, v int) int {
	a := l.lca(u, v)
	return l.depth[u] + l.depth[v] - 2*l.depth[a]
}

// OnPath 判断 x 是否位于 a 到 b 的简单路径上。
// 使用边数而非边权判定，零权边不会造成误判。
func (l *WeightedLCA) OnPath(a, b, x int) (bool, error) {
	if err := l.checkQuery(a, b, x); err != nil {
		return false, err
	}
	return l.onPath(a, b, x), nil
}

func (l *WeightedLCA) onPath(a, b, x int) bool {
	return l.hops(a, x)+l.hops(x, b) == l.hops(a, b)
}

// KthAncestor 返回 v 向上第 k 个祖先，k 为 0 时返回 v 本身。
func (l *WeightedLCA) KthAncestor(v, k int) (int, error) {
	if err := l.checkQuery(v); err != nil {
		return 0, err
	}
	if k < 0 || k > l.depth[v] {
		return 0, xerrors.ErrInvalidInput.WithDetail("ancestor level %d out of range [0, %d]", k, l.depth[v])
	}
	return l.lift(v, k), nil
}

// Depth 返回节点深度，根为 0。
func (l *WeightedLCA) Depth(v int) (int, error) {
	if err := l.checkQuery(v); err != nil {
		return 0, err
	}
	return l.depth[v], nil
}

// N 返回节点数。
func (l *WeightedLCA) N() int { return l.n }

// Levels 返回倍增表层数。
func (l *WeightedLCA) Levels() int { return l.logN }

// Root 返回根节点，未初始化时为 -1。
func (l *WeightedLCA) Root() int { return l.root }

// Initialized 报告倍增表是否已经构建。
func (l *WeightedLCA) Initialized() bool { return l.initialized }

func (l *WeightedLCA) checkNode(v int) error {
	if v < 0 || v >= l.n {
		return xerrors.ErrInvalidNodeID.WithContext("node", v).WithDetail("node %d not in [0, %d)", v, l.n)
	}
	return nil
}

func (l *WeightedLCA) checkQuery(nodes ...int) error {
	if !l.initialized {
		return xerrors.ErrNotInitialized
	}
	for _, v := range nodes {
		if err := l.checkNode(v); err != nil {
			return err
		}
	}
	return nil
}
