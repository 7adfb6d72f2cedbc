package graph

// Relation 描述三个查询节点之间的祖先/分叉关系。
type Relation int

const (
	// RelationUAncestor u 是三者的公共祖先。
	RelationUAncestor Relation = iota + 1
	// RelationVAncestor v 是三者的公共祖先。
	RelationVAncestor
	// RelationWAncestor w 是三者的公共祖先。
	RelationWAncestor
	// RelationCommonBranch LCA(u,v) == LCA(v,w)，三者在同一分叉点汇合 (u、w 可能在更深处先汇合)。
	RelationCommonBranch
	// RelationPairUV u 与 v 在 LCA(u,v) 处先汇合，w 最早分离。
	RelationPairUV
	// RelationPairVW v 与 w 在 LCA(v,w) 处先汇合，u 最早分离。
	RelationPairVW
)

var relationLabels = map[Relation]string{
	RelationUAncestor:    "u-ancestor",
	RelationVAncestor:    "v-ancestor",
	RelationWAncestor:    "w-ancestor",
	RelationCommonBranch: "common-branch",
	RelationPairUV:       "pair-uv",
	RelationPairVW:       "pair-vw",
}

func (r Relation) String() string {
	if s, ok := relationLabels[r]; ok {
		return s
	}
	return "unknown"
}

// Classification 是一次三元查询的结果。
type Classification struct {
	Relation Relation
	// Pivot 是决定该分支的节点：祖先分支为该祖先本身，其余分支为对应的汇合点。
	Pivot int
	X     int // LCA(u, v)
	Y     int // LCA(v, w)
	Z     int // LCA(u, w)
	A     int // LCA(X, w)，即三者的公共祖先
	// OnCommonPath 表示三个节点是否位于同一条简单路径上。
	OnCommonPath bool
}

// Classify 通过四次 LCA 查询对 u、v、w 的相对位置进行分类，按顺序命中第一个分支。
func (l *WeightedLCA) Classify(u, v, w int) (Classification, error) {
	if err := l.checkQuery(u, v, w); err != nil {
		return Classification{}, err
	}

	c := Classification{
		X: l.lca(u, v),
		Y: l.lca(v, w),
		Z: l.lca(u, w),
	}
	c.A = l.lca(c.X, w)

	switch {
	case c.A == u:
		c.Relation, c.Pivot = RelationUAncestor, u
	case c.A == v:
		c.Relation, c.Pivot = RelationVAncestor, v
	case c.A == w:
		c.Relation, c.Pivot = RelationWAncestor, w
	case c.X == c.Y:
		c.Relation, c.Pivot = RelationCommonBranch, c.X
	case c.X != c.A:
		c.Relation, c.Pivot = RelationPairUV, c.X
	default:
		c.Relation, c.Pivot = RelationPairVW, c.Y
	}

	c.OnCommonPath = l.onPath(v, w, u) || l.onPath(u, w, v) || l.onPath(u, v, w)
	return c, nil
}
