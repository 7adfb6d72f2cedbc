package xerrors

var (
	// ErrInvalidInput 输入格式错误。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidNodeID 节点编号越界。
	ErrInvalidNodeID = New(ErrInvalidArg, 400101, "invalid node id", "node id must be in range [0, n)", nil)
	// ErrSelfLoop 边的两个端点相同。
	ErrSelfLoop = New(ErrInvalidArg, 400102, "self loop", "edge endpoints must differ", nil)
	// ErrNegativeWeight 边权为负。
	ErrNegativeWeight = New(ErrInvalidArg, 400103, "negative weight", "edge weight must be non-negative", nil)
	// ErrTooManyEdges 插入的边超过 n-1 条。
	ErrTooManyEdges = New(ErrInvalidArg, 400104, "too many edges", "a tree with n nodes has exactly n-1 edges", nil)
	// ErrEdgeCount 初始化时边数不等于 n-1。
	ErrEdgeCount = New(ErrInvalidArg, 400105, "bad edge count", "insert exactly n-1 edges before initialization", nil)
	// ErrDisconnectedGraph 从根出发无法到达全部节点。
	ErrDisconnectedGraph = New(ErrInvalidArg, 400106, "disconnected graph", "every node must be reachable from the root", nil)
	// ErrMalformedInput 批量输入无法解析。
	ErrMalformedInput = New(ErrInvalidArg, 400107, "malformed input", "expected whitespace separated integers", nil)
	// ErrWeightOverflow 边权总和超出 int64 范围。
	ErrWeightOverflow = New(ErrInvalidArg, 400108, "weight overflow", "sum of all edge weights must fit in int64", nil)
	// ErrDuplicateEdge 重复插入同一条边 (严格模式)。
	ErrDuplicateEdge = New(ErrAlreadyExists, 409101, "duplicate edge", "edge already inserted", nil)
	// ErrNotInitialized 在初始化之前发起查询。
	ErrNotInitialized = New(ErrInternal, 500101, "not initialized", "call Initialize before querying", nil)
	// ErrTreeFrozen 初始化之后不再允许修改树结构。
	ErrTreeFrozen = New(ErrInternal, 500102, "tree frozen", "build a new structure to change edges", nil)
)
