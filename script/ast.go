package script

// Pos is a 1-based source position carried by every node so later stages
// can attribute faults accurately.
type Pos struct {
	Line int
	Col  int
}

// Node is any syntax-tree node.
type Node interface {
	Pos() Pos
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Unit is the parsed tree for one submission. Before transformation Body
// holds the raw top-level statements and Entry is nil; after entry-point
// wrapping, Entry holds the whole rewritten script and Body is empty.
type Unit struct {
	Body  []Stmt
	Entry *AsyncEntry
}

// AsyncEntry is the anonymous asynchronous entry point produced by the
// final transform stage. The executor drives the whole unit through one
// suspend/resume-capable invocation of this entry.
type AsyncEntry struct {
	Name string
	Body []Stmt
	P    Pos
}

func (e *AsyncEntry) Pos() Pos { return e.P }

// ---------------------------------------------------------------- statements

// ImportStmt is `import name`.
type ImportStmt struct {
	Module string
	P      Pos
}

// AssignStmt is `name = expr`.
type AssignStmt struct {
	Name  string
	Value Expr
	P     Pos
}

// ReturnStmt is `return [expr]`; the script's explicit "produce this as the
// output" statement. Value may be nil.
type ReturnStmt struct {
	Value Expr
	P     Pos
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	X Expr
	P Pos
}

func (s *ImportStmt) Pos() Pos { return s.P }
func (s *AssignStmt) Pos() Pos { return s.P }
func (s *ReturnStmt) Pos() Pos { return s.P }
func (s *ExprStmt) Pos() Pos   { return s.P }

func (*ImportStmt) stmtNode() {}
func (*AssignStmt) stmtNode() {}
func (*ReturnStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}

// --------------------------------------------------------------- expressions

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	P     Pos
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value float64
	P     Pos
}

// StringLit is a string literal (decoded).
type StringLit struct {
	Value string
	P     Pos
}

// BoolLit is True or False.
type BoolLit struct {
	Value bool
	P     Pos
}

// NoneLit is None.
type NoneLit struct {
	P Pos
}

// Ident is a bare identifier reference.
type Ident struct {
	Name string
	P    Pos
}

// AttrExpr is `x.name`.
type AttrExpr struct {
	X    Expr
	Name string
	P    Pos
}

// IndexExpr is `x[index]`.
type IndexExpr struct {
	X     Expr
	Index Expr
	P     Pos
}

// KeywordArg is one `name=value` argument inside a call.
type KeywordArg struct {
	Name  string
	Value Expr
	P     Pos
}

// CallExpr is `fun(args..., kwargs...)`. After the keyword-elimination
// transform, tool calls carry only positional Args.
type CallExpr struct {
	Fun      Expr
	Args     []Expr
	Keywords []KeywordArg
	P        Pos
}

// AwaitExpr marks a suspension point. It never appears in parsed source;
// the suspension-injection transform wraps async tool calls in it.
type AwaitExpr struct {
	Call *CallExpr
	P    Pos
}

// UnaryExpr is `-x` or `not x`.
type UnaryExpr struct {
	Op string
	X  Expr
	P  Pos
}

// BinaryExpr is `x op y`.
type BinaryExpr struct {
	Op   string
	X, Y Expr
	P    Pos
}

// ListLit is `[e1, e2, ...]`.
type ListLit struct {
	Elems []Expr
	P     Pos
}

// DictLit is `{k1: v1, ...}`. Keys and Values are parallel slices in
// source order.
type DictLit struct {
	Keys   []Expr
	Values []Expr
	P      Pos
}

func (e *IntLit) Pos() Pos     { return e.P }
func (e *FloatLit) Pos() Pos   { return e.P }
func (e *StringLit) Pos() Pos  { return e.P }
func (e *BoolLit) Pos() Pos    { return e.P }
func (e *NoneLit) Pos() Pos    { return e.P }
func (e *Ident) Pos() Pos      { return e.P }
func (e *AttrExpr) Pos() Pos   { return e.P }
func (e *IndexExpr) Pos() Pos  { return e.P }
func (e *CallExpr) Pos() Pos   { return e.P }
func (e *AwaitExpr) Pos() Pos  { return e.P }
func (e *UnaryExpr) Pos() Pos  { return e.P }
func (e *BinaryExpr) Pos() Pos { return e.P }
func (e *ListLit) Pos() Pos    { return e.P }
func (e *DictLit) Pos() Pos    { return e.P }

func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*StringLit) exprNode()  {}
func (*BoolLit) exprNode()    {}
func (*NoneLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*AttrExpr) exprNode()   {}
func (*IndexExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}
func (*AwaitExpr) exprNode()  {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*ListLit) exprNode()    {}
func (*DictLit) exprNode()    {}

// Inspect traverses the tree rooted at node in pre-order, left-to-right,
// calling f for each node. If f returns false the node's children are
// skipped. The traversal order is a contract: the validator reports the
// first violation in exactly this order.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *AsyncEntry:
		for _, s := range n.Body {
			Inspect(s, f)
		}
	case *ImportStmt, *IntLit, *FloatLit, *StringLit, *BoolLit, *NoneLit, *Ident:
		// leaves
	case *AssignStmt:
		Inspect(n.Value, f)
	case *ReturnStmt:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *AttrExpr:
		Inspect(n.X, f)
	case *IndexExpr:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *CallExpr:
		Inspect(n.Fun, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
		for _, k := range n.Keywords {
			Inspect(k.Value, f)
		}
	case *AwaitExpr:
		Inspect(n.Call, f)
	case *UnaryExpr:
		Inspect(n.X, f)
	case *BinaryExpr:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *ListLit:
		for _, e := range n.Elems {
			Inspect(e, f)
		}
	case *DictLit:
		for i := range n.Keys {
			Inspect(n.Keys[i], f)
			Inspect(n.Values[i], f)
		}
	}
}

// InspectStmts runs Inspect over a statement list in order.
func InspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}
