// Package ast implements the w++ abstract syntax tree: an append-only
// arena of tagged nodes addressed by stable integer ids.
//
// Grounded in the teacher's S-expression AST (daios-ai-msg/parser.go,
// which represents nodes as []any tagged by a leading string) and in
// spans.go's sidecar-position idea, adapted into an explicit node arena
// because w++'s evaluator needs in-place node replacement (Var -> Fn,
// Pre's name-prefixing) that a plain tree of interfaces can't express
// without an indirection layer.
package ast

// Position is a source location: logical path, line, column. Carried by
// every node for diagnostics.
type Position struct {
	Path string
	Line int
	Col  int
}

// Kind tags which variant a Node holds.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindConcat
	KindFnInvoke
	KindFn
	KindVar
	KindDrop
	KindIntrinsic
	KindCodeify
	KindBlock
	KindMap
	KindPre
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindConcat:
		return "Concat"
	case KindFnInvoke:
		return "FnInvoke"
	case KindFn:
		return "Fn"
	case KindVar:
		return "Var"
	case KindDrop:
		return "Drop"
	case KindIntrinsic:
		return "Intrinsic"
	case KindCodeify:
		return "Codeify"
	case KindBlock:
		return "Block"
	case KindMap:
		return "Map"
	case KindPre:
		return "Pre"
	case KindDocument:
		return "Document"
	default:
		return "Invalid"
	}
}

// IntrinsicKind tags the built-in operation an Intrinsic node invokes.
type IntrinsicKind int

const (
	IntrinsicInvalid IntrinsicKind = iota
	IntrinsicAssert
	IntrinsicError
	IntrinsicFile
	IntrinsicSource
	IntrinsicEscape
	IntrinsicEval
	IntrinsicRun
	IntrinsicPipe
	IntrinsicSlice
	IntrinsicFind
	IntrinsicLength
	IntrinsicLog
)

func (k IntrinsicKind) String() string {
	switch k {
	case IntrinsicAssert:
		return "assert"
	case IntrinsicError:
		return "error"
	case IntrinsicFile:
		return "file"
	case IntrinsicSource:
		return "source"
	case IntrinsicEscape:
		return "escape"
	case IntrinsicEval:
		return "eval"
	case IntrinsicRun:
		return "run"
	case IntrinsicPipe:
		return "pipe"
	case IntrinsicSlice:
		return "slice"
	case IntrinsicFind:
		return "find"
	case IntrinsicLength:
		return "length"
	case IntrinsicLog:
		return "log"
	default:
		return "<invalid-intrinsic>"
	}
}

// Arity is the fixed argument count for each intrinsic kind (spec.md §4.3).
func (k IntrinsicKind) Arity() int {
	switch k {
	case IntrinsicSlice:
		return 3
	case IntrinsicFind, IntrinsicAssert, IntrinsicPipe:
		return 2
	case IntrinsicError, IntrinsicFile, IntrinsicSource, IntrinsicEscape,
		IntrinsicEval, IntrinsicRun, IntrinsicLength, IntrinsicLog:
		return 1
	default:
		return -1
	}
}

// NodeID is a stable index into a Store's arena. The zero value is never
// a valid live id (Store.Append starts ids at 1); NodeEmpty uses it to
// mean "no node".
type NodeID int

// NodeEmpty is the sentinel denoting "no node" (e.g. an absent Map default).
const NodeEmpty NodeID = 0

// CaseArm is one key/value pair of a Map node.
type CaseArm struct {
	Key   NodeID
	Value NodeID
}

// Node is a tagged variant. Only the fields relevant to Kind are
// meaningful; this mirrors the "closed set of node shapes" in spec.md §3
// as a single wide struct instead of an interface hierarchy, so that
// Store.Replace can overwrite a node's Kind and payload in place without
// breaking any NodeID referring to it.
type Node struct {
	Kind Kind
	Pos  Position

	// KindString
	Str string

	// KindConcat
	Lhs, Rhs NodeID

	// KindFnInvoke / KindIntrinsic: Name, Args
	Name string
	Args []NodeID

	// KindFn / KindVar: Params, Body. Var rewrites itself into Fn in place.
	Params []string
	Body   NodeID

	// KindDrop: Target (must reference a KindFnInvoke node)
	Target NodeID

	// KindIntrinsic
	IntrinsicKind IntrinsicKind

	// KindCodeify
	Expr NodeID

	// KindBlock: Stmts + trailing Expr (reuses Expr field above)
	Stmts []NodeID

	// KindMap: Test, Cases, Default (NodeEmpty if absent)
	Test    NodeID
	Cases   []CaseArm
	Default NodeID

	// KindPre: mutable Prefixes list + Stmts (reuses Stmts field above)
	Prefixes []NodeID

	// KindDocument: reuses Stmts field above
}

// DefaultNodeCapacityHint sizes the initial arena allocation to roughly
// 10 MiB of node storage (a Node is 256 bytes on 64-bit platforms),
// matching the performance hint in spec.md §4.1
// (tree.reserve in the original C++, run() in eval.cpp). Correctness does
// not depend on this; it only avoids incremental reallocation on large
// documents.
const DefaultNodeCapacityHint = (10 * 1024 * 1024) / 256

// Store is the append-only node arena. The zero Store is not usable;
// use NewStore.
type Store struct {
	nodes []Node
}

// NewStore allocates a Store with capacity reserved for roughly 10MiB of
// node storage.
func NewStore() *Store {
	return &Store{nodes: make([]Node, 1, DefaultNodeCapacityHint)} // index 0 reserved for NodeEmpty
}

// Append allocates a fresh id holding the given Node and returns it.
func (s *Store) Append(n Node) NodeID {
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, n)
	return id
}

// Get returns the variant stored at id. Callers must not mutate Params/
// Args/Stmts/Cases/Prefixes slices in place except through the
// dedicated mutation helpers below, since those slices are shared with
// the arena's backing storage.
func (s *Store) Get(id NodeID) Node {
	return s.nodes[id]
}

// Replace overwrites the variant tag and payload at id, preserving id.
// Used by Var evaluation (rewriting Var -> Fn and a child body -> String).
func (s *Store) Replace(id NodeID, n Node) {
	s.nodes[id] = n
}

// SetName mutates the Name field of the node at id in place. Used by Pre
// to prepend a computed prefix onto a nested Fn's or Var's name.
func (s *Store) SetName(id NodeID, name string) {
	s.nodes[id].Name = name
}

// AppendPrefixes extends the Prefixes field of a Pre node in place,
// preserving its id. Used when a Pre statement nests another Pre.
func (s *Store) AppendPrefixes(id NodeID, more []NodeID) {
	s.nodes[id].Prefixes = append(s.nodes[id].Prefixes, more...)
}

// Len reports how many nodes (including the reserved NodeEmpty slot)
// exist in the arena.
func (s *Store) Len() int { return len(s.nodes) }
