// Package interp implements the w++ tree-walking evaluator: a single
// flat function table, dynamically scoped macro parameters, and the
// twelve built-in intrinsics.
//
// Grounded in the teacher's Env design (daios-ai-msg's interpreter.go:284-302,
// a scope struct with Define/Set/Get), adapted here to hold an
// *overload stack* per mangled name rather than one binding per name,
// since w++ functions are overloaded by arity and declarations stack
// rather than replace (spec.md §3 "Function table").
package interp

import (
	"fmt"

	"github.com/violetastcs/wotpp/internal/ast"
)

// Binding is one declared overload: the node id that defines it, so the
// evaluator can read its Params/Body (or, for the rewritten-in-place Var
// case, its post-rewrite Fn shape).
type Binding struct {
	Def NodeID
}

// NodeID aliases ast.NodeID for brevity within this package.
type NodeID = ast.NodeID

// Env is the single function table the whole program shares (spec.md
// §2: "Environment ... Created once per driver invocation"). There is
// no block- or call-scoped nesting; overloading and shadowing happen
// entirely through the per-name stack described in spec.md §3.
type Env struct {
	fns map[string][]Binding
}

// NewEnv creates the one environment a driver invocation evaluates in.
func NewEnv() *Env {
	return &Env{fns: make(map[string][]Binding)}
}

// Mangle produces the overload-stack key for a name/arity pair, matching
// spec.md's "<identifier>/<arity>" function table key.
func Mangle(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// Define pushes a new overload onto the stack for name/arity, shadowing
// (not replacing) whatever was previously on top. Returns true if an
// overload of the same mangled name already existed, so the evaluator
// can emit the funcRedefined/varfuncRedefined warning.
func (e *Env) Define(name string, arity int, b Binding) (shadowed bool) {
	key := Mangle(name, arity)
	_, shadowed = e.localTop(key)
	e.fns[key] = append(e.fns[key], b)
	return shadowed
}

func (e *Env) localTop(key string) (Binding, bool) {
	stack := e.fns[key]
	if len(stack) == 0 {
		return Binding{}, false
	}
	return stack[len(stack)-1], true
}

// Lookup resolves name/arity to the topmost overload on its stack. ok is
// false if no declaration of that arity is currently live (spec.md §4.2:
// "a lookup into an empty stack is treated as not found").
func (e *Env) Lookup(name string, arity int) (Binding, bool) {
	return e.localTop(Mangle(name, arity))
}

// Drop pops the topmost overload for name/arity. Returns false only if no
// mapping exists at all for that mangled name (spec.md §4.2's
// undefined-drop condition). A mapping drained to zero overloads by a
// previous Drop is left present with an empty stack rather than removed
// immediately; the *next* Drop against that now-empty-but-present stack
// has nothing to pop, so it just removes the stale mapping and still
// succeeds. Only a mangled name with no mapping at all fails. This
// mirrors original_source/src/backend/eval/eval.cpp:469-481, where
// popping an already-empty-but-present stack erases the entry with no
// throw, and only a truly-absent key throws.
func (e *Env) Drop(name string, arity int) bool {
	key := Mangle(name, arity)
	stack, ok := e.fns[key]
	if !ok {
		return false
	}
	if len(stack) == 0 {
		delete(e.fns, key)
		return true
	}
	e.fns[key] = stack[:len(stack)-1]
	return true
}
