package interp

import (
	"io"
	"strings"

	"github.com/violetastcs/wotpp/internal/ast"
	"github.com/violetastcs/wotpp/internal/diag"
	"github.com/violetastcs/wotpp/internal/host"
	"github.com/violetastcs/wotpp/internal/parser"
)

// Args is the bound-argument map: parameter name to its evaluated text,
// captured fresh per call frame (spec.md §3 "Bound-argument map").
type Args map[string]string

// Context bundles the dependencies the evaluator needs beyond the
// environment itself: the shared AST store, the base/cwd directories
// used by file/source, the warning bitset, and the host shim for
// subprocess and filesystem access.
//
// spec.md §9 notes that modeling cwd "more hygienically" as an
// environment-local field (rather than mutating the real process
// working directory) is an acceptable target-language adaptation; we
// take that option so concurrent tests can each hold an independent
// Context without racing on os.Chdir.
type Context struct {
	Store *ast.Store
	Base  string
	Cwd   string
	Warn  *diag.Set
	Host  host.Host
	Log   io.Writer
}

// Eval recursively evaluates the node id, returning its produced text or
// the first error encountered: a *diag.Exception, or the *parser.Error of
// a file read by `source` that fails to parse. args is nil at the top level
// (Document evaluation) and non-nil inside a call frame.
func Eval(ctx *Context, env *Env, id NodeID, args Args) (string, error) {
	n := ctx.Store.Get(id)
	switch n.Kind {
	case ast.KindString:
		return n.Str, nil

	case ast.KindConcat:
		lhs, err := Eval(ctx, env, n.Lhs, args)
		if err != nil {
			return "", err
		}
		rhs, err := Eval(ctx, env, n.Rhs, args)
		if err != nil {
			return "", err
		}
		return lhs + rhs, nil

	case ast.KindBlock:
		for _, stmt := range n.Stmts {
			if _, err := Eval(ctx, env, stmt, args); err != nil {
				return "", err
			}
		}
		return Eval(ctx, env, n.Expr, args)

	case ast.KindDocument:
		var sb strings.Builder
		for _, stmt := range n.Stmts {
			text, err := Eval(ctx, env, stmt, args)
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		}
		return sb.String(), nil

	case ast.KindFn:
		return "", evalFn(ctx, env, id, n)

	case ast.KindVar:
		return "", evalVar(ctx, env, id, n, args)

	case ast.KindDrop:
		return "", evalDrop(ctx, env, id, n)

	case ast.KindCodeify:
		return intrinsicEval(ctx, env, n.Pos, n.Expr, args)

	case ast.KindMap:
		return evalMap(ctx, env, n, args)

	case ast.KindPre:
		return evalPre(ctx, env, n, args)

	case ast.KindIntrinsic:
		return evalIntrinsic(ctx, env, n, args)

	case ast.KindFnInvoke:
		return evalFnInvoke(ctx, env, n, args)

	default:
		return "", diag.New(n.Pos, "internal error: unhandled node kind %s", n.Kind)
	}
}

func evalFn(ctx *Context, env *Env, id NodeID, n ast.Node) error {
	shadowed := env.Define(n.Name, len(n.Params), Binding{Def: id})
	if shadowed && ctx.Warn.Enabled(diag.FuncRedefined) {
		diag.Warn(ctx.Log, n.Pos, "redefinition of "+Mangle(n.Name, len(n.Params)), "")
	}
	return nil
}

func evalVar(ctx *Context, env *Env, id NodeID, n ast.Node, args Args) error {
	text, err := Eval(ctx, env, n.Body, args)
	if err != nil {
		return err
	}
	// Replace-in-place: body becomes a cached String, then the Var node
	// itself becomes a zero-param Fn referencing it (spec.md §4.2
	// defineVar).
	ctx.Store.Replace(n.Body, ast.Node{Kind: ast.KindString, Pos: n.Pos, Str: text})
	ctx.Store.Replace(id, ast.Node{Kind: ast.KindFn, Pos: n.Pos, Name: n.Name, Params: nil, Body: n.Body})

	shadowed := env.Define(n.Name, 0, Binding{Def: id})
	if shadowed && ctx.Warn.Enabled(diag.VarfuncRedefined) {
		diag.Warn(ctx.Log, n.Pos, "redefinition of "+Mangle(n.Name, 0), "")
	}
	return nil
}

func evalDrop(ctx *Context, env *Env, id NodeID, n ast.Node) error {
	target := ctx.Store.Get(n.Target)
	if !env.Drop(target.Name, len(target.Args)) {
		return diag.New(n.Pos, "undefined-drop: %s", Mangle(target.Name, len(target.Args)))
	}
	return nil
}

func evalMap(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	test, err := Eval(ctx, env, n.Test, args)
	if err != nil {
		return "", err
	}
	for _, c := range n.Cases {
		key, err := Eval(ctx, env, c.Key, args)
		if err != nil {
			return "", err
		}
		if key == test {
			return Eval(ctx, env, c.Value, args)
		}
	}
	if n.Default != ast.NodeEmpty {
		return Eval(ctx, env, n.Default, args)
	}
	return "", diag.New(n.Pos, "no-match: %q", test)
}

func evalPre(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	var sb strings.Builder
	for _, stmtID := range n.Stmts {
		stmt := ctx.Store.Get(stmtID)
		switch stmt.Kind {
		case ast.KindFn, ast.KindVar:
			prefix, err := composePrefix(ctx, env, n.Prefixes, args)
			if err != nil {
				return "", err
			}
			ctx.Store.SetName(stmtID, prefix+stmt.Name)
		case ast.KindPre:
			ctx.Store.AppendPrefixes(stmtID, n.Prefixes)
		}
		text, err := Eval(ctx, env, stmtID, args)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// composePrefix evaluates prefix expressions in REVERSE order and
// concatenates, per spec.md §4.3's Pre rule.
func composePrefix(ctx *Context, env *Env, prefixes []NodeID, args Args) (string, error) {
	var sb strings.Builder
	for i := len(prefixes) - 1; i >= 0; i-- {
		text, err := Eval(ctx, env, prefixes[i], args)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func evalFnInvoke(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	if args != nil {
		if bound, ok := args[n.Name]; ok {
			if len(n.Args) != 0 {
				return "", diag.New(n.Pos, "arg-as-fn: %s", n.Name)
			}
			if ctx.Warn.Enabled(diag.ParamShadowFunc) {
				if _, ok := env.Lookup(n.Name, 0); ok {
					diag.Warn(ctx.Log, n.Pos, "parameter "+n.Name+" shadows a zero-arity function", "")
				}
			}
			return bound, nil
		}
	}

	binding, ok := env.Lookup(n.Name, len(n.Args))
	if !ok {
		return "", diag.New(n.Pos, "undefined-fn: %s", Mangle(n.Name, len(n.Args)))
	}
	fn := ctx.Store.Get(binding.Def)

	next := make(Args, len(args)+len(fn.Params))
	for k, v := range args {
		next[k] = v
	}
	for i, param := range fn.Params {
		text, err := Eval(ctx, env, n.Args[i], args)
		if err != nil {
			return "", err
		}
		if _, shadowed := next[param]; shadowed && ctx.Warn.Enabled(diag.ParamShadowParam) {
			diag.Warn(ctx.Log, n.Pos, "parameter "+param+" shadows an outer binding of the same name", "")
		}
		next[param] = text
	}

	return Eval(ctx, env, fn.Body, next)
}

func evalIntrinsic(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	if len(n.Args) != n.IntrinsicKind.Arity() {
		return "", diag.New(n.Pos, "bad-arity: %s expects %d argument(s), got %d", n.IntrinsicKind, n.IntrinsicKind.Arity(), len(n.Args))
	}
	switch n.IntrinsicKind {
	case ast.IntrinsicAssert:
		return intrinsicAssert(ctx, env, n, args)
	case ast.IntrinsicError:
		return intrinsicError(ctx, env, n, args)
	case ast.IntrinsicFile:
		return intrinsicFile(ctx, env, n, args)
	case ast.IntrinsicSource:
		return intrinsicSource(ctx, env, n, args)
	case ast.IntrinsicEscape:
		return intrinsicEscape(ctx, env, n, args)
	case ast.IntrinsicEval:
		return intrinsicEval(ctx, env, n.Pos, n.Args[0], args)
	case ast.IntrinsicRun:
		return intrinsicRun(ctx, env, n, args)
	case ast.IntrinsicPipe:
		return intrinsicPipe(ctx, env, n, args)
	case ast.IntrinsicSlice:
		return intrinsicSlice(ctx, env, n, args)
	case ast.IntrinsicFind:
		return intrinsicFind(ctx, env, n, args)
	case ast.IntrinsicLength:
		return intrinsicLength(ctx, env, n, args)
	case ast.IntrinsicLog:
		return intrinsicLog(ctx, env, n, args)
	default:
		return "", diag.New(n.Pos, "internal error: unhandled intrinsic %s", n.IntrinsicKind)
	}
}

// parseDocument tokenizes+parses src as a fresh Document appended to
// ctx.Store under logical path, used by the `eval` and `source`
// intrinsics (spec.md §4.4) to re-enter the parser.
func parseDocument(ctx *Context, path, src string) (NodeID, error) {
	return parser.Parse(ctx.Store, path, src)
}
