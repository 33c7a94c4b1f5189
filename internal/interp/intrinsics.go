package interp

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/violetastcs/wotpp/internal/ast"
	"github.com/violetastcs/wotpp/internal/diag"
	"github.com/violetastcs/wotpp/internal/host"
)

// All twelve intrinsics are grounded in spec.md §4.4; each evaluates its
// argument expressions left-to-right before acting, mirroring the
// teacher's builtin-dispatch convention (daios-ai-msg's builtins.go
// RegisterNative table) adapted to w++'s fixed-arity, string-only shape.

func intrinsicAssert(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	a, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	b, err := Eval(ctx, env, n.Args[1], args)
	if err != nil {
		return "", err
	}
	if a != b {
		return "", diag.New(n.Pos, "assert-failed: %q != %q", a, b)
	}
	return "", nil
}

func intrinsicError(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	msg, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	return "", diag.New(n.Pos, "user-error: %s", msg)
}

var escaper = strings.NewReplacer(
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

func intrinsicEscape(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	s, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	return escaper.Replace(s), nil
}

func intrinsicLength(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	s, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(len(s)), nil
}

func intrinsicFind(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	s, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	pat, err := Eval(ctx, env, n.Args[1], args)
	if err != nil {
		return "", err
	}
	idx := strings.Index(s, pat)
	if idx < 0 {
		return "", nil
	}
	return strconv.Itoa(idx), nil
}

// intrinsicSlice implements spec.md §4.4's inclusive-end, independently
// signed slice, preserving the original's exact check order (§9 open
// question (a)): count<=0, then out-of-bounds, then the sign-mismatch
// case. Reordering these changes which message a malformed call
// surfaces, so the order here is load-bearing, not stylistic.
func intrinsicSlice(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	s, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	startText, err := Eval(ctx, env, n.Args[1], args)
	if err != nil {
		return "", err
	}
	endText, err := Eval(ctx, env, n.Args[2], args)
	if err != nil {
		return "", err
	}

	start, serr := strconv.Atoi(startText)
	end, eerr := strconv.Atoi(endText)
	if serr != nil || eerr != nil {
		return "", diag.New(n.Pos, "bad-range: non-numeric slice bound")
	}

	L := len(s)
	begin := start
	if start < 0 {
		begin = L + start
	}
	var count int
	if end < 0 {
		count = (L + end) - begin + 1
	} else {
		count = end - begin + 1
	}

	if count <= 0 {
		return "", diag.New(n.Pos, "bad-range: empty or negative slice count")
	}
	if begin+count > L {
		return "", diag.New(n.Pos, "oob-range: slice exceeds string of length %d", L)
	}
	if start < 0 && end >= 0 {
		return "", diag.New(n.Pos, "bad-range: mixed-sign slice bounds")
	}
	// Not one of the original's three checks: a start far enough negative
	// (e.g. slice("abc", -5, -1)) can pass all three above and still leave
	// begin negative, which the original's substr(begin, count) hits as
	// undefined behavior too (eval.cpp's equivalent check order has no
	// guard for it either). Go has no equivalent UB to fall into here, only
	// a slice-bounds panic, so this is reported as a catchable exception.
	if begin < 0 {
		return "", diag.New(n.Pos, "oob-range: slice starts before the beginning of the string")
	}

	return s[begin : begin+count], nil
}

func intrinsicLog(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	s, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	ctx.Log.Write([]byte(s))
	return "", nil
}

func intrinsicFile(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	p, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	data, rerr := ctx.Host.ReadFile(host.ResolvePath(ctx.Cwd, p))
	if rerr != nil {
		return "", diag.New(n.Pos, "file-read: %s", rerr)
	}
	return string(data), nil
}

func intrinsicSource(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	p, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	newPath := host.ResolvePath(ctx.Cwd, p)
	data, rerr := ctx.Host.ReadFile(newPath)
	if rerr != nil {
		return "", diag.New(n.Pos, "file-not-found: %s", newPath)
	}

	logicalPath, relErr := filepath.Rel(ctx.Base, newPath)
	if relErr != nil {
		logicalPath = newPath
	}
	docID, perr := parseDocument(ctx, logicalPath, string(data))
	if perr != nil {
		return "", perr
	}

	savedCwd := ctx.Cwd
	ctx.Cwd = filepath.Dir(newPath)
	text, eerr := Eval(ctx, env, docID, args)
	ctx.Cwd = savedCwd // restored even on failure
	if eerr != nil {
		return "", eerr
	}
	return text, nil
}

func intrinsicEval(ctx *Context, env *Env, pos ast.Position, exprID NodeID, args Args) (string, error) {
	src, err := Eval(ctx, env, exprID, args)
	if err != nil {
		return "", err
	}
	docID, perr := parseDocument(ctx, "<eval>", src)
	if perr != nil {
		return "", diag.Wrap(pos, "inside-eval", perr)
	}
	text, eerr := Eval(ctx, env, docID, args)
	if eerr != nil {
		return "", diag.Wrap(pos, "inside-eval", eerr)
	}
	return text, nil
}

func intrinsicRun(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	cmd, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	out, code, rerr := ctx.Host.Run(context.Background(), cmd)
	return subprocessResult(n.Pos, out, code, rerr)
}

func intrinsicPipe(ctx *Context, env *Env, n ast.Node, args Args) (string, error) {
	cmd, err := Eval(ctx, env, n.Args[0], args)
	if err != nil {
		return "", err
	}
	data, err := Eval(ctx, env, n.Args[1], args)
	if err != nil {
		return "", err
	}
	out, code, rerr := ctx.Host.Pipe(context.Background(), cmd, data)
	return subprocessResult(n.Pos, out, code, rerr)
}

func subprocessResult(pos ast.Position, out string, code int, rerr error) (string, error) {
	if rerr == host.ErrRunDisabled {
		return "", diag.New(pos, "run-disabled")
	}
	if rerr != nil {
		return "", diag.New(pos, "subproc-nonzero: %s", rerr)
	}
	out = strings.TrimSuffix(out, "\n")
	if code != 0 {
		return "", diag.New(pos, "subproc-nonzero: exit status %d", code)
	}
	return out, nil
}
