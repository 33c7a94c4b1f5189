package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/violetastcs/wotpp/internal/ast"
)

func parseOK(t *testing.T, src string) (*ast.Store, ast.NodeID) {
	t.Helper()
	store := ast.NewStore()
	id, err := Parse(store, "<test>", src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return store, id
}

func TestParseGreetScenario(t *testing.T) {
	store, id := parseOK(t, "let greet(x) \"hello \" .. x\ngreet(\"world\")")
	n := store.Get(id)
	if n.Kind != ast.KindDocument || len(n.Stmts) != 2 {
		t.Fatalf("expected a 2-statement document, got %+v", n)
	}
	fn := store.Get(n.Stmts[0])
	if fn.Kind != ast.KindFn || fn.Name != "greet" || len(fn.Params) != 1 || fn.Params[0] != "x" {
		t.Fatalf("expected Fn greet(x), got %+v", fn)
	}
	call := store.Get(n.Stmts[1])
	if call.Kind != ast.KindFnInvoke || call.Name != "greet" || len(call.Args) != 1 {
		t.Fatalf("expected FnInvoke greet(...), got %+v", call)
	}
}

func TestParseVarVsFn(t *testing.T) {
	store, id := parseOK(t, `let f "a"`)
	n := store.Get(id)
	v := store.Get(n.Stmts[0])
	if v.Kind != ast.KindVar || v.Name != "f" {
		t.Fatalf("paren-less let should parse as Var, got %+v", v)
	}

	store2, id2 := parseOK(t, `let f() "a"`)
	n2 := store2.Get(id2)
	fn := store2.Get(n2.Stmts[0])
	if fn.Kind != ast.KindFn || fn.Name != "f" || len(fn.Params) != 0 {
		t.Fatalf("paren'd let should parse as zero-arity Fn, got %+v", fn)
	}
}

func TestParseDropStmt(t *testing.T) {
	store, id := parseOK(t, `drop f()`)
	n := store.Get(id)
	d := store.Get(n.Stmts[0])
	if d.Kind != ast.KindDrop {
		t.Fatalf("expected Drop, got %+v", d)
	}
	target := store.Get(d.Target)
	if target.Kind != ast.KindFnInvoke || target.Name != "f" {
		t.Fatalf("expected drop target FnInvoke f(), got %+v", target)
	}
}

func TestParseBlockDiscardsStatements(t *testing.T) {
	store, id := parseOK(t, `f .. { drop f(); f }`)
	n := store.Get(id)
	concat := store.Get(n.Stmts[0])
	if concat.Kind != ast.KindConcat {
		t.Fatalf("expected Concat, got %+v", concat)
	}
	block := store.Get(concat.Rhs)
	if block.Kind != ast.KindBlock || len(block.Stmts) != 1 {
		t.Fatalf("expected a 1-statement Block, got %+v", block)
	}
	trailing := store.Get(block.Expr)
	if trailing.Kind != ast.KindFnInvoke || trailing.Name != "f" {
		t.Fatalf("expected block's trailing expr to be f, got %+v", trailing)
	}
}

func TestParseEvalIntrinsic(t *testing.T) {
	store, id := parseOK(t, `eval("\"x\" .. \"y\"")`)
	n := store.Get(id)
	call := store.Get(n.Stmts[0])
	if call.Kind != ast.KindIntrinsic || call.IntrinsicKind != ast.IntrinsicEval {
		t.Fatalf("expected eval intrinsic, got %+v", call)
	}
}

func TestParseSliceIntrinsic(t *testing.T) {
	store, id := parseOK(t, `slice("abcdef", 1, -2)`)
	n := store.Get(id)
	call := store.Get(n.Stmts[0])
	if call.Kind != ast.KindIntrinsic || call.IntrinsicKind != ast.IntrinsicSlice || len(call.Args) != 3 {
		t.Fatalf("expected 3-arg slice intrinsic, got %+v", call)
	}
}

func TestParseMatchWithDefault(t *testing.T) {
	store, id := parseOK(t, `match "b" { "a" -> "1", "b" -> "2", * -> "3" }`)
	n := store.Get(id)
	m := store.Get(n.Stmts[0])
	if m.Kind != ast.KindMap || len(m.Cases) != 2 || m.Default == ast.NodeEmpty {
		t.Fatalf("expected Map with 2 cases and a default, got %+v", m)
	}
}

func TestParsePrefixBlock(t *testing.T) {
	store, id := parseOK(t, "prefix \"ns_\" { let f \"A\" }\nns_f")
	n := store.Get(id)
	if len(n.Stmts) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(n.Stmts))
	}
	pre := store.Get(n.Stmts[0])
	if pre.Kind != ast.KindPre || len(pre.Prefixes) != 1 || len(pre.Stmts) != 1 {
		t.Fatalf("expected Pre with 1 prefix and 1 stmt, got %+v", pre)
	}
}

func TestParseCodestrSugar(t *testing.T) {
	store, id := parseOK(t, "`\"a\" .. \"b\"`")
	n := store.Get(id)
	codeify := store.Get(n.Stmts[0])
	if codeify.Kind != ast.KindCodeify {
		t.Fatalf("expected Codeify from a backtick literal, got %+v", codeify)
	}
	inner := store.Get(codeify.Expr)
	if inner.Kind != ast.KindString || inner.Str != `"a" .. "b"` {
		t.Fatalf("expected Codeify wrapping the raw backtick text, got %+v", inner)
	}
}

func TestParseIncompleteInputIsDetected(t *testing.T) {
	store := ast.NewStore()
	_, err := Parse(store, "<test>", `let f(x`)
	if err == nil {
		t.Fatalf("expected an error for unclosed parameter list")
	}
	if !IsIncomplete(err) {
		t.Fatalf("expected IsIncomplete(err) to hold for input truncated mid-construct, got %v", err)
	}
}

func TestParseTrailingGarbageIsRejected(t *testing.T) {
	store := ast.NewStore()
	_, err := Parse(store, "<test>", `"a" )`)
	if err == nil {
		t.Fatalf("expected a hard parse error for unexpected trailing input")
	}
	if IsIncomplete(err) {
		t.Fatalf("trailing garbage should not be classified as incomplete input")
	}
}

// TestParseIsDeterministic parses the same source into two independent
// stores and diffs every allocated node with go-cmp, the way
// eaburns-pea_old's check_test.go diffs two AST trees node-by-node
// rather than comparing formatted strings. Node's fields are all
// exported NodeIDs/slices/scalars, so no Exporter/IgnoreUnexported
// option is needed.
func TestParseIsDeterministic(t *testing.T) {
	const src = "let greet(x) \"hello \" .. x\ngreet(\"world\")\nprefix \"ns_\" { let f \"A\" }\nns_f"

	store1 := ast.NewStore()
	id1, err := Parse(store1, "<a>", src)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	store2 := ast.NewStore()
	id2, err := Parse(store2, "<a>", src)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	if id1 != id2 || store1.Len() != store2.Len() {
		t.Fatalf("parses allocated different shapes: (%d,%d) vs (%d,%d)", id1, store1.Len(), id2, store2.Len())
	}
	for id := ast.NodeID(1); id < ast.NodeID(store1.Len()); id++ {
		if diff := cmp.Diff(store1.Get(id), store2.Get(id)); diff != "" {
			t.Fatalf("node %d differs between identical parses (-first +second):\n%s", id, diff)
		}
	}
}

func TestParseEndToEndScenariosFormat(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string // substring expected to appear in the S-expression dump
	}{
		{"greet", "let greet(x) \"hello \" .. x\ngreet(\"world\")", "(fn greet (x)"},
		{"callback", "let library_callback \"library: \" .. user_callback(\"foo\")\nlet user_callback(x) \"user: \" .. x\nlibrary_callback", "(var library_callback"},
		{"stacking", `let f "a"` + "\n" + `let f "b"` + "\n" + `f .. { drop f(); f }`, "(drop"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, id := parseOK(t, tc.src)
			got := ast.Format(store, id)
			if !strings.Contains(got, tc.want) {
				t.Fatalf("S-expression dump missing %q:\n%s", tc.want, got)
			}
		})
	}
}
