package ast

import (
	"strconv"
	"strings"
)

// Format renders the subtree rooted at id as a Lisp-style S-expression,
// used by the `-s` CLI flag (spec.md §6, REDESIGN/open question (c)).
// Grounded in the teacher's FormatSExpr convention (daios-ai-msg/printer.go)
// of rendering tagged nodes as parenthesized lists headed by a tag symbol.
func Format(s *Store, id NodeID) string {
	var b strings.Builder
	format(s, id, &b)
	return b.String()
}

func format(s *Store, id NodeID, b *strings.Builder) {
	if id == NodeEmpty {
		b.WriteString("()")
		return
	}
	n := s.Get(id)
	switch n.Kind {
	case KindString:
		b.WriteByte('(')
		b.WriteString("str ")
		b.WriteString(strconv.Quote(n.Str))
		b.WriteByte(')')
	case KindConcat:
		b.WriteString("(concat ")
		format(s, n.Lhs, b)
		b.WriteByte(' ')
		format(s, n.Rhs, b)
		b.WriteByte(')')
	case KindFnInvoke:
		b.WriteString("(call ")
		b.WriteString(n.Name)
		for _, a := range n.Args {
			b.WriteByte(' ')
			format(s, a, b)
		}
		b.WriteByte(')')
	case KindFn:
		b.WriteString("(fn ")
		b.WriteString(n.Name)
		b.WriteString(" (")
		b.WriteString(strings.Join(n.Params, " "))
		b.WriteString(") ")
		format(s, n.Body, b)
		b.WriteByte(')')
	case KindVar:
		b.WriteString("(var ")
		b.WriteString(n.Name)
		b.WriteByte(' ')
		format(s, n.Body, b)
		b.WriteByte(')')
	case KindDrop:
		b.WriteString("(drop ")
		format(s, n.Target, b)
		b.WriteByte(')')
	case KindIntrinsic:
		b.WriteByte('(')
		b.WriteString(n.IntrinsicKind.String())
		for _, a := range n.Args {
			b.WriteByte(' ')
			format(s, a, b)
		}
		b.WriteByte(')')
	case KindCodeify:
		b.WriteString("(codeify ")
		format(s, n.Expr, b)
		b.WriteByte(')')
	case KindBlock:
		b.WriteString("(block ")
		for _, st := range n.Stmts {
			format(s, st, b)
			b.WriteByte(' ')
		}
		format(s, n.Expr, b)
		b.WriteByte(')')
	case KindMap:
		b.WriteString("(match ")
		format(s, n.Test, b)
		for _, c := range n.Cases {
			b.WriteString(" (")
			format(s, c.Key, b)
			b.WriteByte(' ')
			format(s, c.Value, b)
			b.WriteByte(')')
		}
		if n.Default != NodeEmpty {
			b.WriteString(" (default ")
			format(s, n.Default, b)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case KindPre:
		b.WriteString("(prefix (")
		for i, p := range n.Prefixes {
			if i > 0 {
				b.WriteByte(' ')
			}
			format(s, p, b)
		}
		b.WriteString(") ")
		for i, st := range n.Stmts {
			if i > 0 {
				b.WriteByte(' ')
			}
			format(s, st, b)
		}
		b.WriteByte(')')
	case KindDocument:
		b.WriteString("(document")
		for _, st := range n.Stmts {
			b.WriteByte(' ')
			format(s, st, b)
		}
		b.WriteByte(')')
	default:
		b.WriteString("(invalid)")
	}
}
