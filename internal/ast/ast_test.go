package ast

import "testing"

func TestStoreAppendAndGet(t *testing.T) {
	s := NewStore()
	id := s.Append(Node{Kind: KindString, Str: "hi"})
	if id == NodeEmpty {
		t.Fatalf("Append must not return NodeEmpty for a live node")
	}
	got := s.Get(id)
	if got.Kind != KindString || got.Str != "hi" {
		t.Fatalf("got %+v", got)
	}
}

func TestStoreReplacePreservesID(t *testing.T) {
	s := NewStore()
	id := s.Append(Node{Kind: KindVar, Name: "f"})
	s.Replace(id, Node{Kind: KindFn, Name: "f"})
	got := s.Get(id)
	if got.Kind != KindFn || got.Name != "f" {
		t.Fatalf("replace did not take effect: %+v", got)
	}
}

func TestStoreSetNameMutatesInPlace(t *testing.T) {
	s := NewStore()
	id := s.Append(Node{Kind: KindFn, Name: "f"})
	s.SetName(id, "ns_f")
	if s.Get(id).Name != "ns_f" {
		t.Fatalf("SetName did not mutate in place")
	}
}

func TestStoreAppendPrefixesAccumulates(t *testing.T) {
	s := NewStore()
	p1 := s.Append(Node{Kind: KindString, Str: "a"})
	p2 := s.Append(Node{Kind: KindString, Str: "b"})
	id := s.Append(Node{Kind: KindPre, Prefixes: []NodeID{p1}})
	s.AppendPrefixes(id, []NodeID{p2})
	if got := s.Get(id).Prefixes; len(got) != 2 || got[0] != p1 || got[1] != p2 {
		t.Fatalf("got %v", got)
	}
}

func TestIntrinsicArity(t *testing.T) {
	cases := map[IntrinsicKind]int{
		IntrinsicSlice:  3,
		IntrinsicFind:   2,
		IntrinsicAssert: 2,
		IntrinsicPipe:   2,
		IntrinsicError:  1,
		IntrinsicLog:    1,
	}
	for k, want := range cases {
		if got := k.Arity(); got != want {
			t.Fatalf("%s.Arity() = %d, want %d", k, got, want)
		}
	}
}

func TestFormatRendersNestedConcat(t *testing.T) {
	s := NewStore()
	a := s.Append(Node{Kind: KindString, Str: "a"})
	b := s.Append(Node{Kind: KindString, Str: "b"})
	c := s.Append(Node{Kind: KindConcat, Lhs: a, Rhs: b})
	got := Format(s, c)
	want := `(concat (str "a") (str "b"))`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatEmptyNodeIsNil(t *testing.T) {
	s := NewStore()
	if got := Format(s, NodeEmpty); got != "()" {
		t.Fatalf("got %q", got)
	}
}
