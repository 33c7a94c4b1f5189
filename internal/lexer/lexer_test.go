package lexer

import "testing"

func typesOf(t *testing.T, src string) []TokenType {
	t.Helper()
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q) error: %v", src, err)
	}
	out := make([]TokenType, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Type)
	}
	return out
}

func sameTypes(t *testing.T, got, want []TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v (full: got %v want %v)", i, got[i], want[i], got, want)
		}
	}
}

func TestTokenizeGreet(t *testing.T) {
	got := typesOf(t, `let greet(x) "hello " .. x`)
	want := []TokenType{KwLet, IDENT, LPAREN, IDENT, RPAREN, STRING, DOTDOT, IDENT, EOF}
	sameTypes(t, got, want)
}

func TestTokenizeIntrinsicKeyword(t *testing.T) {
	got := typesOf(t, `slice("abc", 0, -1)`)
	want := []TokenType{KwSlice, LPAREN, STRING, COMMA, NUMBER, COMMA, NUMBER, RPAREN, EOF}
	sameTypes(t, got, want)
	if !IsIntrinsicKeyword(KwSlice) {
		t.Fatalf("KwSlice should be an intrinsic keyword")
	}
	if IsIntrinsicKeyword(KwLet) {
		t.Fatalf("KwLet must not be an intrinsic keyword")
	}
}

func TestTokenizeNegativeNumber(t *testing.T) {
	toks, err := Tokenize(`slice(s, -1, -1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var nums []string
	for _, tok := range toks {
		if tok.Type == NUMBER {
			nums = append(nums, tok.Lexeme)
		}
	}
	if len(nums) != 2 || nums[0] != "-1" || nums[1] != "-1" {
		t.Fatalf("expected two -1 NUMBER tokens, got %v", nums)
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\nb\"c"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Type != STRING || toks[0].Value != "a\nb\"c" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestTokenizeBacktickCodestr(t *testing.T) {
	toks, err := Tokenize("`\"x\" .. \"y\"`")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Type != CODESTR {
		t.Fatalf("expected CODESTR, got %v", toks[0].Type)
	}
	if toks[0].Value != `"x" .. "y"` {
		t.Fatalf("got %q", toks[0].Value)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize(`"abc`)
	if err == nil {
		t.Fatalf("expected an error for an unterminated string")
	}
}

func TestTokenizeComment(t *testing.T) {
	got := typesOf(t, "// a comment\nlet f \"x\"")
	want := []TokenType{KwLet, IDENT, STRING, EOF}
	sameTypes(t, got, want)
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	_, err := Tokenize(`@`)
	if err == nil {
		t.Fatalf("expected an error for an illegal character")
	}
}

func TestTokenizeMatchArrow(t *testing.T) {
	got := typesOf(t, `match "b" { "a" -> "1", * -> "3" }`)
	want := []TokenType{
		KwMatch, STRING, LBRACE,
		STRING, ARROW, STRING, COMMA,
		STAR, ARROW, STRING,
		RBRACE, EOF,
	}
	sameTypes(t, got, want)
}
