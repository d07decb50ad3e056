package tokenstream

import "testing"

func names(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == KindName {
			out = append(out, t.Text)
		}
	}
	return out
}

func TestTokenizeSkipsBlankAndComments(t *testing.T) {
	lines := []string{
		"",
		"# a comment",
		"def foo():",
		"    x = 1",
	}
	toks := Tokenize(lines)
	got := names(toks)
	want := []string{"def", "foo", "x"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeIndentDedent(t *testing.T) {
	lines := []string{
		"def foo():",
		"    x = 1",
		"y = 2",
	}
	toks := Tokenize(lines)
	var kinds []Kind
	for _, tok := range toks {
		if tok.Kind == KindIndent || tok.Kind == KindDedent {
			kinds = append(kinds, tok.Kind)
		}
	}
	if len(kinds) != 2 || kinds[0] != KindIndent || kinds[1] != KindDedent {
		t.Fatalf("indent/dedent sequence = %v, want [Indent Dedent]", kinds)
	}
}

func TestStreamUngetReplaysToken(t *testing.T) {
	toks := Tokenize([]string{"def foo():"})
	s := New(toks)
	first, ok := s.Next()
	if !ok {
		t.Fatal("expected a token")
	}
	s.Unget(first)
	replayed, ok := s.Next()
	if !ok || replayed != first {
		t.Fatalf("Unget/Next = %+v, %v, want %+v, true", replayed, ok, first)
	}
	second, ok := s.Next()
	if !ok || second.Text != "foo" {
		t.Fatalf("second token = %+v, want Text=foo", second)
	}
}

func TestStreamExhausted(t *testing.T) {
	s := New(nil)
	if _, ok := s.Next(); ok {
		t.Fatal("expected false on empty stream")
	}
}
