package matching

import (
	"math"
	"testing"
)

func set(tokens ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]struct{}
		want float64
	}{
		{"empty left", set(), set("alice"), 0},
		{"empty right", set("alice"), set(), 0},
		{"identical", set("alice", "bob"), set("bob", "alice"), 100},
		{"subset", set("alice", "bob"), set("alice", "bob", "carol"), 100},
		{"superset", set("alice", "bob", "carol", "dave"), set("carol"), 100},
		{"disjoint similar tokens", set("abc"), set("abd"), 100 - 100*2.0/6.0},
		{"partial overlap", set("alice", "bob", "xx"), set("alice", "bob", "yy"), 100 - 100*3.0/21.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSetRatio(tt.a, tt.b)
			if !approx(got, tt.want) {
				t.Fatalf("TokenSetRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenSetRatioIsSymmetric(t *testing.T) {
	a := set("alice", "bob", "xx", "carol")
	b := set("alice", "bob", "yyyy", "zed")
	if !approx(TokenSetRatio(a, b), TokenSetRatio(b, a)) {
		t.Fatalf("expected symmetric score, got %v and %v", TokenSetRatio(a, b), TokenSetRatio(b, a))
	}
}

func TestTokenSetRatioIgnoresMapOrder(t *testing.T) {
	a := set("quinn", "rex", "sam", "tina", "uma", "vic")
	b := set("quinn", "rexx", "sam", "tyna", "uma", "vick")
	first := TokenSetRatio(a, b)
	for range 50 {
		if got := TokenSetRatio(a, b); got != first {
			t.Fatalf("score changed between calls: %v vs %v", first, got)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("", ""); got != 100 {
		t.Fatalf("expected two empty strings to score 100, got %v", got)
	}
	if got := Ratio("abc", ""); got != 0 {
		t.Fatalf("expected 0 against empty, got %v", got)
	}
	if got := Ratio("kitten", "sitting"); !approx(got, 100*2*4.0/13.0) {
		t.Fatalf("unexpected kitten/sitting ratio %v", got)
	}
	if got := Ratio("ÄÖÜ", "ÄÖU"); !approx(got, 100*4.0/6.0) {
		t.Fatalf("expected rune-based comparison, got %v", got)
	}
}
