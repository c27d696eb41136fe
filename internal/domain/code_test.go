package domain

import "testing"

func TestSameID_CaseInsensitiveExact(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"FC2-3189680", "fc2-3189680", true},
		{" abp-123 ", "ABP-123", true},
		{"ABP-123", "ABP-1234", false},
		{"ABP-123", "ABP123", false},
		{"", "", false},
	}
	for _, c := range cases {
		if got := SameID(c.a, c.b); got != c.want {
			t.Fatalf("SameID(%q, %q)=%v，期望 %v", c.a, c.b, got, c.want)
		}
	}
}

func TestMovieRecord_CensorLabel(t *testing.T) {
	yes, no := true, false
	if got := (&MovieRecord{}).CensorLabel(); got != "unknown" {
		t.Fatalf("期望 unknown，实际 %q", got)
	}
	if got := (&MovieRecord{Uncensored: &yes}).CensorLabel(); got != "uncensored" {
		t.Fatalf("期望 uncensored，实际 %q", got)
	}
	if got := (&MovieRecord{Uncensored: &no}).CensorLabel(); got != "censored" {
		t.Fatalf("期望 censored，实际 %q", got)
	}
	if got := NewMovieRecord("  ABP-123 ").DVDID; got != "ABP-123" {
		t.Fatalf("期望 DVDID=ABP-123，实际 %q", got)
	}
}
