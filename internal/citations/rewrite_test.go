package citations

import (
	"strings"
	"testing"
)

func TestRewriteChunkScenario(t *testing.T) {
	t.Parallel()
	text := "Revenue grew (Chunk=e_12345)"
	refs := Parse(text)
	got := Rewrite(text, refs)
	if got != "Revenue grew [1]" {
		t.Fatalf("Rewrite() = %q, want %q", got, "Revenue grew [1]")
	}
}

func TestRewriteRemovesAllMarkers(t *testing.T) {
	t.Parallel()
	text := "Intro (Chunks=8116,347907) middle Source=calls/acme_q3.jsonl, then (beta.pdf) and Chunk=8116 end."
	refs := Parse(text)
	got := Rewrite(text, refs)

	for _, marker := range []string{"Chunk=", "Chunks=", "Source=", ".jsonl", ".pdf"} {
		if strings.Contains(got, marker) {
			t.Fatalf("Rewrite() left marker %q in %q", marker, got)
		}
	}
	if !strings.Contains(got, "[1][2]") {
		t.Fatalf("multi-ID marker not collapsed to [1][2]: %q", got)
	}
	if !strings.HasSuffix(got, "[1] end.") {
		t.Fatalf("repeat mention of 8116 should rewrite to [1]: %q", got)
	}
}

func TestRewritePreservesSurroundingText(t *testing.T) {
	t.Parallel()
	text := "Before Chunk=7 after"
	got := Rewrite(text, Parse(text))
	if got != "Before [1] after" {
		t.Fatalf("Rewrite() = %q, want %q", got, "Before [1] after")
	}
}

func TestRewriteLeavesUnrelatedNumeralsAlone(t *testing.T) {
	t.Parallel()
	text := "As shown in [3], EPS beat consensus (Chunk=9)."
	got := Rewrite(text, Parse(text))
	if got != "As shown in [3], EPS beat consensus [1]." {
		t.Fatalf("Rewrite() = %q", got)
	}
}

func TestRewriteNoRefsIsIdentity(t *testing.T) {
	t.Parallel()
	text := "Plain prose, nothing cited."
	if got := Rewrite(text, nil); got != text {
		t.Fatalf("Rewrite() = %q, want input unchanged", got)
	}
}

func TestRewriteFileMarkers(t *testing.T) {
	t.Parallel()
	text := "Guidance was reiterated (acme_q3.pdf), see Source=data/acme_q4.jsonl\nfor details."
	refs := Parse(text)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %+v", refs)
	}
	got := Rewrite(text, refs)
	want := "Guidance was reiterated [1], see [2]\nfor details."
	if got != want {
		t.Fatalf("Rewrite() = %q, want %q", got, want)
	}
}
