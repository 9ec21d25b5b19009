package citations

import (
	"reflect"
	"testing"
)

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := Parse(text); len(got) != 0 {
			t.Fatalf("Parse(%q) = %#v, want empty", text, got)
		}
	}
}

func TestParseNoMarkers(t *testing.T) {
	t.Parallel()
	text := "Revenue grew 12% year over year (see table 3) [4] with strong margins."
	if got := Parse(text); len(got) != 0 {
		t.Fatalf("Parse() = %#v, want empty", got)
	}
}

func TestParseChunkMarker(t *testing.T) {
	t.Parallel()
	refs := Parse("Revenue grew (Chunk=e_12345)")
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	want := SourceReference{ID: 1, Filename: "chunk-e_12345", EntryID: "e_12345", DisplayText: "Chunk e_12345"}
	if refs[0] != want {
		t.Fatalf("Parse() = %+v, want %+v", refs[0], want)
	}
}

func TestParseChunkMarkerVariants(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		ids  []string
	}{
		{"bare equals", "margins compressed Chunk=8116 in Q3", []string{"8116"}},
		{"bare colon", "margins compressed chunk:8116 in Q3", []string{"8116"}},
		{"parens", "margins compressed (Chunk=8116)", []string{"8116"}},
		{"brackets", "margins compressed [Chunks=8116,347907]", []string{"8116", "347907"}},
		{"case insensitive", "margins compressed CHUNKS=8116, 347907", []string{"8116", "347907"}},
		{"alphanumeric", "guidance raised (Chunks=e_1,k_2)", []string{"e_1", "k_2"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			refs := Parse(tc.text)
			if len(refs) != len(tc.ids) {
				t.Fatalf("expected %d references, got %d: %+v", len(tc.ids), len(refs), refs)
			}
			for i, id := range tc.ids {
				if refs[i].EntryID != id {
					t.Fatalf("ref %d: entry id %q, want %q", i, refs[i].EntryID, id)
				}
				if refs[i].ID != i+1 {
					t.Fatalf("ref %d: sequence %d, want %d", i, refs[i].ID, i+1)
				}
				if refs[i].Filename != "chunk-"+id {
					t.Fatalf("ref %d: filename %q, want %q", i, refs[i].Filename, "chunk-"+id)
				}
			}
		})
	}
}

func TestParseSourcePath(t *testing.T) {
	t.Parallel()
	refs := Parse("Per the filing, Source=/data/calls/acme_q3.jsonl, growth slowed.")
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d: %+v", len(refs), refs)
	}
	if refs[0].Filename != "acme_q3.jsonl" {
		t.Fatalf("filename = %q, want acme_q3.jsonl", refs[0].Filename)
	}
	if refs[0].EntryID != "acme_q3_sample_1" {
		t.Fatalf("entry id = %q, want acme_q3_sample_1", refs[0].EntryID)
	}
}

func TestParseParenthesizedFile(t *testing.T) {
	t.Parallel()
	refs := Parse("Management reiterated guidance (acme_q3.pdf) during the call.")
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d: %+v", len(refs), refs)
	}
	if refs[0].Filename != "acme_q3.pdf" || refs[0].EntryID != "acme_q3_sample_1" {
		t.Fatalf("unexpected reference: %+v", refs[0])
	}
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	t.Parallel()
	texts := []string{
		"see (archive.tar) for raw data",
		"see Source=/tmp/dump.bin for raw data",
	}
	for _, text := range texts {
		if refs := Parse(text); len(refs) != 0 {
			t.Fatalf("Parse(%q) = %+v, want empty", text, refs)
		}
	}
}

func TestParseMalformedMarkers(t *testing.T) {
	t.Parallel()
	texts := []string{
		"dangling Chunk= with nothing after",
		"dangling Chunks=, separator only",
		"Source= , empty path",
	}
	for _, text := range texts {
		if refs := Parse(text); len(refs) != 0 {
			t.Fatalf("Parse(%q) = %+v, want empty", text, refs)
		}
	}
}

func TestParseFirstSeenNumbering(t *testing.T) {
	t.Parallel()
	text := "Margins fell (Chunks=8116,347907) while churn rose Chunk=8116 again."
	refs := Parse(text)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %+v", len(refs), refs)
	}
	if refs[0].EntryID != "8116" || refs[0].ID != 1 {
		t.Fatalf("first reference = %+v, want 8116 with sequence 1", refs[0])
	}
	if refs[1].EntryID != "347907" || refs[1].ID != 2 {
		t.Fatalf("second reference = %+v, want 347907 with sequence 2", refs[1])
	}
}

func TestParseMixedSyntaxTextOrder(t *testing.T) {
	t.Parallel()
	text := "Intro (interview_k9.jsonl) then Chunk=e_44 and finally Source=calls/beta_q1.pdf\nend."
	refs := Parse(text)
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d: %+v", len(refs), refs)
	}
	wantOrder := []string{"interview_k9.jsonl", "chunk-e_44", "beta_q1.pdf"}
	for i, fn := range wantOrder {
		if refs[i].Filename != fn {
			t.Fatalf("ref %d filename = %q, want %q", i, refs[i].Filename, fn)
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()
	text := "A (Chunks=1,2) B Source=x/y.jsonl, C (z.pdf) D Chunk=1"
	first := Parse(text)
	for i := 0; i < 5; i++ {
		if got := Parse(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("Parse not idempotent: run %d = %+v, first = %+v", i, got, first)
		}
	}
}
