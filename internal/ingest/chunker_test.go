package ingest

import (
	"strings"
	"testing"

	"github.com/fintrace/fintrace/models"
)

func TestSplitTextEmpty(t *testing.T) {
	t.Parallel()
	if got := SplitText("   ", 100); got != nil {
		t.Fatalf("SplitText(blank) = %v, want nil", got)
	}
}

func TestSplitTextShortInputIsSingleChunk(t *testing.T) {
	t.Parallel()
	got := SplitText("Revenue grew.", 100)
	if len(got) != 1 || got[0] != "Revenue grew." {
		t.Fatalf("SplitText = %v", got)
	}
}

func TestSplitTextCutsOnSentences(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("Margins expanded in the quarter. ", 20)
	chunks := SplitText(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk %d exceeds max: %d chars", i, len(c))
		}
		if !strings.HasSuffix(c, ".") {
			t.Fatalf("chunk %d does not end on a sentence: %q", i, c)
		}
	}
	// nothing lost
	joined := strings.Join(chunks, " ")
	if strings.ReplaceAll(joined, " ", "") != strings.ReplaceAll(text, " ", "") {
		t.Fatal("split dropped or duplicated content")
	}
}

func TestBuildChunksAssignsPrefixedIDs(t *testing.T) {
	t.Parallel()
	art := Article{Title: "Q3 Filing", Text: "Revenue grew. Margins expanded."}
	recs := BuildChunks(models.ChunkTypeExpertInterview, "Acme", "Software", art, 0)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if !strings.HasPrefix(rec.ID, models.PrefixExpertInterview) {
		t.Fatalf("id %q missing expert prefix", rec.ID)
	}
	if _, err := models.ChunkTypeForID(rec.ID); err != nil {
		t.Fatalf("generated id fails validation: %v", err)
	}
	if rec.Title != "Q3 Filing" || rec.CompanyName != "Acme" {
		t.Fatalf("metadata not carried: %+v", rec)
	}
}

func TestExtractArticle(t *testing.T) {
	t.Parallel()
	html := `<html><head><title>Acme 10-Q</title></head><body>
<nav>Home | Filings | Contact</nav>
<article><h1>Acme 10-Q</h1>
<p>Revenue for the quarter was $120 million, an increase of 12% year over year, driven primarily by datacenter demand and improved attach rates across the installed base.</p>
<p>Gross margin expanded to 64.2% compared with 61.8% in the prior-year period, reflecting product mix and supply-chain normalization across the portfolio.</p>
</article></body></html>`

	art, err := ExtractArticle(html, "https://filings.example.com/acme/10q")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if !strings.Contains(art.Text, "Revenue for the quarter") {
		t.Fatalf("body text missing: %q", art.Text)
	}
	if strings.Contains(art.Text, "Home | Filings") {
		t.Fatalf("navigation boilerplate leaked into text: %q", art.Text)
	}
}
