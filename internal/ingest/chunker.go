package ingest

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fintrace/fintrace/models"
)

// DefaultChunkChars is the target chunk size for ingested filings.
const DefaultChunkChars = 2000

// SplitText breaks text into chunks of roughly maxChars, cutting on
// sentence boundaries where possible so excerpts stay readable.
func SplitText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxChars {
		cut := maxChars
		// prefer the last sentence end inside the window
		if i := strings.LastIndexAny(text[:maxChars], ".!?"); i > maxChars/2 {
			cut = i + 1
		} else if i := strings.LastIndex(text[:maxChars], " "); i > 0 {
			cut = i
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// BuildChunks turns an extracted article into persistable chunk records.
// The generated IDs carry the type prefix the rest of the system keys on.
func BuildChunks(typ models.ChunkType, company, industry string, art Article, maxChars int) []models.ChunkRecord {
	parts := SplitText(art.Text, maxChars)
	out := make([]models.ChunkRecord, 0, len(parts))
	for _, part := range parts {
		out = append(out, models.ChunkRecord{
			ID:          newChunkID(typ),
			Type:        typ,
			CompanyName: company,
			Industry:    industry,
			Title:       art.Title,
			Text:        part,
		})
	}
	return out
}

func newChunkID(typ models.ChunkType) string {
	prefix := models.PrefixEarningsCall
	if typ == models.ChunkTypeExpertInterview {
		prefix = models.PrefixExpertInterview
	}
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
