package searchidx

import (
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/fintrace/fintrace/models"
)

// Hit is a single search result with its relevance score.
type Hit struct {
	Chunk models.ChunkRecord `json:"chunk"`
	Score float64            `json:"score"`
}

// indexedChunk is the bleve document shape; only searchable text fields
// are indexed, the full record lives in meta.
type indexedChunk struct {
	ChunkType   string `json:"chunk_type"`
	CompanyName string `json:"company_name"`
	Title       string `json:"title"`
	Industry    string `json:"industry"`
	Body        string `json:"body"`
}

// Index is an in-memory full-text index over chunk bodies, rebuilt on boot
// and updated on every chunk upsert.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
	meta  map[string]models.ChunkRecord
}

// NewMemOnly builds an empty in-memory index.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{bleve: idx, meta: make(map[string]models.ChunkRecord)}, nil
}

// Add indexes or reindexes one chunk.
func (x *Index) Add(rec models.ChunkRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.meta[rec.ID] = rec
	return x.bleve.Index(rec.ID, indexedChunk{
		ChunkType:   string(rec.Type),
		CompanyName: rec.CompanyName,
		Title:       rec.Title,
		Industry:    rec.Industry,
		Body:        rec.Text,
	})
}

// Remove drops one chunk from the index.
func (x *Index) Remove(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.meta, id)
	return x.bleve.Delete(id)
}

// Len reports how many chunks are indexed.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.meta)
}

// Search runs a query-string search and returns up to k hits, best first.
func (x *Index) Search(q string, k int) ([]Hit, error) {
	if k <= 0 || k > 50 {
		k = 10
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(q), k, 0, false)
	res, err := x.bleve.Search(req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		rec, ok := x.meta[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Chunk: rec, Score: h.Score})
	}
	return hits, nil
}
