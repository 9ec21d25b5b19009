package hydrate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fintrace/fintrace/models"
)

// Fetcher resolves chunk IDs to records. The hydrator drives the batch call
// first and falls back to per-ID calls when the batch fails.
type Fetcher interface {
	FetchBatch(ctx context.Context, ids []string) (models.BulkResult, error)
	FetchOne(ctx context.Context, id string) (models.ChunkRecord, error)
}

// HTTPFetcher talks to a chunk backend over its REST surface.
type HTTPFetcher struct {
	base string
	http *HTTPClient
}

func NewHTTPFetcher(baseURL string, timeout time.Duration, retries int, backoff time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		base: strings.TrimRight(baseURL, "/"),
		http: NewHTTPClient(timeout, retries, backoff),
	}
}

type bulkRequest struct {
	ChunkReferences []string `json:"chunk_references"`
}

// FetchBatch posts the full ID list to the bulk endpoint. Any non-2xx
// response or transport failure surfaces as an error so the caller can
// fall back to per-ID fetches.
func (f *HTTPFetcher) FetchBatch(ctx context.Context, ids []string) (models.BulkResult, error) {
	var res models.BulkResult
	err := f.http.DoJSON(ctx, "POST", f.base+"/api/chunks/bulk", nil, bulkRequest{ChunkReferences: ids}, &res)
	if err != nil {
		return models.BulkResult{}, fmt.Errorf("bulk fetch: %w", err)
	}
	if res.Chunks == nil {
		res.Chunks = map[string]models.ChunkRecord{}
	}
	if res.Errors == nil {
		res.Errors = map[string]string{}
	}
	return res, nil
}

// FetchOne resolves a single chunk. Non-2xx failures carry the HTTP status
// text so the per-ID error map stays human readable.
func (f *HTTPFetcher) FetchOne(ctx context.Context, id string) (models.ChunkRecord, error) {
	var rec models.ChunkRecord
	err := f.http.DoJSON(ctx, "GET", f.base+"/api/chunks/"+url.PathEscape(id), nil, nil, &rec)
	if err != nil {
		return models.ChunkRecord{}, err
	}
	return rec, nil
}
