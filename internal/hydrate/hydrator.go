package hydrate

import (
	"context"
	"log"
	"sync"

	"github.com/fintrace/fintrace/models"
)

// Hydrator caches fetched chunk content for the lifetime of a search
// session. Successes and failures are both represented as data; nothing a
// fetch does is fatal to the caller. Each ID moves through
// unrequested -> in-flight -> {resolved, errored} and terminal states are
// never re-entered.
//
// The hydrator is owned by its call site; construct one per session or
// per server and inject the Fetcher.
type Hydrator struct {
	fetcher Fetcher
	logger  *log.Logger

	mu       sync.Mutex
	chunks   map[string]models.ChunkRecord
	errs     map[string]string
	inflight map[string]struct{}
}

func NewHydrator(f Fetcher, logger *log.Logger) *Hydrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[HYDRATE] ", log.LstdFlags)
	}
	return &Hydrator{
		fetcher:  f,
		logger:   logger,
		chunks:   make(map[string]models.ChunkRecord),
		errs:     make(map[string]string),
		inflight: make(map[string]struct{}),
	}
}

// FetchMany populates the cache for the given IDs. Duplicate IDs collapse
// to one request; IDs already terminal or in flight are skipped; IDs
// without a recognized type prefix are recorded as validation errors
// without touching the network. One batched call is attempted first and a
// failure there degrades to concurrent per-ID fetches, each succeeding or
// failing independently. Completion order of the fallback fetches is
// unspecified and an issued call cannot be cancelled.
func (h *Hydrator) FetchMany(ctx context.Context, ids []string) {
	pending := h.admit(ids)
	if len(pending) == 0 {
		return
	}

	res, err := h.fetcher.FetchBatch(ctx, pending)
	if err == nil {
		h.settleBatch(pending, res)
		return
	}

	batchFallbacks.Inc()
	h.logger.Printf("bulk fetch of %d chunks failed, falling back to per-id: %v", len(pending), err)

	var wg sync.WaitGroup
	for _, id := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rec, ferr := h.fetcher.FetchOne(ctx, id)
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.inflight, id)
			if ferr != nil {
				h.errs[id] = ferr.Error()
				fetchErrors.Inc()
				return
			}
			h.chunks[id] = rec
		}(id)
	}
	wg.Wait()
}

// admit filters the requested IDs down to the set that actually needs a
// fetch, marking them in-flight, and records validation errors inline.
func (h *Hydrator) admit(ids []string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var pending []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := h.chunks[id]; ok {
			cacheHits.Inc()
			continue
		}
		if _, ok := h.errs[id]; ok {
			cacheHits.Inc()
			continue
		}
		if _, ok := h.inflight[id]; ok {
			continue
		}
		if _, err := models.ChunkTypeForID(id); err != nil {
			h.errs[id] = err.Error()
			fetchErrors.Inc()
			continue
		}
		h.inflight[id] = struct{}{}
		pending = append(pending, id)
	}
	return pending
}

// settleBatch applies a successful bulk response. Every pending ID lands in
// exactly one of the two maps; IDs the endpoint failed to mention at all
// are recorded as errors rather than silently dropped.
func (h *Hydrator) settleBatch(pending []string, res models.BulkResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range pending {
		delete(h.inflight, id)
		if rec, ok := res.Chunks[id]; ok {
			h.chunks[id] = rec
			continue
		}
		if msg, ok := res.Errors[id]; ok {
			h.errs[id] = msg
		} else {
			h.errs[id] = "chunk missing from bulk response"
		}
		fetchErrors.Inc()
	}
}

// GetByID returns the cached record for id, or nil when the ID is unknown,
// still in flight, or errored.
func (h *Hydrator) GetByID(id string) *models.ChunkRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.chunks[id]
	if !ok {
		return nil
	}
	out := rec
	return &out
}

// Error returns the recorded failure for id, if any.
func (h *Hydrator) Error(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg, ok := h.errs[id]
	return msg, ok
}

// Snapshot copies both maps for rendering. The copies are detached from
// the cache and safe to hold across further fetches.
func (h *Hydrator) Snapshot() (map[string]models.ChunkRecord, map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	chunks := make(map[string]models.ChunkRecord, len(h.chunks))
	for k, v := range h.chunks {
		chunks[k] = v
	}
	errs := make(map[string]string, len(h.errs))
	for k, v := range h.errs {
		errs[k] = v
	}
	return chunks, errs
}

// Clear drops successes and failures together; a reader never observes one
// map emptied without the other.
func (h *Hydrator) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunks = make(map[string]models.ChunkRecord)
	h.errs = make(map[string]string)
}
