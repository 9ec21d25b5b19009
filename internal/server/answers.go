package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fintrace/fintrace/internal/chunkcache"
	"github.com/fintrace/fintrace/internal/citations"
	"github.com/fintrace/fintrace/internal/hydrate"
	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

// AnswersHandler rewrites research answers into numbered citations and
// optionally hydrates the chunks behind them.
type AnswersHandler struct {
	Hyd *hydrate.Hydrator
}

func (h *AnswersHandler) Register(g *echo.Group) {
	g.POST("/resolve", h.resolve)
	g.DELETE("/cache", h.clearCache)
}

func (h *AnswersHandler) resolve(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AnswerText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "answer_text required")
	}

	refs := citations.Parse(req.AnswerText)
	resp := ResolveResponse{
		AnswerText: citations.Rewrite(req.AnswerText, refs),
		References: make([]ReferenceView, 0, len(refs)),
	}
	var chunkIDs []string
	for _, r := range refs {
		resp.References = append(resp.References, ReferenceView{
			ID:          r.ID,
			Filename:    r.Filename,
			EntryID:     r.EntryID,
			DisplayText: r.DisplayText,
		})
		if r.Filename == "chunk-"+r.EntryID {
			chunkIDs = append(chunkIDs, r.EntryID)
		}
	}

	if req.Hydrate && h.Hyd != nil && len(chunkIDs) > 0 {
		h.Hyd.FetchMany(c.Request().Context(), chunkIDs)
		resp.Chunks = make(map[string]models.ChunkRecord)
		resp.Errors = make(map[string]string)
		for _, id := range chunkIDs {
			if rec := h.Hyd.GetByID(id); rec != nil {
				resp.Chunks[id] = *rec
				continue
			}
			if msg, ok := h.Hyd.Error(id); ok {
				resp.Errors[id] = msg
			}
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AnswersHandler) clearCache(c echo.Context) error {
	if h.Hyd != nil {
		h.Hyd.Clear()
	}
	return c.NoContent(http.StatusNoContent)
}

// storeFetcher lets the hydrator resolve chunks against the local store
// and Redis cache rather than a remote backend.
type storeFetcher struct {
	store *store.Store
	cache *chunkcache.Cache
}

func (f *storeFetcher) FetchBatch(ctx context.Context, ids []string) (models.BulkResult, error) {
	res := models.NewBulkResult()
	res.Summary.TotalRequested = len(ids)

	missing := ids
	if f.cache != nil {
		hits, misses, err := f.cache.GetMany(ctx, ids)
		if err == nil {
			for id, rec := range hits {
				res.Chunks[id] = rec
			}
			missing = misses
		}
	}
	if len(missing) > 0 {
		found, err := f.store.GetChunks(ctx, missing)
		if err != nil {
			return models.BulkResult{}, err
		}
		for _, id := range missing {
			rec, ok := found[id]
			if !ok {
				res.Errors[id] = "chunk not found: " + id
				continue
			}
			res.Chunks[id] = rec
		}
		if f.cache != nil && len(found) > 0 {
			_ = f.cache.SetMany(ctx, found)
		}
	}
	res.Summary.Successful = len(res.Chunks)
	res.Summary.Failed = len(res.Errors)
	return res, nil
}

func (f *storeFetcher) FetchOne(ctx context.Context, id string) (models.ChunkRecord, error) {
	if f.cache != nil {
		if rec, err := f.cache.Get(ctx, id); err == nil && rec != nil {
			return *rec, nil
		}
	}
	rec, err := f.store.GetChunk(ctx, id)
	if err != nil {
		return models.ChunkRecord{}, err
	}
	if f.cache != nil {
		_ = f.cache.Set(ctx, rec)
	}
	return rec, nil
}
