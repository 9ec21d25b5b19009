package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fintrace/fintrace/internal/chunkcache"
	"github.com/fintrace/fintrace/internal/searchidx"
	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

// ChunksHandler serves chunk lookups, bulk fetches and search.
type ChunksHandler struct {
	Store *store.Store
	Cache *chunkcache.Cache
	Index *searchidx.Index
}

func (h *ChunksHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.upsert)
	g.POST("/bulk", h.bulk)
	g.POST("/search", h.search)
	g.GET("/:id", h.get)
}

func (h *ChunksHandler) list(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}
	items, err := h.Store.ListRecentChunks(c.Request().Context(), c.QueryParam("type"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ChunksHandler) upsert(c echo.Context) error {
	var rec models.ChunkRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	typ, err := models.ChunkTypeForID(rec.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if rec.Type == "" {
		rec.Type = typ
	} else if rec.Type != typ {
		return echo.NewHTTPError(http.StatusBadRequest, "chunk type does not match id prefix")
	}
	ctx := c.Request().Context()
	if err := h.Store.UpsertChunk(ctx, rec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.Cache != nil {
		_ = h.Cache.Set(ctx, rec)
	}
	if h.Index != nil {
		_ = h.Index.Add(rec)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": rec.ID})
}

func (h *ChunksHandler) get(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	if h.Cache != nil {
		if rec, err := h.Cache.Get(ctx, id); err == nil && rec != nil {
			return c.JSON(http.StatusOK, rec)
		}
	}
	rec, err := h.Store.GetChunk(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrChunkNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "chunk not found: "+id)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.Cache != nil {
		_ = h.Cache.Set(ctx, rec)
	}
	return c.JSON(http.StatusOK, rec)
}

// bulk fetches many chunks at once. Every distinct requested ID lands in
// either chunks or errors, and the summary tallies add up.
func (h *ChunksHandler) bulk(c echo.Context) error {
	var req BulkChunksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ids := dedupe(req.ChunkReferences)
	res := models.NewBulkResult()
	res.Summary.TotalRequested = len(ids)
	if len(ids) == 0 {
		return c.JSON(http.StatusOK, res)
	}

	ctx := c.Request().Context()
	missing := ids
	if h.Cache != nil {
		hits, misses, err := h.Cache.GetMany(ctx, ids)
		if err == nil {
			for id, rec := range hits {
				res.Chunks[id] = rec
			}
			missing = misses
		}
	}
	if len(missing) > 0 {
		found, err := h.Store.GetChunks(ctx, missing)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, id := range missing {
			rec, ok := found[id]
			if !ok {
				res.Errors[id] = "chunk not found: " + id
				continue
			}
			res.Chunks[id] = rec
		}
		if h.Cache != nil && len(found) > 0 {
			_ = h.Cache.SetMany(ctx, found)
		}
	}
	res.Summary.Successful = len(res.Chunks)
	res.Summary.Failed = len(res.Errors)
	return c.JSON(http.StatusOK, res)
}

func (h *ChunksHandler) search(c echo.Context) error {
	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search index disabled")
	}
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}
	hits, err := h.Index.Search(req.Query, req.TopK)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]SearchHit, 0, len(hits))
	for _, hit := range hits {
		out = append(out, SearchHit{Chunk: hit.Chunk, Score: hit.Score})
	}
	return c.JSON(http.StatusOK, out)
}

// dedupe keeps first occurrences, preserving request order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
