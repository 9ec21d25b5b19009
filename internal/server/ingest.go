package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fintrace/fintrace/internal/chunkcache"
	"github.com/fintrace/fintrace/internal/ingest"
	"github.com/fintrace/fintrace/internal/searchidx"
	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

// IngestHandler turns filings and transcripts into stored chunks.
type IngestHandler struct {
	Store    *store.Store
	Cache    *chunkcache.Cache
	Index    *searchidx.Index
	Fetch    ingest.Fetcher
	MaxChars int
}

func (h *IngestHandler) Register(g *echo.Group) {
	g.POST("/filing", h.filing)
}

func (h *IngestHandler) filing(c echo.Context) error {
	var req IngestFilingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" && req.HTML == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url or html required")
	}
	if req.CompanyName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "company_name required")
	}
	typ := models.ChunkType(req.ChunkType)
	switch typ {
	case "":
		typ = models.ChunkTypeEarningsCall
	case models.ChunkTypeEarningsCall, models.ChunkTypeExpertInterview:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "chunk_type must be earnings_call or expert_interview")
	}

	ctx := c.Request().Context()
	html := req.HTML
	if html == "" {
		fetched, err := h.Fetch.FetchHTML(ctx, req.URL)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "fetch failed: "+err.Error())
		}
		html = fetched
	}
	art, err := ingest.ExtractArticle(html, req.URL)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "extract failed: "+err.Error())
	}

	recs := ingest.BuildChunks(typ, req.CompanyName, req.Industry, art, h.MaxChars)
	if len(recs) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no text extracted")
	}
	ids := make([]string, 0, len(recs))
	for i := range recs {
		recs[i].CallDate = req.CallDate
		if err := h.Store.UpsertChunk(ctx, recs[i]); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if h.Cache != nil {
			_ = h.Cache.Set(ctx, recs[i])
		}
		if h.Index != nil {
			_ = h.Index.Add(recs[i])
		}
		ids = append(ids, recs[i].ID)
	}
	return c.JSON(http.StatusCreated, IngestFilingResponse{Title: art.Title, ChunkIDs: ids})
}
