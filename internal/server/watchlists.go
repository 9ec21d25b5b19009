package server

import (
	"errors"
	"net/http"

	"github.com/gorhill/cronexpr"
	"github.com/labstack/echo/v4"

	"github.com/fintrace/fintrace/internal/store"
)

// WatchlistsHandler manages analyst watchlists and their pinned chunks.
type WatchlistsHandler struct {
	Store *store.Store
}

func (h *WatchlistsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/chunks/:chunkID", h.pin)
	g.DELETE("/:id/chunks/:chunkID", h.unpin)
}

func (h *WatchlistsHandler) list(c echo.Context) error {
	items, err := h.Store.ListWatchlists(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *WatchlistsHandler) create(c echo.Context) error {
	var req WatchlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if err := validateCron(req.DigestCron); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.Store.CreateWatchlist(c.Request().Context(), req.Name, req.Companies, req.DigestCron)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *WatchlistsHandler) get(c echo.Context) error {
	w, err := h.Store.GetWatchlist(c.Request().Context(), c.Param("id"))
	if err != nil {
		return watchlistErr(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WatchlistsHandler) update(c echo.Context) error {
	var req WatchlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	if err := validateCron(req.DigestCron); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w, err := h.Store.UpdateWatchlist(c.Request().Context(), c.Param("id"), req.Name, req.Companies, req.DigestCron)
	if err != nil {
		return watchlistErr(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *WatchlistsHandler) delete(c echo.Context) error {
	if err := h.Store.DeleteWatchlist(c.Request().Context(), c.Param("id")); err != nil {
		return watchlistErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WatchlistsHandler) pin(c echo.Context) error {
	if err := h.Store.PinChunk(c.Request().Context(), c.Param("id"), c.Param("chunkID")); err != nil {
		return watchlistErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WatchlistsHandler) unpin(c echo.Context) error {
	if err := h.Store.UnpinChunk(c.Request().Context(), c.Param("id"), c.Param("chunkID")); err != nil {
		return watchlistErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// validateCron accepts an empty schedule, the @daily/@hourly shorthands,
// or a parseable cron expression.
func validateCron(spec string) error {
	switch spec {
	case "", "@daily", "@hourly":
		return nil
	}
	if _, err := cronexpr.Parse(spec); err != nil {
		return errors.New("digest_cron is not a valid cron expression")
	}
	return nil
}

func watchlistErr(err error) error {
	if errors.Is(err, store.ErrWatchlistNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
