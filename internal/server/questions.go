package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

// QuestionsHandler manages the prompt trigger question registry.
type QuestionsHandler struct {
	Store *store.Store
}

func (h *QuestionsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/stats", h.stats)
	g.GET("/groups", h.listGroups)
	g.PUT("/groups/:name", h.renameGroup)
	g.DELETE("/groups/:name", h.deleteGroup)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PUT("/:id/active", h.setActive)
	g.GET("/:id/history", h.history)
	g.POST("/:id/restore", h.restore)
}

func (h *QuestionsHandler) list(c echo.Context) error {
	f := store.QuestionFilter{
		SourceShorthand: c.QueryParam("source"),
		GroupName:       c.QueryParam("group"),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
	}
	if f.SourceShorthand != "" && !models.ValidSourceShorthand(f.SourceShorthand) {
		return echo.NewHTTPError(http.StatusBadRequest, "source must be one of A, K, E")
	}
	items, err := h.Store.ListQuestions(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *QuestionsHandler) create(c echo.Context) error {
	var req CreateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.QuestionText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question_text required")
	}
	if req.GroupName == "" {
		req.GroupName = "Ungrouped"
	}
	if req.SourceShorthand == "" {
		req.SourceShorthand = models.SourceShorthandAll
	}
	if !models.ValidSourceShorthand(req.SourceShorthand) {
		return echo.NewHTTPError(http.StatusBadRequest, "source_shorthand must be one of A, K, E")
	}
	q, err := h.Store.CreateQuestion(c.Request().Context(), req.QuestionText, req.GroupName, req.SourceShorthand, req.CreatedBy)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *QuestionsHandler) get(c echo.Context) error {
	id, err := questionID(c)
	if err != nil {
		return err
	}
	q, err := h.Store.GetQuestion(c.Request().Context(), id)
	if err != nil {
		return questionErr(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionsHandler) update(c echo.Context) error {
	id, err := questionID(c)
	if err != nil {
		return err
	}
	var req UpdateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.QuestionText == nil && req.GroupName == nil && req.SourceShorthand == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no fields to update")
	}
	if req.SourceShorthand != nil && !models.ValidSourceShorthand(*req.SourceShorthand) {
		return echo.NewHTTPError(http.StatusBadRequest, "source_shorthand must be one of A, K, E")
	}
	q, err := h.Store.UpdateQuestion(c.Request().Context(), id, store.QuestionUpdate{
		QuestionText:    req.QuestionText,
		GroupName:       req.GroupName,
		SourceShorthand: req.SourceShorthand,
		Reason:          req.Reason,
		UpdatedBy:       req.UpdatedBy,
	})
	if err != nil {
		return questionErr(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionsHandler) setActive(c echo.Context) error {
	id, err := questionID(c)
	if err != nil {
		return err
	}
	var req SetActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q, err := h.Store.SetQuestionActive(c.Request().Context(), id, req.IsActive, req.UpdatedBy, req.Reason)
	if err != nil {
		return questionErr(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionsHandler) delete(c echo.Context) error {
	id, err := questionID(c)
	if err != nil {
		return err
	}
	if err := h.Store.DeleteQuestion(c.Request().Context(), id); err != nil {
		return questionErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *QuestionsHandler) history(c echo.Context) error {
	id, err := questionID(c)
	if err != nil {
		return err
	}
	items, err := h.Store.QuestionHistory(c.Request().Context(), id)
	if err != nil {
		return questionErr(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *QuestionsHandler) restore(c echo.Context) error {
	id, err := questionID(c)
	if err != nil {
		return err
	}
	var req RestoreQuestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.HistoryID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "history_id required")
	}
	q, err := h.Store.RestoreQuestion(c.Request().Context(), id, req.HistoryID, req.RestoredBy, req.Reason)
	if err != nil {
		return questionErr(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionsHandler) listGroups(c echo.Context) error {
	source := c.QueryParam("source")
	if source != "" && !models.ValidSourceShorthand(source) {
		return echo.NewHTTPError(http.StatusBadRequest, "source must be one of A, K, E")
	}
	groups, err := h.Store.ListGroups(c.Request().Context(), source, c.QueryParam("include_inactive") == "true")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *QuestionsHandler) renameGroup(c echo.Context) error {
	var req RenameGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.NewName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new_name required")
	}
	n, err := h.Store.RenameGroup(c.Request().Context(), c.Param("name"), req.NewName, req.UpdatedBy)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AffectedResponse{Affected: n})
}

func (h *QuestionsHandler) deleteGroup(c echo.Context) error {
	n, err := h.Store.DeleteGroup(c.Request().Context(), c.Param("name"), c.QueryParam("delete_questions") == "true")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, AffectedResponse{Affected: n})
}

func (h *QuestionsHandler) stats(c echo.Context) error {
	st, err := h.Store.QuestionStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

func questionID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}
	return id, nil
}

func questionErr(err error) error {
	if errors.Is(err, store.ErrQuestionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
