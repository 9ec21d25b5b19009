package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

var questionCols = []string{"id", "question_text", "group_name", "source_shorthand", "version", "is_active", "created_at", "created_by", "updated_at", "updated_by"}

func newQuestionsContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateQuestionHandler(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	handler := &QuestionsHandler{Store: &store.Store{DB: db}}
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO trigger_questions`).
		WithArgs("What drove gross margin?", "Margins", "E", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(questionCols).
			AddRow(int64(7), "What drove gross margin?", "Margins", "E", 1, true, now, "analyst@desk", now, "analyst@desk"))

	ctx, rec := newQuestionsContext(t, http.MethodPost, "/api/questions",
		`{"question_text":"What drove gross margin?","group_name":"Margins","source_shorthand":"E","created_by":"analyst@desk"}`)
	if err := handler.create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}

	var q models.TriggerQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.ID != 7 || q.Version != 1 || !q.IsActive {
		t.Fatalf("unexpected question: %+v", q)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateQuestionRejectsBadSource(t *testing.T) {
	handler := &QuestionsHandler{}
	ctx, _ := newQuestionsContext(t, http.MethodPost, "/api/questions",
		`{"question_text":"Any churn?","source_shorthand":"Z"}`)

	err := handler.create(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestGetQuestionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	handler := &QuestionsHandler{Store: &store.Store{DB: db}}
	mock.ExpectQuery(`FROM trigger_questions WHERE id=\$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(questionCols))

	ctx, _ := newQuestionsContext(t, http.MethodGet, "/api/questions/99", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues("99")

	err = handler.get(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestUpdateQuestionRequiresFields(t *testing.T) {
	handler := &QuestionsHandler{}
	ctx, _ := newQuestionsContext(t, http.MethodPut, "/api/questions/7", `{}`)
	ctx.SetParamNames("id")
	ctx.SetParamValues("7")

	err := handler.update(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestRestoreRequiresHistoryID(t *testing.T) {
	handler := &QuestionsHandler{}
	ctx, _ := newQuestionsContext(t, http.MethodPost, "/api/questions/7/restore", `{}`)
	ctx.SetParamNames("id")
	ctx.SetParamValues("7")

	err := handler.restore(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestQuestionIDMustBeInteger(t *testing.T) {
	handler := &QuestionsHandler{}
	ctx, _ := newQuestionsContext(t, http.MethodGet, "/api/questions/abc", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues("abc")

	err := handler.get(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}
