package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var questionCols = []string{"id", "question_text", "group_name", "source_shorthand", "version", "is_active", "created_at", "created_by", "updated_at", "updated_by"}

func questionRow(rows *sqlmock.Rows, id int64, text, group, source string, version int, active bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, text, group, source, version, active, now, "analyst@desk", now, "analyst@desk")
}

func TestCreateQuestion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectQuery(`INSERT INTO trigger_questions`).
		WithArgs("What drove gross margin?", "Margins", "E", sqlmock.AnyArg()).
		WillReturnRows(questionRow(sqlmock.NewRows(questionCols), 7, "What drove gross margin?", "Margins", "E", 1, true))

	q, err := st.CreateQuestion(context.Background(), "What drove gross margin?", "Margins", "E", "analyst@desk")
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if q.ID != 7 || q.Version != 1 || !q.IsActive {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestUpdateQuestionWritesHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM trigger_questions WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(questionRow(sqlmock.NewRows(questionCols), 7, "Old text", "Margins", "E", 2, true))
	mock.ExpectExec(`INSERT INTO trigger_questions_history`).
		WithArgs(int64(7), "Old text", "Margins", "E", 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`UPDATE trigger_questions`).
		WithArgs(int64(7), "New text", "Margins", "E", sqlmock.AnyArg()).
		WillReturnRows(questionRow(sqlmock.NewRows(questionCols), 7, "New text", "Margins", "E", 3, true))
	mock.ExpectCommit()

	text := "New text"
	q, err := st.UpdateQuestion(context.Background(), 7, QuestionUpdate{
		QuestionText: &text, UpdatedBy: "analyst@desk", Reason: "tighten wording",
	})
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if q.Version != 3 || q.QuestionText != "New text" {
		t.Fatalf("unexpected question after update: %+v", q)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetQuestionActiveNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM trigger_questions WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(questionRow(sqlmock.NewRows(questionCols), 7, "Text", "Margins", "E", 2, true))
	mock.ExpectCommit()

	q, err := st.SetQuestionActive(context.Background(), 7, true, "analyst@desk", "")
	if err != nil {
		t.Fatalf("SetQuestionActive: %v", err)
	}
	if q.Version != 2 {
		t.Fatalf("no-op toggle must not bump version: %+v", q)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no-op toggle wrote history: %v", err)
	}
}

func TestDeleteQuestionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectExec(`DELETE FROM trigger_questions WHERE id=\$1`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.DeleteQuestion(context.Background(), 404); err != ErrQuestionNotFound {
		t.Fatalf("err = %v, want ErrQuestionNotFound", err)
	}
}

func TestQuestionStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(10, 7))
	mock.ExpectQuery(`SELECT source_shorthand, COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"source_shorthand", "count"}).AddRow("E", 4).AddRow("K", 3))
	mock.ExpectQuery(`SELECT group_name, COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"group_name", "count"}).AddRow("Margins", 5).AddRow("Churn", 2))

	stats, err := st.QuestionStats(context.Background())
	if err != nil {
		t.Fatalf("QuestionStats: %v", err)
	}
	if stats.InactiveQuestions != 3 || stats.TotalGroups != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.BySource["E"] != 4 || stats.ByGroup["Churn"] != 2 {
		t.Fatalf("unexpected rollups: %+v", stats)
	}
}
