package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/fintrace/fintrace/models"
)

var chunkCols = []string{"id", "chunk_type", "company_name", "call_date", "title", "industry", "body", "attributes", "created_at"}

func TestUpsertChunk(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO chunks (id, chunk_type, company_name, call_date, title, industry, body, attributes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  chunk_type = EXCLUDED.chunk_type,
  company_name = EXCLUDED.company_name,
  call_date = EXCLUDED.call_date,
  title = EXCLUDED.title,
  industry = EXCLUDED.industry,
  body = EXCLUDED.body,
  attributes = EXCLUDED.attributes`)).
		WithArgs("e_1", "earnings_call", "Acme", "2024-11-05", "Q3 FY24 Earnings Call", "Software", "Revenue grew 12%", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = st.UpsertChunk(context.Background(), models.ChunkRecord{
		ID: "e_1", Type: models.ChunkTypeEarningsCall, CompanyName: "Acme",
		CallDate: "2024-11-05", Title: "Q3 FY24 Earnings Call", Industry: "Software",
		Text: "Revenue grew 12%",
	})
	if err != nil {
		t.Fatalf("UpsertChunk: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetChunkNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectQuery(`SELECT .+ FROM chunks WHERE id=\$1`).
		WithArgs("e_404").
		WillReturnRows(sqlmock.NewRows(chunkCols))

	_, err = st.GetChunk(context.Background(), "e_404")
	if err != models.ErrChunkNotFound {
		t.Fatalf("err = %v, want ErrChunkNotFound", err)
	}
}

func TestGetChunksBulk(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM chunks WHERE id = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{"e_1", "k_2", "e_3"})).
		WillReturnRows(sqlmock.NewRows(chunkCols).
			AddRow("e_1", "earnings_call", "Acme", "2024-11-05", "Q3 Call", "Software", "body", []byte(`{}`), now).
			AddRow("k_2", "expert_interview", "Beta", "", "Churn deep dive", "Retail", "body", []byte(`{}`), now))

	got, err := st.GetChunks(context.Background(), []string{"e_1", "k_2", "e_3"})
	if err != nil {
		t.Fatalf("GetChunks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if _, ok := got["e_3"]; ok {
		t.Fatal("missing chunk should stay absent, not be fabricated")
	}
	if got["k_2"].Type != models.ChunkTypeExpertInterview {
		t.Fatalf("k_2 type = %q", got["k_2"].Type)
	}
}

func TestGetChunksEmptyInput(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	got, err := st.GetChunks(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("GetChunks(nil) = %v, %v", got, err)
	}
}
