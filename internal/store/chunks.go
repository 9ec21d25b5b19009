package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/lib/pq"

	"github.com/fintrace/fintrace/models"
)

// UpsertChunk inserts or replaces a chunk record wholesale.
func (s *Store) UpsertChunk(ctx context.Context, c models.ChunkRecord) error {
	attrs, err := json.Marshal(c.Attributes)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO chunks (id, chunk_type, company_name, call_date, title, industry, body, attributes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  chunk_type = EXCLUDED.chunk_type,
  company_name = EXCLUDED.company_name,
  call_date = EXCLUDED.call_date,
  title = EXCLUDED.title,
  industry = EXCLUDED.industry,
  body = EXCLUDED.body,
  attributes = EXCLUDED.attributes`,
		c.ID, string(c.Type), c.CompanyName, c.CallDate, c.Title, c.Industry, c.Text, attrs)
	return err
}

// GetChunk loads one chunk by ID; models.ErrChunkNotFound when absent.
func (s *Store) GetChunk(ctx context.Context, id string) (models.ChunkRecord, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, chunk_type, company_name, call_date, title, industry, body, attributes, created_at
FROM chunks WHERE id=$1`, id)
	rec, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChunkRecord{}, models.ErrChunkNotFound
	}
	return rec, err
}

// GetChunks loads a set of chunks in one round trip. IDs without a row are
// simply absent from the result; the caller decides how to report them.
func (s *Store) GetChunks(ctx context.Context, ids []string) (map[string]models.ChunkRecord, error) {
	if len(ids) == 0 {
		return map[string]models.ChunkRecord{}, nil
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, chunk_type, company_name, call_date, title, industry, body, attributes, created_at
FROM chunks WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.ChunkRecord, len(ids))
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out[rec.ID] = rec
	}
	return out, rows.Err()
}

// ListRecentChunks returns the newest chunks, optionally filtered by type.
func (s *Store) ListRecentChunks(ctx context.Context, chunkType string, limit int) ([]models.ChunkRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
SELECT id, chunk_type, company_name, call_date, title, industry, body, attributes, created_at
FROM chunks`
	args := []interface{}{}
	if chunkType != "" {
		query += ` WHERE chunk_type=$1`
		args = append(args, chunkType)
	}
	query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChunkRecord
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(row rowScanner) (models.ChunkRecord, error) {
	var rec models.ChunkRecord
	var typ string
	var company, callDate, title, industry, body sql.NullString
	var attrs []byte
	if err := row.Scan(&rec.ID, &typ, &company, &callDate, &title, &industry, &body, &attrs, &rec.CreatedAt); err != nil {
		return models.ChunkRecord{}, err
	}
	rec.Type = models.ChunkType(typ)
	rec.CompanyName = company.String
	rec.CallDate = callDate.String
	rec.Title = title.String
	rec.Industry = industry.String
	rec.Text = body.String
	if len(attrs) > 0 {
		_ = json.Unmarshal(attrs, &rec.Attributes)
	}
	return rec, nil
}
