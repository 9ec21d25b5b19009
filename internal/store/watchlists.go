package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fintrace/fintrace/models"
)

// ErrWatchlistNotFound is returned for unknown watchlist IDs.
var ErrWatchlistNotFound = errors.New("watchlist not found")

const watchlistColumns = `id, name, companies, chunk_ids, digest_cron, created_at, updated_at`

// CreateWatchlist inserts a watchlist and returns it with its generated ID.
func (s *Store) CreateWatchlist(ctx context.Context, name string, companies []string, digestCron string) (models.Watchlist, error) {
	id := uuid.NewString()
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO watchlists (id, name, companies, chunk_ids, digest_cron)
VALUES ($1,$2,$3,'{}',$4)
RETURNING `+watchlistColumns, id, name, pq.Array(companies), nullable(digestCron))
	return scanWatchlist(row)
}

// GetWatchlist loads one watchlist by ID.
func (s *Store) GetWatchlist(ctx context.Context, id string) (models.Watchlist, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+watchlistColumns+` FROM watchlists WHERE id=$1`, id)
	w, err := scanWatchlist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Watchlist{}, ErrWatchlistNotFound
	}
	return w, err
}

// ListWatchlists returns all watchlists, newest first.
func (s *Store) ListWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+watchlistColumns+` FROM watchlists ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Watchlist
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpdateWatchlist replaces name, companies and digest schedule.
func (s *Store) UpdateWatchlist(ctx context.Context, id, name string, companies []string, digestCron string) (models.Watchlist, error) {
	row := s.DB.QueryRowContext(ctx, `
UPDATE watchlists SET name=$2, companies=$3, digest_cron=$4, updated_at=NOW()
WHERE id=$1
RETURNING `+watchlistColumns, id, name, pq.Array(companies), nullable(digestCron))
	w, err := scanWatchlist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Watchlist{}, ErrWatchlistNotFound
	}
	return w, err
}

// DeleteWatchlist removes a watchlist.
func (s *Store) DeleteWatchlist(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM watchlists WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWatchlistNotFound
	}
	return nil
}

// PinChunk adds a chunk ID to the watchlist, ignoring duplicates.
func (s *Store) PinChunk(ctx context.Context, watchlistID, chunkID string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE watchlists
SET chunk_ids = array_append(chunk_ids, $2), updated_at=NOW()
WHERE id=$1 AND NOT ($2 = ANY(chunk_ids))`, watchlistID, chunkID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// either unknown watchlist or already pinned; disambiguate
		if _, err := s.GetWatchlist(ctx, watchlistID); err != nil {
			return err
		}
	}
	return nil
}

// UnpinChunk removes a chunk ID from the watchlist.
func (s *Store) UnpinChunk(ctx context.Context, watchlistID, chunkID string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE watchlists SET chunk_ids = array_remove(chunk_ids, $2), updated_at=NOW() WHERE id=$1`,
		watchlistID, chunkID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWatchlistNotFound
	}
	return nil
}

// DueWatchlists returns watchlists that have a digest schedule configured.
// Cron evaluation happens in the scheduler, not in SQL.
func (s *Store) DueWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+watchlistColumns+` FROM watchlists WHERE digest_cron IS NOT NULL AND digest_cron <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Watchlist
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// TouchDigest records the time a digest prewarm last ran.
func (s *Store) TouchDigest(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE watchlists SET last_digest_at=NOW() WHERE id=$1`, id)
	return err
}

// LastDigestTime returns the last digest prewarm time, nil when never run.
func (s *Store) LastDigestTime(ctx context.Context, id string) (*time.Time, error) {
	var t sql.NullTime
	if err := s.DB.QueryRowContext(ctx, `SELECT last_digest_at FROM watchlists WHERE id=$1`, id).Scan(&t); err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

func scanWatchlist(row rowScanner) (models.Watchlist, error) {
	var w models.Watchlist
	var cron sql.NullString
	if err := row.Scan(&w.ID, &w.Name, pq.Array(&w.Companies), pq.Array(&w.ChunkIDs), &cron, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return models.Watchlist{}, err
	}
	w.DigestCron = cron.String
	return w, nil
}
