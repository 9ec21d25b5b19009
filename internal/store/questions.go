package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fintrace/fintrace/models"
)

// ErrQuestionNotFound is returned for unknown question or history IDs.
var ErrQuestionNotFound = errors.New("trigger question not found")

const questionColumns = `id, question_text, group_name, source_shorthand, version, is_active, created_at, created_by, updated_at, updated_by`

// QuestionFilter narrows ListQuestions.
type QuestionFilter struct {
	SourceShorthand string
	GroupName       string
	IncludeInactive bool
}

// QuestionUpdate carries the mutable fields of an update; nil pointers
// leave the stored value untouched.
type QuestionUpdate struct {
	QuestionText    *string
	GroupName       *string
	SourceShorthand *string
	Reason          string
	UpdatedBy       string
}

// CreateQuestion inserts a new active question at version 1.
func (s *Store) CreateQuestion(ctx context.Context, text, group, source, createdBy string) (models.TriggerQuestion, error) {
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO trigger_questions (question_text, group_name, source_shorthand, version, is_active, created_by, updated_by)
VALUES ($1,$2,$3,1,TRUE,$4,$4)
RETURNING `+questionColumns, text, group, source, nullable(createdBy))
	return scanQuestion(row)
}

// GetQuestion loads one question by ID.
func (s *Store) GetQuestion(ctx context.Context, id int64) (models.TriggerQuestion, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM trigger_questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TriggerQuestion{}, ErrQuestionNotFound
	}
	return q, err
}

// ListQuestions returns questions ordered by group then ID.
func (s *Store) ListQuestions(ctx context.Context, f QuestionFilter) ([]models.TriggerQuestion, error) {
	query := `SELECT ` + questionColumns + ` FROM trigger_questions WHERE 1=1`
	var args []interface{}
	if !f.IncludeInactive {
		query += ` AND is_active`
	}
	if f.SourceShorthand != "" {
		args = append(args, f.SourceShorthand)
		query += fmt.Sprintf(` AND source_shorthand=$%d`, len(args))
	}
	if f.GroupName != "" {
		args = append(args, f.GroupName)
		query += fmt.Sprintf(` AND group_name=$%d`, len(args))
	}
	query += ` ORDER BY group_name, id`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TriggerQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQuestion snapshots the current version into history and applies the
// update with a version bump, in one transaction.
func (s *Store) UpdateQuestion(ctx context.Context, id int64, upd QuestionUpdate) (models.TriggerQuestion, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.TriggerQuestion{}, err
	}
	defer tx.Rollback()

	cur, err := getQuestionTx(ctx, tx, id)
	if err != nil {
		return models.TriggerQuestion{}, err
	}
	if err := insertHistory(ctx, tx, cur, upd.UpdatedBy, upd.Reason); err != nil {
		return models.TriggerQuestion{}, err
	}

	text := cur.QuestionText
	if upd.QuestionText != nil {
		text = *upd.QuestionText
	}
	group := cur.GroupName
	if upd.GroupName != nil {
		group = *upd.GroupName
	}
	source := cur.SourceShorthand
	if upd.SourceShorthand != nil {
		source = *upd.SourceShorthand
	}

	row := tx.QueryRowContext(ctx, `
UPDATE trigger_questions
SET question_text=$2, group_name=$3, source_shorthand=$4, version=version+1, updated_at=NOW(), updated_by=$5
WHERE id=$1
RETURNING `+questionColumns, id, text, group, source, nullable(upd.UpdatedBy))
	q, err := scanQuestion(row)
	if err != nil {
		return models.TriggerQuestion{}, err
	}
	return q, tx.Commit()
}

// SetQuestionActive toggles the active flag with a history snapshot. A
// no-op toggle returns the current row without writing history.
func (s *Store) SetQuestionActive(ctx context.Context, id int64, active bool, updatedBy, reason string) (models.TriggerQuestion, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.TriggerQuestion{}, err
	}
	defer tx.Rollback()

	cur, err := getQuestionTx(ctx, tx, id)
	if err != nil {
		return models.TriggerQuestion{}, err
	}
	if cur.IsActive == active {
		return cur, tx.Commit()
	}
	if reason == "" {
		if active {
			reason = "Activated question"
		} else {
			reason = "Deactivated question"
		}
	}
	if err := insertHistory(ctx, tx, cur, updatedBy, reason); err != nil {
		return models.TriggerQuestion{}, err
	}

	row := tx.QueryRowContext(ctx, `
UPDATE trigger_questions
SET is_active=$2, version=version+1, updated_at=NOW(), updated_by=$3
WHERE id=$1
RETURNING `+questionColumns, id, active, nullable(updatedBy))
	q, err := scanQuestion(row)
	if err != nil {
		return models.TriggerQuestion{}, err
	}
	return q, tx.Commit()
}

// DeleteQuestion removes a question; history rows cascade.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM trigger_questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// QuestionHistory lists a question's superseded versions, newest first.
func (s *Store) QuestionHistory(ctx context.Context, questionID int64) ([]models.TriggerQuestionHistory, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, question_id, question_text, group_name, source_shorthand, version, created_at, created_by, replaced_at, replaced_by, reason
FROM trigger_questions_history WHERE question_id=$1 ORDER BY version DESC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TriggerQuestionHistory
	for rows.Next() {
		var h models.TriggerQuestionHistory
		var createdBy, replacedBy, reason sql.NullString
		if err := rows.Scan(&h.ID, &h.QuestionID, &h.QuestionText, &h.GroupName, &h.SourceShorthand,
			&h.Version, &h.CreatedAt, &createdBy, &h.ReplacedAt, &replacedBy, &reason); err != nil {
			return nil, err
		}
		h.CreatedBy = createdBy.String
		h.ReplacedBy = replacedBy.String
		h.Reason = reason.String
		out = append(out, h)
	}
	return out, rows.Err()
}

// RestoreQuestion reapplies a historical version as a fresh update, so the
// restoration itself is recorded in history.
func (s *Store) RestoreQuestion(ctx context.Context, questionID, historyID int64, restoredBy, reason string) (models.TriggerQuestion, error) {
	var h models.TriggerQuestionHistory
	row := s.DB.QueryRowContext(ctx, `
SELECT id, question_id, question_text, group_name, source_shorthand, version
FROM trigger_questions_history WHERE id=$1`, historyID)
	if err := row.Scan(&h.ID, &h.QuestionID, &h.QuestionText, &h.GroupName, &h.SourceShorthand, &h.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TriggerQuestion{}, ErrQuestionNotFound
		}
		return models.TriggerQuestion{}, err
	}
	if h.QuestionID != questionID {
		return models.TriggerQuestion{}, ErrQuestionNotFound
	}
	if reason == "" {
		reason = fmt.Sprintf("Restored to version %d", h.Version)
	}
	return s.UpdateQuestion(ctx, questionID, QuestionUpdate{
		QuestionText:    &h.QuestionText,
		GroupName:       &h.GroupName,
		SourceShorthand: &h.SourceShorthand,
		Reason:          reason,
		UpdatedBy:       restoredBy,
	})
}

// ListGroups returns group names with question counts.
func (s *Store) ListGroups(ctx context.Context, source string, includeInactive bool) ([]models.QuestionGroup, error) {
	query := `SELECT group_name, COUNT(*) FROM trigger_questions WHERE 1=1`
	var args []interface{}
	if !includeInactive {
		query += ` AND is_active`
	}
	if source != "" {
		args = append(args, source)
		query += fmt.Sprintf(` AND source_shorthand=$%d`, len(args))
	}
	query += ` GROUP BY group_name ORDER BY group_name`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QuestionGroup
	for rows.Next() {
		var g models.QuestionGroup
		if err := rows.Scan(&g.Name, &g.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// RenameGroup moves every question in old to the new group name.
func (s *Store) RenameGroup(ctx context.Context, oldName, newName, updatedBy string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE trigger_questions SET group_name=$2, updated_at=NOW(), updated_by=$3 WHERE group_name=$1`,
		oldName, newName, nullable(updatedBy))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteGroup deletes a group's questions, or reassigns them to
// "Ungrouped" when deleteQuestions is false.
func (s *Store) DeleteGroup(ctx context.Context, name string, deleteQuestions bool) (int64, error) {
	var res sql.Result
	var err error
	if deleteQuestions {
		res, err = s.DB.ExecContext(ctx, `DELETE FROM trigger_questions WHERE group_name=$1`, name)
	} else {
		res, err = s.DB.ExecContext(ctx, `UPDATE trigger_questions SET group_name='Ungrouped', updated_at=NOW() WHERE group_name=$1`, name)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QuestionStats rolls up registry-wide counts.
func (s *Store) QuestionStats(ctx context.Context) (models.QuestionStats, error) {
	stats := models.QuestionStats{BySource: map[string]int{}, ByGroup: map[string]int{}}

	row := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM trigger_questions`)
	if err := row.Scan(&stats.TotalQuestions, &stats.ActiveQuestions); err != nil {
		return models.QuestionStats{}, err
	}
	stats.InactiveQuestions = stats.TotalQuestions - stats.ActiveQuestions

	rows, err := s.DB.QueryContext(ctx, `
SELECT source_shorthand, COUNT(*) FROM trigger_questions WHERE is_active GROUP BY source_shorthand`)
	if err != nil {
		return models.QuestionStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return models.QuestionStats{}, err
		}
		stats.BySource[src] = n
	}
	if err := rows.Err(); err != nil {
		return models.QuestionStats{}, err
	}

	groupRows, err := s.DB.QueryContext(ctx, `
SELECT group_name, COUNT(*) FROM trigger_questions WHERE is_active GROUP BY group_name`)
	if err != nil {
		return models.QuestionStats{}, err
	}
	defer groupRows.Close()
	for groupRows.Next() {
		var name string
		var n int
		if err := groupRows.Scan(&name, &n); err != nil {
			return models.QuestionStats{}, err
		}
		stats.ByGroup[name] = n
	}
	stats.TotalGroups = len(stats.ByGroup)
	return stats, groupRows.Err()
}

func getQuestionTx(ctx context.Context, tx *sql.Tx, id int64) (models.TriggerQuestion, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM trigger_questions WHERE id=$1 FOR UPDATE`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TriggerQuestion{}, ErrQuestionNotFound
	}
	return q, err
}

func insertHistory(ctx context.Context, tx *sql.Tx, cur models.TriggerQuestion, replacedBy, reason string) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO trigger_questions_history
  (question_id, question_text, group_name, source_shorthand, version, created_at, created_by, replaced_at, replaced_by, reason)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),$8,$9)`,
		cur.ID, cur.QuestionText, cur.GroupName, cur.SourceShorthand, cur.Version,
		cur.CreatedAt, nullable(cur.CreatedBy), nullable(replacedBy), nullable(reason))
	return err
}

func scanQuestion(row rowScanner) (models.TriggerQuestion, error) {
	var q models.TriggerQuestion
	var createdBy, updatedBy sql.NullString
	if err := row.Scan(&q.ID, &q.QuestionText, &q.GroupName, &q.SourceShorthand,
		&q.Version, &q.IsActive, &q.CreatedAt, &createdBy, &q.UpdatedAt, &updatedBy); err != nil {
		return models.TriggerQuestion{}, err
	}
	q.CreatedBy = createdBy.String
	q.UpdatedBy = updatedBy.String
	return q, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
