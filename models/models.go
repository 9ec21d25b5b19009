package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrChunkNotFound is returned when a chunk is not found
var ErrChunkNotFound = errors.New("chunk not found")

// ChunkType discriminates the two content variants served by the backend.
type ChunkType string

const (
	ChunkTypeEarningsCall    ChunkType = "earnings_call"
	ChunkTypeExpertInterview ChunkType = "expert_interview"
)

// Chunk ID prefixes. Every valid chunk ID starts with one of these.
const (
	PrefixEarningsCall    = "e_"
	PrefixExpertInterview = "k_"
)

// Source shorthands used by the trigger-question registry.
const (
	SourceShorthandAll      = "A"
	SourceShorthandExpert   = "K"
	SourceShorthandEarnings = "E"
)

// ChunkTypeForID maps a prefixed chunk ID to its variant. An ID carrying
// neither recognized prefix is a validation error, not a lookup miss.
func ChunkTypeForID(id string) (ChunkType, error) {
	switch {
	case strings.HasPrefix(id, PrefixEarningsCall):
		return ChunkTypeEarningsCall, nil
	case strings.HasPrefix(id, PrefixExpertInterview):
		return ChunkTypeExpertInterview, nil
	default:
		return "", fmt.Errorf("chunk id %q has no recognized type prefix", id)
	}
}

// ChunkRecord is a unit of source content: an earnings-call excerpt or an
// expert-interview excerpt. Records are replaced wholesale on re-fetch and
// never mutated in place.
type ChunkRecord struct {
	ID          string            `json:"id"`
	Type        ChunkType         `json:"type"`
	CompanyName string            `json:"company_name,omitempty"`
	CallDate    string            `json:"call_date,omitempty"`
	Title       string            `json:"title,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
}

// BulkSummary tallies a bulk fetch. Successful + Failed == TotalRequested
// once every distinct requested ID is accounted for.
type BulkSummary struct {
	TotalRequested int `json:"total_requested"`
	Successful     int `json:"successful"`
	Failed         int `json:"failed"`
}

// BulkResult is the response envelope of POST /api/chunks/bulk.
type BulkResult struct {
	Chunks  map[string]ChunkRecord `json:"chunks"`
	Errors  map[string]string      `json:"errors"`
	Summary BulkSummary            `json:"summary"`
}

// NewBulkResult returns an empty envelope with both maps allocated so an
// empty request serialises as {} rather than null.
func NewBulkResult() BulkResult {
	return BulkResult{Chunks: map[string]ChunkRecord{}, Errors: map[string]string{}}
}

// TriggerQuestion is an active, versioned prompt trigger question.
type TriggerQuestion struct {
	ID              int64     `json:"id"`
	QuestionText    string    `json:"question_text"`
	GroupName       string    `json:"group_name"`
	SourceShorthand string    `json:"source_shorthand"`
	Version         int       `json:"version"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedBy       string    `json:"updated_by,omitempty"`
}

// TriggerQuestionHistory is a superseded version of a trigger question,
// kept for audit and restoration.
type TriggerQuestionHistory struct {
	ID              int64     `json:"id"`
	QuestionID      int64     `json:"question_id"`
	QuestionText    string    `json:"question_text"`
	GroupName       string    `json:"group_name"`
	SourceShorthand string    `json:"source_shorthand"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by,omitempty"`
	ReplacedAt      time.Time `json:"replaced_at"`
	ReplacedBy      string    `json:"replaced_by,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// QuestionGroup summarises a group of trigger questions.
type QuestionGroup struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

// QuestionStats is the registry-wide rollup.
type QuestionStats struct {
	TotalQuestions    int            `json:"total_questions"`
	ActiveQuestions   int            `json:"active_questions"`
	InactiveQuestions int            `json:"inactive_questions"`
	TotalGroups       int            `json:"total_groups"`
	BySource          map[string]int `json:"questions_by_source"`
	ByGroup           map[string]int `json:"questions_by_group"`
}

// Watchlist groups companies and pinned chunks for an analyst.
type Watchlist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Companies  []string  `json:"companies"`
	ChunkIDs   []string  `json:"chunk_ids"`
	DigestCron string    `json:"digest_cron,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidSourceShorthand reports whether s is one of A, K, E.
func ValidSourceShorthand(s string) bool {
	switch s {
	case SourceShorthandAll, SourceShorthandExpert, SourceShorthandEarnings:
		return true
	}
	return false
}
