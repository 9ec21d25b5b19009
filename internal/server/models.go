package server

import "github.com/fintrace/fintrace/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// BulkChunksRequest asks for several chunks in one round trip.
type BulkChunksRequest struct {
	ChunkReferences []string `json:"chunk_references"`
}

// SearchRequest queries the in-memory chunk index.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchHit is one scored result of a chunk search.
type SearchHit struct {
	Chunk models.ChunkRecord `json:"chunk"`
	Score float64            `json:"score"`
}

// ResolveRequest carries a raw research answer to rewrite and hydrate.
type ResolveRequest struct {
	AnswerText string `json:"answer_text"`
	Hydrate    bool   `json:"hydrate"`
}

// ReferenceView is one numbered source extracted from an answer.
type ReferenceView struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	EntryID     string `json:"entry_id"`
	DisplayText string `json:"display_text"`
}

// ResolveResponse returns the rewritten answer, its numbered references
// and, when hydration was requested, the chunk payloads behind them.
type ResolveResponse struct {
	AnswerText string                        `json:"answer_text"`
	References []ReferenceView               `json:"references"`
	Chunks     map[string]models.ChunkRecord `json:"chunks,omitempty"`
	Errors     map[string]string             `json:"errors,omitempty"`
}

// CreateQuestionRequest adds a trigger question to the registry.
type CreateQuestionRequest struct {
	QuestionText    string `json:"question_text"`
	GroupName       string `json:"group_name"`
	SourceShorthand string `json:"source_shorthand"`
	CreatedBy       string `json:"created_by"`
}

// UpdateQuestionRequest edits a trigger question; omitted fields keep
// their stored values.
type UpdateQuestionRequest struct {
	QuestionText    *string `json:"question_text"`
	GroupName       *string `json:"group_name"`
	SourceShorthand *string `json:"source_shorthand"`
	Reason          string  `json:"reason"`
	UpdatedBy       string  `json:"updated_by"`
}

// SetActiveRequest toggles a question on or off.
type SetActiveRequest struct {
	IsActive  bool   `json:"is_active"`
	UpdatedBy string `json:"updated_by"`
	Reason    string `json:"reason"`
}

// RestoreQuestionRequest reverts a question to a historical version.
type RestoreQuestionRequest struct {
	HistoryID  int64  `json:"history_id"`
	RestoredBy string `json:"restored_by"`
	Reason     string `json:"reason"`
}

// RenameGroupRequest renames a question group.
type RenameGroupRequest struct {
	NewName   string `json:"new_name"`
	UpdatedBy string `json:"updated_by"`
}

// AffectedResponse reports how many rows a group operation touched.
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

// WatchlistRequest creates or replaces a watchlist.
type WatchlistRequest struct {
	Name       string   `json:"name"`
	Companies  []string `json:"companies"`
	DigestCron string   `json:"digest_cron"`
}

// IngestFilingRequest ingests one filing or transcript, either from a
// URL or from HTML supplied inline.
type IngestFilingRequest struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	ChunkType   string `json:"chunk_type"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	CallDate    string `json:"call_date"`
}

// IngestFilingResponse summarises an ingest run.
type IngestFilingResponse struct {
	Title    string   `json:"title"`
	ChunkIDs []string `json:"chunk_ids"`
}
