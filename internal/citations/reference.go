package citations

// SourceReference is a single resolved citation inside a generated answer.
// ID is the 1-based sequence number assigned in first-seen order; identity
// is the underlying raw key (chunk ID or filename), so re-parsing the same
// text reassigns the same numbers deterministically.
type SourceReference struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	EntryID     string `json:"entry_id"`
	DisplayText string `json:"display_text"`
}

// key returns the canonical identity of the reference. Chunk references key
// on the bare chunk ID, file references on the basename.
func (r SourceReference) key() string {
	if r.EntryID != "" && "chunk-"+r.EntryID == r.Filename {
		return r.EntryID
	}
	return r.Filename
}
