package citations

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Recognized file extensions for file-based citation markers. Extension-less
// parenthesized text is ordinary prose, not a citation.
var recognizedExtensions = map[string]struct{}{
	".jsonl": {}, ".json": {}, ".pdf": {}, ".txt": {}, ".csv": {},
	".md": {}, ".html": {}, ".htm": {}, ".doc": {}, ".docx": {},
	".xls": {}, ".xlsx": {},
}

const fileSampleSuffix = "_sample_1"

var (
	// Source=<path>; the path runs to the next comma or newline.
	sourcePattern = regexp.MustCompile(`(?i)\bSource\s*=\s*([^,\n]+)`)

	// (<filename>) with a recognized extension.
	parenFilePattern = regexp.MustCompile(`(?i)\(\s*([^()\n]+?\.[A-Za-z0-9]{1,5})\s*\)`)

	// Chunk=<id> / Chunks=<id1,id2,...> in (), [] or bare, case-insensitive,
	// with : or = as separator. Bracketed alternatives come first so the
	// brackets are part of the claimed span.
	// Every chunk ID carries at least one digit; this keeps prose after a
	// dangling "Chunk=" from being swallowed as an ID.
	chunkID      = `[A-Za-z_]*[0-9][A-Za-z0-9_]*`
	chunkIDs     = chunkID + `(?:\s*,\s*` + chunkID + `)*`
	chunkPattern = regexp.MustCompile(`(?i)(?:\(\s*Chunks?\s*[:=]\s*(` + chunkIDs + `)\s*\)|\[\s*Chunks?\s*[:=]\s*(` + chunkIDs + `)\s*\]|\bChunks?\s*[:=]\s*(` + chunkIDs + `))`)
)

// refData is one underlying reference produced by a matcher. A single span
// (a Chunks= list) can carry several.
type refData struct {
	key         string
	filename    string
	entryID     string
	displayText string
}

// span is a claimed region of the input text together with the references
// it denotes, in listed order.
type span struct {
	start, end int
	refs       []refData
}

// Parse extracts the ordered, deduplicated citation references from an
// answer text. It is pure and idempotent; empty input yields nil.
func Parse(text string) []SourceReference {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	spans := matchSpans(text)

	var out []SourceReference
	seen := map[string]int{}
	for _, sp := range spans {
		for _, rd := range sp.refs {
			if _, ok := seen[rd.key]; ok {
				continue
			}
			ref := SourceReference{
				ID:          len(out) + 1,
				Filename:    rd.filename,
				EntryID:     rd.entryID,
				DisplayText: rd.displayText,
			}
			seen[rd.key] = ref.ID
			out = append(out, ref)
		}
	}
	return out
}

// matchSpans runs the matchers in priority order, drops matches overlapping
// an already-claimed span, and returns the survivors in text order.
func matchSpans(text string) []span {
	var claimed []span
	for _, m := range []func(string) []span{matchSourcePaths, matchParenFiles, matchChunkMarkers} {
		for _, sp := range m(text) {
			if overlapsAny(sp, claimed) {
				continue
			}
			claimed = append(claimed, sp)
		}
	}
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })
	return claimed
}

func overlapsAny(sp span, claimed []span) bool {
	for _, c := range claimed {
		if sp.start < c.end && c.start < sp.end {
			return true
		}
	}
	return false
}

// matchSourcePaths handles Source=<path> markers.
func matchSourcePaths(text string) []span {
	var out []span
	for _, idx := range sourcePattern.FindAllStringSubmatchIndex(text, -1) {
		rawStart, rawEnd := idx[2], idx[3]
		p := text[rawStart:rawEnd]
		trimmed := strings.TrimRight(strings.TrimSpace(p), ")].;:'\"")
		if trimmed == "" {
			continue
		}
		rd, ok := fileRef(trimmed)
		if !ok {
			continue
		}
		end := rawStart + strings.Index(p, trimmed) + len(trimmed)
		out = append(out, span{start: idx[0], end: end, refs: []refData{rd}})
	}
	return out
}

// matchParenFiles handles (<filename>) markers.
func matchParenFiles(text string) []span {
	var out []span
	for _, idx := range parenFilePattern.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[idx[2]:idx[3]])
		rd, ok := fileRef(name)
		if !ok {
			continue
		}
		out = append(out, span{start: idx[0], end: idx[1], refs: []refData{rd}})
	}
	return out
}

// matchChunkMarkers handles Chunk=/Chunks= markers in all bracket styles.
func matchChunkMarkers(text string) []span {
	var out []span
	for _, idx := range chunkPattern.FindAllStringSubmatchIndex(text, -1) {
		var list string
		for g := 1; g <= 3; g++ {
			if idx[2*g] >= 0 {
				list = text[idx[2*g]:idx[2*g+1]]
				break
			}
		}
		if list == "" {
			continue
		}
		sp := span{start: idx[0], end: idx[1]}
		for _, id := range strings.Split(list, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			sp.refs = append(sp.refs, refData{
				key:         id,
				filename:    "chunk-" + id,
				entryID:     id,
				displayText: "Chunk " + id,
			})
		}
		if len(sp.refs) > 0 {
			out = append(out, sp)
		}
	}
	return out
}

// fileRef canonicalises a file path into a reference, rejecting paths
// without a recognized extension.
func fileRef(p string) (refData, bool) {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	if _, ok := recognizedExtensions[ext]; !ok {
		return refData{}, false
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	return refData{
		key:         base,
		filename:    base,
		entryID:     stem + fileSampleSuffix,
		displayText: base,
	}, true
}
