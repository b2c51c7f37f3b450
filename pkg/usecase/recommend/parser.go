package recommend

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/m-mizutani/cinemood/pkg/model"
)

const (
	// maxArraySpans bounds how many balanced arrays are tried before falling back
	maxArraySpans = 32

	// maxBracketScans bounds the '[' positions scanned for a match, terminated
	// or not, so unbalanced input stays linear in its length
	maxBracketScans = 2 * maxArraySpans

	minCandidateYear = 1000
	maxCandidateYear = 9999
)

// ParseCandidates extracts candidates from generated free text. It is total:
// any input yields a possibly empty slice and never an error. Entries without
// a non-empty title or an integral 4-digit year are dropped. Duplicates are kept.
//
// The first balanced array yielding at least one candidate wins, so bracketed
// prose such as "[1]" ahead of the payload is skipped.
func ParseCandidates(text string) []*model.Candidate {
	for _, span := range balancedArrays(text, maxArraySpans, maxBracketScans) {
		if cands, ok := decodeCandidates(span); ok && len(cands) > 0 {
			return cands
		}
	}

	// Greedy span from the first '[' to the last ']'
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start >= 0 && end > start {
		if cands, ok := decodeCandidates(text[start : end+1]); ok {
			return cands
		}
	}

	return []*model.Candidate{}
}

// balancedArrays returns up to limit bracket balanced substrings in order of
// appearance. Brackets inside JSON string literals are ignored. At most scans
// opening brackets are tried.
func balancedArrays(text string, limit, scans int) []string {
	var spans []string
	for offset := 0; offset < len(text) && len(spans) < limit && scans > 0; scans-- {
		rel := strings.IndexByte(text[offset:], '[')
		if rel < 0 {
			break
		}
		start := offset + rel
		end := matchBracket(text, start)
		if end < 0 {
			// Unterminated from here, a later '[' may still close
			offset = start + 1
			continue
		}
		spans = append(spans, text[start:end+1])
		offset = start + 1
	}
	return spans
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// decodeCandidates reports false when s is not a JSON array
func decodeCandidates(s string) ([]*model.Candidate, bool) {
	var elems []any
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return nil, false
	}

	cands := make([]*model.Candidate, 0, len(elems))
	for _, e := range elems {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		title, ok := obj["title"].(string)
		if !ok {
			continue
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		year, ok := candidateYear(obj["year"])
		if !ok {
			continue
		}
		cands = append(cands, &model.Candidate{Title: title, Year: year})
	}
	return cands, true
}

// candidateYear accepts integral JSON numbers within the 4-digit range
func candidateYear(v any) (int, bool) {
	year, ok := v.(float64)
	if !ok || year != math.Trunc(year) {
		return 0, false
	}
	if year < minCandidateYear || year > maxCandidateYear {
		return 0, false
	}
	return int(year), true
}
