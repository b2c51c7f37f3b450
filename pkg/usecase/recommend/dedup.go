package recommend

import (
	"strings"

	"github.com/m-mizutani/cinemood/pkg/model"
)

// normalizeTitle is the textual identity of a candidate
func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// DedupCandidates removes candidates whose normalized title was already seen.
// The first occurrence wins and order is preserved.
func DedupCandidates(cands []*model.Candidate) []*model.Candidate {
	seen := make(map[string]struct{}, len(cands))
	unique := make([]*model.Candidate, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		key := normalizeTitle(c.Title)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// idSet is the canonical identity set of movies
type idSet map[int64]struct{}

func historyIDs(history []*model.HistoryItem) idSet {
	ids := make(idSet, len(history))
	for _, h := range history {
		if h != nil && h.ID != 0 {
			ids[h.ID] = struct{}{}
		}
	}
	return ids
}

func (s idSet) has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) add(id int64) {
	s[id] = struct{}{}
}

// DedupResults drops movies already in history and collapses duplicate ids
// to their first occurrence.
func DedupResults(movies []*model.Movie, history []*model.HistoryItem) []*model.Movie {
	return dedupMovies(movies, historyIDs(history))
}

// dedupMovies keeps movies whose id is neither excluded nor repeated
func dedupMovies(movies []*model.Movie, exclude idSet) []*model.Movie {
	seen := make(idSet, len(movies))
	unique := make([]*model.Movie, 0, len(movies))
	for _, m := range movies {
		if m == nil || exclude.has(m.ID) || seen.has(m.ID) {
			continue
		}
		seen.add(m.ID)
		unique = append(unique, m)
	}
	return unique
}
