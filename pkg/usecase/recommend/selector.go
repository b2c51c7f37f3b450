package recommend

import (
	"github.com/m-mizutani/cinemood/pkg/model"
)

// Select removes repeated ids, shuffles with the session generator and
// truncates to target. The order differs between sessions.
func Select(movies []*model.Movie, session *Session, target int) []*model.Movie {
	selected := dedupMovies(movies, nil)
	rng := session.newRand(selectorStream)
	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	if target >= 0 && len(selected) > target {
		selected = selected[:target]
	}
	return selected
}

// capCandidates shuffles unique candidates and keeps at most limit of them
func capCandidates(cands []*model.Candidate, session *Session, limit int) []*model.Candidate {
	capped := append([]*model.Candidate(nil), cands...)
	rng := session.newRand(candidateStream)
	rng.Shuffle(len(capped), func(i, j int) {
		capped[i], capped[j] = capped[j], capped[i]
	})

	if len(capped) > limit {
		capped = capped[:limit]
	}
	return capped
}

// CapCandidatesForTest is a test helper that exposes capCandidates
func CapCandidatesForTest(cands []*model.Candidate, session *Session, limit int) []*model.Candidate {
	return capCandidates(cands, session, limit)
}
