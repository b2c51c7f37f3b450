package recommend

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackfillPages is the number of time and seed sources that derive pages
const maxBackfillPages = 5

const seedRange = 100000

// stream salts keep the candidate cap shuffle and the final shuffle independent
const (
	candidateStream uint64 = 0x9e3779b97f4a7c15
	selectorStream  uint64 = 0xc2b2ae3d27d4eb4f
)

// Session identifies one invocation. It is threaded unmodified through every
// prompt variant and every backfill query.
type Session struct {
	ID        string
	Seed      int64
	Timestamp time.Time
}

func newSession(now time.Time, seed int64) *Session {
	return &Session{
		ID:        fmt.Sprintf("%d-%d", now.UnixMilli(), seed),
		Seed:      seed,
		Timestamp: now,
	}
}

func defaultSeed() int64 {
	return rand.Int64N(seedRange)
}

// BackfillPages derives discovery page numbers in [1, span] from the session
// clock and seed. Repeated page numbers are returned once.
func (s *Session) BackfillPages(count, span int) []int {
	if span < 1 {
		span = 1
	}
	sources := []int64{
		int64(s.Timestamp.Minute()),
		int64(s.Timestamp.Second()),
		s.Seed,
		s.Timestamp.Unix(),
		int64(s.Timestamp.Hour()),
	}
	if count > len(sources) {
		count = len(sources)
	}

	pages := make([]int, 0, count)
	seen := make(map[int]struct{}, count)
	for _, v := range sources[:count] {
		if v < 0 {
			v = -v
		}
		page := 1 + int(v%int64(span))
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		pages = append(pages, page)
	}
	return pages
}

// newRand returns a generator keyed by the session seed and clock
func (s *Session) newRand(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(s.Seed)^stream, uint64(s.Timestamp.UnixMilli())))
}

// timeLabel renders the session clock for prompts
func (s *Session) timeLabel() string {
	return s.Timestamp.Format("02/01/2006, 15:04:05")
}

// NewSessionForTest is a test helper that exposes newSession
func NewSessionForTest(now time.Time, seed int64) *Session {
	return newSession(now, seed)
}
