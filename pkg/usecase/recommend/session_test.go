package recommend_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/gt"
)

func TestSessionID(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	s := recommend.NewSessionForTest(now, 42)

	gt.Equal(t, s.ID, "1741944413000-42")
	gt.Equal(t, s.Seed, int64(42))
	gt.True(t, s.Timestamp.Equal(now))
}

func TestSessionBackfillPages(t *testing.T) {
	t.Run("derives pages from clock and seed", func(t *testing.T) {
		// minute 26, second 53, seed 42, epoch 1741944413, hour 9
		s := recommend.NewSessionForTest(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), 42)
		gt.Equal(t, s.BackfillPages(5, 5), []int{2, 4, 3, 5})
	})

	t.Run("identical pages are queried once", func(t *testing.T) {
		s := recommend.NewSessionForTest(time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC), 0)
		gt.Equal(t, s.BackfillPages(5, 5), []int{1})
	})

	t.Run("count bounds the number of sources", func(t *testing.T) {
		s := recommend.NewSessionForTest(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), 42)
		gt.Equal(t, s.BackfillPages(2, 5), []int{2, 4})
	})

	t.Run("pages stay within span", func(t *testing.T) {
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := range 200 {
			s := recommend.NewSessionForTest(base.Add(time.Duration(i)*37*time.Second), int64(i*7919))
			for _, page := range s.BackfillPages(5, 5) {
				gt.True(t, page >= 1 && page <= 5)
			}
		}
	})
}
