package recommend_test

import (
	"testing"

	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/gt"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := recommend.DefaultConfig()
	gt.NoError(t, cfg.Validate())
	gt.Equal(t, cfg.TargetCount, 30)
	gt.Equal(t, cfg.CandidatesPerCall, 8)
	gt.Equal(t, cfg.MaxCandidates, 40)
	gt.Equal(t, cfg.BackfillPages, 5)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*recommend.Config)
	}{
		{"zero target", func(c *recommend.Config) { c.TargetCount = 0 }},
		{"max below target", func(c *recommend.Config) { c.MaxTargetCount = 10 }},
		{"suggest above max", func(c *recommend.Config) { c.SuggestCount = 1000 }},
		{"zero candidates per call", func(c *recommend.Config) { c.CandidatesPerCall = 0 }},
		{"zero max candidates", func(c *recommend.Config) { c.MaxCandidates = 0 }},
		{"too many backfill pages", func(c *recommend.Config) { c.BackfillPages = 6 }},
		{"zero page span", func(c *recommend.Config) { c.PageSpan = 0 }},
		{"negative vote count", func(c *recommend.Config) { c.MinVoteCount = -1 }},
		{"bad release date", func(c *recommend.Config) { c.MinReleaseDate = "2015/01/01" }},
		{"empty default language", func(c *recommend.Config) { c.DefaultLanguage = "" }},
		{"zero concurrency", func(c *recommend.Config) { c.Concurrency = 0 }},
		{"zero outbound", func(c *recommend.Config) { c.MaxOutbound = 0 }},
		{"zero output tokens", func(c *recommend.Config) { c.Generation.MaxOutputTokens = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := recommend.DefaultConfig()
			tt.modify(&cfg)
			gt.Error(t, cfg.Validate())
		})
	}
}
