package model

import (
	_ "embed"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidMood = goerr.New("invalid mood")
)

type Mood string

const (
	MoodHappy      Mood = "happy"
	MoodRomantic   Mood = "romantic"
	MoodExciting   Mood = "exciting"
	MoodRelaxed    Mood = "relaxed"
	MoodNostalgic  Mood = "nostalgic"
	MoodSad        Mood = "sad"
	MoodMotivated  Mood = "motivated"
	MoodMysterious Mood = "mysterious"
)

// AllMoods lists every supported mood in display order
var AllMoods = []Mood{
	MoodHappy,
	MoodRomantic,
	MoodExciting,
	MoodRelaxed,
	MoodNostalgic,
	MoodSad,
	MoodMotivated,
	MoodMysterious,
}

// MoodInfo describes a mood for prompts and for display
type MoodInfo struct {
	Mood        Mood   `yaml:"id"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
	Gloss       string `yaml:"gloss"`
}

//go:embed moods.yaml
var moodCatalogRaw []byte

var moodCatalog = mustLoadMoodCatalog(moodCatalogRaw)

func mustLoadMoodCatalog(raw []byte) map[Mood]MoodInfo {
	var entries []MoodInfo
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		panic(goerr.Wrap(err, "failed to parse mood catalog"))
	}

	catalog := make(map[Mood]MoodInfo, len(entries))
	for _, e := range entries {
		catalog[e.Mood] = e
	}
	return catalog
}

// Validate checks if the mood is one of the supported moods
func (m Mood) Validate() error {
	if !slices.Contains(AllMoods, m) {
		return goerr.Wrap(ErrInvalidMood, "unsupported mood", goerr.V("mood", m))
	}
	if _, ok := moodCatalog[m]; !ok {
		return goerr.Wrap(ErrInvalidMood, "mood has no catalog entry", goerr.V("mood", m))
	}
	return nil
}

// Info returns the catalog entry of the mood. Unknown moods get an entry
// with only the Mood field set.
func (m Mood) Info() MoodInfo {
	if info, ok := moodCatalog[m]; ok {
		return info
	}
	return MoodInfo{Mood: m}
}

// Gloss returns the short natural-language description used in prompts
func (m Mood) Gloss() string {
	return m.Info().Gloss
}

// Moods returns catalog entries of all supported moods in display order
func Moods() []MoodInfo {
	infos := make([]MoodInfo, 0, len(AllMoods))
	for _, m := range AllMoods {
		infos = append(infos, m.Info())
	}
	return infos
}
