package recommend_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/cinemood/pkg/model"
	"github.com/m-mizutani/cinemood/pkg/usecase/recommend"
	"github.com/m-mizutani/gt"
)

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []*model.Candidate
	}{
		{
			name:     "refusal prose",
			text:     "I cannot help with that.",
			expected: []*model.Candidate{},
		},
		{
			name:     "empty text",
			text:     "",
			expected: []*model.Candidate{},
		},
		{
			name:     "empty array",
			text:     "[]",
			expected: []*model.Candidate{},
		},
		{
			name: "plain array",
			text: `[{"title":"Dune","year":2021},{"title":"Nope","year":2022}]`,
			expected: []*model.Candidate{
				{Title: "Dune", Year: 2021},
				{Title: "Nope", Year: 2022},
			},
		},
		{
			name: "duplicates are kept",
			text: `[{"title":"Movie A","year":2021},{"title":"Movie A","year":2021}]`,
			expected: []*model.Candidate{
				{Title: "Movie A", Year: 2021},
				{Title: "Movie A", Year: 2021},
			},
		},
		{
			name: "prose and code fence around array",
			text: "Sure! Here are some picks:\n```json\n[\n  {\"title\": \"Top Gun: Maverick\", \"year\": 2022}\n]\n```\nEnjoy!",
			expected: []*model.Candidate{
				{Title: "Top Gun: Maverick", Year: 2022},
			},
		},
		{
			name: "invalid entries are dropped",
			text: `[{"title":"Good","year":2020},{"title":"","year":2020},{"title":"   ","year":2021},{"year":2019},{"title":"No Year"},{"title":"String Year","year":"2020"},{"title":42,"year":2020},"loose",7,null]`,
			expected: []*model.Candidate{
				{Title: "Good", Year: 2020},
			},
		},
		{
			name: "title is trimmed and integral float year kept",
			text: `[{"title":"  Past Lives ","year":2023.0}]`,
			expected: []*model.Candidate{
				{Title: "Past Lives", Year: 2023},
			},
		},
		{
			name: "years outside four digits or fractional are dropped",
			text: `[{"title":"A","year":0},{"title":"B","year":-3},{"title":"C","year":123456},{"title":"D","year":2021.7},{"title":"E","year":999},{"title":"F","year":1000},{"title":"G","year":9999},{"title":"H","year":10000}]`,
			expected: []*model.Candidate{
				{Title: "F", Year: 1000},
				{Title: "G", Year: 9999},
			},
		},
		{
			name: "brackets inside titles",
			text: `Result: [{"title":"[REC]","year":2007},{"title":"Brackets ] inside","year":2015}] done`,
			expected: []*model.Candidate{
				{Title: "[REC]", Year: 2007},
				{Title: "Brackets ] inside", Year: 2015},
			},
		},
		{
			name: "escaped quotes inside titles",
			text: `[{"title":"The \"Quoted\" One","year":2018}]`,
			expected: []*model.Candidate{
				{Title: `The "Quoted" One`, Year: 2018},
			},
		},
		{
			name: "bracketed prose before payload",
			text: `Note [1]: titles may vary. [{"title":"Arrival","year":2016}]`,
			expected: []*model.Candidate{
				{Title: "Arrival", Year: 2016},
			},
		},
		{
			name: "nested arrays in entries",
			text: `[{"title":"Parasite","year":2019,"tags":["thriller","korean"]}]`,
			expected: []*model.Candidate{
				{Title: "Parasite", Year: 2019},
			},
		},
		{
			name:     "malformed json",
			text:     `[{"title":"Broken","year":2020},]`,
			expected: []*model.Candidate{},
		},
		{
			name:     "unterminated array",
			text:     `[{"title":"Cut Off","year":2020}, {"title":"Next"`,
			expected: []*model.Candidate{},
		},
		{
			name:     "object instead of array",
			text:     `{"title":"Single","year":2020}`,
			expected: []*model.Candidate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommend.ParseCandidates(tt.text)
			gt.NotNil(t, got)
			gt.Equal(t, got, tt.expected)
		})
	}
}

func TestParseCandidatesNeverPanics(t *testing.T) {
	inputs := []string{
		"[", "]", "][", "[[[[", `["`, `[{"title":`, "\x00\xff[", `[{"title":"A","year":1e400}]`,
		`"[{\"title\":\"A\",\"year\":2020}]"`,
	}
	for _, in := range inputs {
		gt.NotNil(t, recommend.ParseCandidates(in))
	}
}

func TestParseCandidatesUnbalancedInputIsLinear(t *testing.T) {
	payload := `[{"title":"Arrival","year":2016}]`
	inputs := map[string]string{
		"only open brackets":  strings.Repeat("[", 200000),
		"open brackets first": strings.Repeat("[", 200000) + payload,
		"quote and brackets":  `"` + strings.Repeat("[", 100000),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			got := recommend.ParseCandidates(in)
			gt.NotNil(t, got)
			gt.True(t, time.Since(start) < 2*time.Second)
		})
	}
}
