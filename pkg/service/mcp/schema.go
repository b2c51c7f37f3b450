package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/cinemood/pkg/model"
)

// historySchema describes one watchlist entry passed inline by a client
var historySchema = &jsonschema.Schema{
	Type:        "object",
	Description: "A movie the user already watched or saved",
	Properties: map[string]*jsonschema.Schema{
		"id":                {Type: "integer", Description: "TMDB movie id, excluded from results"},
		"title":             {Type: "string", Description: "Movie title"},
		"year":              {Type: "integer", Description: "Release year"},
		"original_language": {Type: "string", Description: "ISO 639-1 language code"},
		"genre_ids": {
			Type:        "array",
			Description: "TMDB genre ids",
			Items:       &jsonschema.Schema{Type: "integer"},
		},
	},
	Required: []string{"title"},
}

func moodEnum() []any {
	moods := make([]any, 0, len(model.AllMoods))
	for _, m := range model.AllMoods {
		moods = append(moods, string(m))
	}
	return moods
}

func recommendSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"mood": {
				Type:        "string",
				Description: "Current mood of the user",
				Enum:        moodEnum(),
			},
			"count": {
				Type:        "integer",
				Description: "Maximum number of movies to return. 0 uses the server default.",
			},
			"user_id": {
				Type:        "string",
				Description: "Load the watchlist of this user from the history store",
			},
			"history": {
				Type:        "array",
				Description: "Watchlist entries. Used when user_id is not given.",
				Items:       historySchema,
			},
		},
		Required: []string{"mood"},
	}
}

func suggestSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"count": {
				Type:        "integer",
				Description: "Maximum number of movies to return. 0 uses the server default.",
			},
			"user_id": {
				Type:        "string",
				Description: "Load the watchlist of this user from the history store",
			},
			"history": {
				Type:        "array",
				Description: "Watchlist entries. Used when user_id is not given.",
				Items:       historySchema,
			},
		},
	}
}
