package model

import "github.com/google/uuid"

type RecommendationID string

// NewRecommendationID generates a new unique RecommendationID
func NewRecommendationID() RecommendationID {
	return RecommendationID(uuid.New().String())
}
