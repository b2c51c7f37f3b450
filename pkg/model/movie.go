package model

// Candidate is an unresolved suggestion from the generative service. It has no
// catalog identity yet.
type Candidate struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// Movie is a canonical catalog record. Two movies are the same entity iff
// their IDs match, regardless of title.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title,omitempty"`
	ReleaseDate   string  `json:"release_date,omitempty"`
	Rating        float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
	PosterPath    string  `json:"poster_path,omitempty"`
	Language      string  `json:"original_language,omitempty"`
	GenreIDs      []int64 `json:"genre_ids,omitempty"`
	Overview      string  `json:"overview,omitempty"`
}

// Year returns the release year, or 0 if unknown.
func (m *Movie) Year() int {
	return YearFromDate(m.ReleaseDate)
}
