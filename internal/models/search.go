package models

// SearchResult pairs a candidate with its relevance score for one request.
type SearchResult struct {
	Profile   StudentProfile
	Relevance int
}

// SearchHit is a ranked profile in a search response.
type SearchHit struct {
	ProfileView
	Relevance int `json:"relevance"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query   string      `json:"query,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}
