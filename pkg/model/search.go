package model

// SearchResult is the aggregate response of the search endpoint.
type SearchResult struct {
	Query    string    `json:"query"`
	Products []Product `json:"produtos"`
	Stalls   []Stall   `json:"bancas"`
}
