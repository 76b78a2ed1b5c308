package models

// Result is one web search hit. RawContent is only populated when the
// provider supports full-text retrieval and the caller asked for it.
type Result struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	RawContent string `json:"raw_content,omitempty"`
	Query      string `json:"query,omitempty"`
}
