package domain

// SearchHit is one ranked document fragment, in the shape the ranked search
// procedure returns it.
type SearchHit struct {
	Source  string   `json:"source"`
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Score   float64  `json:"score"`
	Role    string   `json:"role"`
	Year    *int     `json:"year"`
	DocType string   `json:"doc_type"`
	Tags    []string `json:"tags"`
	// URL is only set by backends that know where a document lives.
	URL string `json:"url,omitempty"`
}

// SourceRef is the citation descriptor shown next to an answer.
type SourceRef struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

type SearchResult struct {
	Query   string      `json:"query"`
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}

type ContextBlock struct {
	Query   string      `json:"query"`
	Text    string      `json:"context_block"`
	Sources []SourceRef `json:"sources"`
}

type ChatAnswer struct {
	Query       string `json:"query"`
	Answer      string `json:"answer"`
	ContextUsed bool   `json:"context_used"`
}

type PersonaReply struct {
	Reply string `json:"reply"`
}
