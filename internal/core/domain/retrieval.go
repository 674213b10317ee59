package domain

// Passage is one retrieved chunk with its relevance score.
type Passage struct {
	ChunkID    string
	DocumentID string
	Seq        int
	Content    string
	Score      float64
}

// RetrievalResult is the ranked outcome of one retrieval request.
// It is ephemeral and never persisted.
type RetrievalResult struct {
	Query        string
	CollectionID string

	// Passages are ordered by descending score; ties keep the
	// index-query order.
	Passages []Passage
}

// RetrieveOptions controls ranking and post-filtering.
type RetrieveOptions struct {
	// TopK is the maximum number of passages returned.
	TopK int

	// MinScore drops candidates scoring below it when set. Nil means
	// no threshold; a zero or negative threshold is meaningful under
	// metrics whose scores can go negative.
	MinScore *float64

	// OverfetchFactor multiplies TopK for the index query so that
	// post-filtering still fills the result. Values < 1 mean default.
	OverfetchFactor int

	// MaxChunksPerDocument caps how many passages a single document
	// may contribute. 0 means unlimited.
	MaxChunksPerDocument int
}

// DefaultOverfetchFactor is used when RetrieveOptions leaves the
// factor unset.
const DefaultOverfetchFactor = 2

// Answer is a generated response grounded in retrieved passages.
type Answer struct {
	Text string

	// Sources are the distinct filenames of the documents the grounding
	// passages came from, in first-use order.
	Sources []string

	// Passages are the grounding passages handed to the generator.
	Passages []Passage
}

// GeneratedQuestion is one item of generated course material.
type GeneratedQuestion struct {
	ID            string   `json:"id,omitempty"`
	Number        int      `json:"question_number"`
	Question      string   `json:"question"`
	Type          string   `json:"type,omitempty"`
	Marks         int      `json:"marks,omitempty"`
	MarkingScheme string   `json:"marking_scheme,omitempty"`
	SampleAnswer  string   `json:"sample_answer,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectOption string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}
