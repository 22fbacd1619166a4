package rag

// Chunk is one slice of the source document, the unit of retrieval.
// Position is the chunk's order in the source and breaks similarity ties.
type Chunk struct {
	ID         string  `json:"id"`
	Position   int     `json:"position"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity,omitempty"`
}

// Answer carries the intermediate products of one pipeline run.
// Draft is internal and never returned to end users.
type Answer struct {
	Query        string
	Chunks       []Chunk
	IndexContext string
	WebContext   string
	Draft        string
	Final        string
}

// ChatRequest
// Payload of POST /api/chat and POST /api/chat/text.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse
// Success payload of POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

const (
	// NoIndexContext replaces the index context when retrieval returns nothing.
	NoIndexContext = "No relevant context in database."
	// NoWebContext replaces the web context when search fails or is empty.
	NoWebContext = "No relevant context found."
)
