package domain

// ChatRequest is the inbound chat body
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the chat response body; Reply on success, Error and Detail on failure
type ChatReply struct {
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// GenerationPart is a single text part of generation content
type GenerationPart struct {
	Text string `json:"text"`
}

// GenerationContent is a content block made of parts
type GenerationContent struct {
	Parts []GenerationPart `json:"parts"`
}

// GenerationRequest is the outbound generateContent payload
type GenerationRequest struct {
	Contents []GenerationContent `json:"contents"`
}

// GenerationCandidate is one candidate of a generateContent response
type GenerationCandidate struct {
	Content *GenerationContent `json:"content,omitempty"`
}

// GenerationEnvelope is the generateContent response shape
type GenerationEnvelope struct {
	Candidates []GenerationCandidate `json:"candidates"`
}

// NewGenerationRequest wraps a message as a single text part in a single content block
func NewGenerationRequest(message string) *GenerationRequest {
	return &GenerationRequest{
		Contents: []GenerationContent{
			{Parts: []GenerationPart{{Text: message}}},
		},
	}
}

// ReplyText returns the first candidate's first part text, or "" when any level is missing
func (e *GenerationEnvelope) ReplyText() string {
	if e == nil || len(e.Candidates) == 0 {
		return ""
	}
	content := e.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return ""
	}
	return content.Parts[0].Text
}
