package entity

// CallbackEventType represents the type of callback event
type CallbackEventType string

const (
	CallbackEventTypeGenerationCompleted CallbackEventType = "generationCompleted"
	CallbackEventTypeGenerationFailed    CallbackEventType = "generationFailed"
)

// CallbackEvent represents a callback event
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// GenerationEvent is published by a generation bridge when a job finishes or fails for good
type GenerationEvent struct {
	Type          CallbackEventType `json:"-"`
	UserID        string            `json:"user_id"`
	DocumentType  DocumentType      `json:"document_type"`
	DocumentID    string            `json:"document_id,omitempty"`
	ConnectionURL string            `json:"connection_url,omitempty"`
	ContentLength int               `json:"content_length,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}
