package entity

import "encoding/json"

// CompletionSentinel is the body the generation backend sends when a document is finished.
// Completion detection depends on this exact wording.
const CompletionSentinel = "Document generated successfully!"

// Action tags used by the generation backend
const (
	ActionSendMessage  = "sendMessage"
	ActionRealtimeText = "realtimetext"
)

// MessageTypeTierCompletion marks a frame that carries a content chunk
const MessageTypeTierCompletion = "tier_completion"

// InboundMessage is a frame received from a generation job over the real-time connection.
// No field is mandatory; unrecognized shapes are ignored by the classifier.
type InboundMessage struct {
	Action string          `json:"action,omitempty"`
	Type   string          `json:"type,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
	Status string          `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ChunkData is the nested payload of a content chunk frame
type ChunkData struct {
	Content *struct {
		Content *string `json:"content"`
	} `json:"content"`
}
