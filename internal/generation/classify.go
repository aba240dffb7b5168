package generation

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/futig/docgen-gateway/internal/entity"
)

type EventKind int

const (
	EventIgnored EventKind = iota
	EventCompletion
	EventProgress
	EventChunk
)

func (k EventKind) String() string {
	switch k {
	case EventCompletion:
		return "completion"
	case EventProgress:
		return "progress"
	case EventChunk:
		return "chunk"
	default:
		return "ignored"
	}
}

// Event is a classified inbound frame
type Event struct {
	Kind     EventKind
	Progress int
	Chunk    string
}

// Classify maps a frame to the first matching event: completion sentinel, numeric progress,
// content chunk, completion status. Frames matching none of them are ignored.
func Classify(msg *entity.InboundMessage, actionTag string) Event {
	if msg == nil {
		return Event{}
	}

	if msg.Action == actionTag && len(msg.Body) > 0 {
		body := bytes.TrimSpace(msg.Body)

		var text string
		if err := json.Unmarshal(body, &text); err == nil && text == entity.CompletionSentinel {
			return Event{Kind: EventCompletion}
		}

		if isJSONNumber(body) {
			var n float64
			if err := json.Unmarshal(body, &n); err == nil {
				return Event{Kind: EventProgress, Progress: int(math.Round(math.Max(0, math.Min(100, n))))}
			}
		}
	}

	if msg.Type == entity.MessageTypeTierCompletion && len(msg.Data) > 0 {
		var data entity.ChunkData
		if err := json.Unmarshal(msg.Data, &data); err == nil &&
			data.Content != nil && data.Content.Content != nil && *data.Content.Content != "" {
			return Event{Kind: EventChunk, Chunk: *data.Content.Content}
		}
	}

	if msg.Status == "completed" || msg.Status == "complete" {
		return Event{Kind: EventCompletion}
	}

	return Event{}
}

func isJSONNumber(b []byte) bool {
	return len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9'))
}
