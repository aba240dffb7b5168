package generation

import (
	"encoding/json"
	"testing"

	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		tag   string
		want  Event
	}{
		{
			name:  "completion sentinel",
			frame: `{"action":"sendMessage","body":"Document generated successfully!"}`,
			tag:   entity.ActionSendMessage,
			want:  Event{Kind: EventCompletion},
		},
		{
			name:  "sentinel with another tag is ignored",
			frame: `{"action":"realtimetext","body":"Document generated successfully!"}`,
			tag:   entity.ActionSendMessage,
			want:  Event{},
		},
		{
			name:  "other text body",
			frame: `{"action":"sendMessage","body":"Document generated"}`,
			tag:   entity.ActionSendMessage,
			want:  Event{},
		},
		{
			name:  "progress",
			frame: `{"action":"realtimetext","body":42}`,
			tag:   entity.ActionRealtimeText,
			want:  Event{Kind: EventProgress, Progress: 42},
		},
		{
			name:  "fractional progress is rounded",
			frame: `{"action":"realtimetext","body":41.6}`,
			tag:   entity.ActionRealtimeText,
			want:  Event{Kind: EventProgress, Progress: 42},
		},
		{
			name:  "out of range progress is clamped",
			frame: `{"action":"sendMessage","body":1e9}`,
			tag:   entity.ActionSendMessage,
			want:  Event{Kind: EventProgress, Progress: 100},
		},
		{
			name:  "numeric string is not progress",
			frame: `{"action":"sendMessage","body":"42"}`,
			tag:   entity.ActionSendMessage,
			want:  Event{},
		},
		{
			name:  "null body",
			frame: `{"action":"sendMessage","body":null}`,
			tag:   entity.ActionSendMessage,
			want:  Event{},
		},
		{
			name:  "chunk",
			frame: `{"type":"tier_completion","data":{"content":{"content":"## Market"}}}`,
			tag:   entity.ActionSendMessage,
			want:  Event{Kind: EventChunk, Chunk: "## Market"},
		},
		{
			name:  "chunk without nested content",
			frame: `{"type":"tier_completion","data":{"content":{}}}`,
			tag:   entity.ActionSendMessage,
			want:  Event{},
		},
		{
			name:  "chunk beats status",
			frame: `{"type":"tier_completion","status":"completed","data":{"content":{"content":"x"}}}`,
			tag:   entity.ActionSendMessage,
			want:  Event{Kind: EventChunk, Chunk: "x"},
		},
		{
			name:  "progress beats chunk",
			frame: `{"action":"sendMessage","body":5,"type":"tier_completion","data":{"content":{"content":"x"}}}`,
			tag:   entity.ActionSendMessage,
			want:  Event{Kind: EventProgress, Progress: 5},
		},
		{
			name:  "status completed",
			frame: `{"status":"completed"}`,
			tag:   entity.ActionSendMessage,
			want:  Event{Kind: EventCompletion},
		},
		{
			name:  "status complete",
			frame: `{"status":"complete"}`,
			tag:   entity.ActionRealtimeText,
			want:  Event{Kind: EventCompletion},
		},
		{
			name:  "other status",
			frame: `{"status":"running"}`,
			tag:   entity.ActionRealtimeText,
			want:  Event{},
		},
		{
			name:  "empty frame",
			frame: `{}`,
			tag:   entity.ActionRealtimeText,
			want:  Event{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg entity.InboundMessage
			if err := json.Unmarshal([]byte(tt.frame), &msg); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			assert.Equal(t, tt.want, Classify(&msg, tt.tag))
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Equal(t, EventIgnored, Classify(nil, entity.ActionSendMessage).Kind)
}
