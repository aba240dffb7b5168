package entity

import (
	"fmt"
	"time"
)

// DocumentType identifies one generation workflow
type DocumentType string

const (
	DocumentTypeGTM      DocumentType = "gtm"      // Go-to-market strategy
	DocumentTypeICP      DocumentType = "icp"      // Ideal customer profile
	DocumentTypeKMF      DocumentType = "kmf"      // Key messaging framework
	DocumentTypeSR       DocumentType = "sr"       // Strategic roadmap
	DocumentTypeBS       DocumentType = "bs"       // Brand strategy
	DocumentTypeMR       DocumentType = "mr"       // Market research
	DocumentTypeLinkedIn DocumentType = "linkedin" // LinkedIn post schedule
)

// DocumentTypes lists every supported document type in a stable order
var DocumentTypes = []DocumentType{
	DocumentTypeGTM,
	DocumentTypeICP,
	DocumentTypeKMF,
	DocumentTypeSR,
	DocumentTypeBS,
	DocumentTypeMR,
	DocumentTypeLinkedIn,
}

var documentTitles = map[DocumentType]string{
	DocumentTypeGTM:      "Go-to-market strategy",
	DocumentTypeICP:      "Ideal customer profile",
	DocumentTypeKMF:      "Key messaging framework",
	DocumentTypeSR:       "Strategic roadmap",
	DocumentTypeBS:       "Brand strategy",
	DocumentTypeMR:       "Market research",
	DocumentTypeLinkedIn: "LinkedIn post schedule",
}

// Title is the human readable name of the document type
func (dt DocumentType) Title() string {
	if title, ok := documentTitles[dt]; ok {
		return title
	}
	return string(dt)
}

func (dt DocumentType) Validate() error {
	for _, known := range DocumentTypes {
		if dt == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownDocumentType, dt)
}

// View governs which part of the generation workflow is shown
type View string

const (
	ViewInitial   View = "initial"
	ViewUpload    View = "upload"
	ViewQuestions View = "questions"
	ViewPreview   View = "preview"
)

type Question struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type PreviewPayload struct {
	Base64Content string `json:"base64_content"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
}

// GenerationSession is a point-in-time copy of one document type's session state
type GenerationSession struct {
	DocumentType       DocumentType    `json:"document_type"`
	ProjectID          string          `json:"project_id,omitempty"`
	DocumentID         string          `json:"document_id,omitempty"`
	View               View            `json:"view"`
	Questions          []Question      `json:"questions"`
	CurrentIndex       int             `json:"current_index"`
	AnsweredIDs        []int           `json:"answered_ids"`
	ConnectionURL      string          `json:"connection_url,omitempty"`
	IsGenerating       bool            `json:"is_generating"`
	Progress           int             `json:"progress"`
	AccumulatedContent string          `json:"accumulated_content"`
	DisplayedContent   string          `json:"displayed_content"`
	CompletionReceived bool            `json:"completion_received"`
	PreviewPayload     *PreviewPayload `json:"preview_payload,omitempty"`
	Failure            string          `json:"failure,omitempty"`
}

// GenerationJob is what the backend returns when a generation job is started
type GenerationJob struct {
	DocumentID    string `json:"document_id"`
	ConnectionURL string `json:"connection_url"`
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserProfile is the persisted per-user record consulted for routing and onboarding
type UserProfile struct {
	UserID         string            `json:"user_id"`
	CurrentProject *Project          `json:"current_project,omitempty"`
	CallbackURL    string            `json:"callback_url,omitempty"`
	TelegramChatID int64             `json:"telegram_chat_id,omitempty"`
	Flags          map[string]string `json:"flags,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
