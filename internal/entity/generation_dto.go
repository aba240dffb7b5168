package entity

import "mime/multipart"

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type UpdateAnswerRequest struct {
	Answer string `json:"answer"`
}

// MoveCursorRequest moves the question cursor: either to a question id or one step forward
type MoveCursorRequest struct {
	QuestionID *int `json:"question_id,omitempty"`
	Advance    bool `json:"advance,omitempty"`
}

type SetViewRequest struct {
	View View `json:"view"`
}

type UploadSourceRequest struct {
	Files []*multipart.FileHeader
}

// StartGenerationRequest is sent to the backend to open a generation job
type StartGenerationRequest struct {
	DocumentType DocumentType `json:"document_type"`
	ProjectID    string       `json:"project_id,omitempty"`
	UserID       string       `json:"user_id"`
	Answers      []Question   `json:"answers"`
}

type LoginRequest struct {
	CallbackURL    string `json:"callback_url,omitempty"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
}

type SwitchProjectRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

type WorkspaceDTO struct {
	Profile  *UserProfile                         `json:"profile"`
	Sessions map[DocumentType]*GenerationSession `json:"sessions"`
}

// FileData is an uploaded source file read into memory
type FileData struct {
	Filename    string
	ContentType string
	Content     []byte
}

// QuestionsRequest asks the backend for the question set of a document type
type QuestionsRequest struct {
	DocumentType DocumentType `json:"document_type"`
	ProjectID    string       `json:"project_id,omitempty"`
	UserID       string       `json:"user_id"`
}

type QuestionsResponse struct {
	Questions []Question `json:"questions"`
}

// UploadResult is the backend's answer to a source upload
type UploadResult struct {
	DocumentID string `json:"document_id"`
}
