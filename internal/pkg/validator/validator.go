package validator

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
)

// maxAnswerLength bounds a single answer
const maxAnswerLength = 10000

// Validator validates API requests and file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateLogin(req *entity.LoginRequest) error {
	if req.TelegramChatID < 0 {
		return fmt.Errorf("%w: telegram_chat_id", entity.ErrInvalidParameter)
	}

	if req.CallbackURL == "" {
		return nil
	}

	u, err := url.Parse(req.CallbackURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: callback_url must be an absolute http(s) url", entity.ErrInvalidParameter)
	}

	return nil
}

func (v *Validator) ValidateSwitchProject(req *entity.SwitchProjectRequest) error {
	if strings.TrimSpace(req.ProjectID) == "" {
		return fmt.Errorf("%w: project_id", entity.ErrMissingField)
	}
	return nil
}

func (v *Validator) ValidateAnswer(req *entity.UpdateAnswerRequest) error {
	if len(req.Answer) > maxAnswerLength {
		return fmt.Errorf("%w: answer is longer than %d bytes", entity.ErrInvalidParameter, maxAnswerLength)
	}
	return nil
}

func (v *Validator) ValidateMoveCursor(req *entity.MoveCursorRequest) error {
	if req.QuestionID == nil && !req.Advance {
		return fmt.Errorf("%w: question_id or advance", entity.ErrMissingField)
	}
	if req.QuestionID != nil && req.Advance {
		return fmt.Errorf("%w: question_id and advance are mutually exclusive", entity.ErrInvalidParameter)
	}
	return nil
}
