package generation

import (
	"fmt"
	"regexp"

	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
)

// DocumentSpec is the per-document-type configuration of a generation session
type DocumentSpec struct {
	Type entity.DocumentType
	// ActionTag is the action value the backend puts on progress and completion frames
	ActionTag string
	// URLPattern selects the job URLs this document type accepts. Empty accepts any URL.
	URLPattern string
	// RequiresUpload adds the initial and upload views before the questions
	RequiresUpload bool
}

// Views returns the view sequence of the document type
func (s DocumentSpec) Views() []entity.View {
	if s.RequiresUpload {
		return []entity.View{entity.ViewInitial, entity.ViewUpload, entity.ViewQuestions, entity.ViewPreview}
	}
	return []entity.View{entity.ViewQuestions, entity.ViewPreview}
}

func (s DocumentSpec) compilePattern() (*regexp.Regexp, error) {
	if s.URLPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(s.URLPattern)
	if err != nil {
		return nil, fmt.Errorf("compile url pattern for %s: %w", s.Type, err)
	}
	return re, nil
}

// DefaultDocumentSpecs returns the seven supported document types
func DefaultDocumentSpecs(cfg config.DocumentsConfig) []DocumentSpec {
	return []DocumentSpec{
		{Type: entity.DocumentTypeGTM, ActionTag: entity.ActionSendMessage, URLPattern: cfg.GTMURLPattern},
		{Type: entity.DocumentTypeICP, ActionTag: entity.ActionSendMessage, URLPattern: cfg.ICPURLPattern},
		{Type: entity.DocumentTypeKMF, ActionTag: entity.ActionRealtimeText, URLPattern: cfg.KMFURLPattern},
		{Type: entity.DocumentTypeSR, ActionTag: entity.ActionRealtimeText, URLPattern: cfg.SRURLPattern},
		{Type: entity.DocumentTypeBS, ActionTag: entity.ActionRealtimeText, URLPattern: cfg.BSURLPattern, RequiresUpload: true},
		{Type: entity.DocumentTypeMR, ActionTag: entity.ActionRealtimeText, URLPattern: cfg.MRURLPattern, RequiresUpload: true},
		{Type: entity.DocumentTypeLinkedIn, ActionTag: entity.ActionRealtimeText, URLPattern: cfg.LinkedInURLPattern},
	}
}

// FindSpec looks a document type up in specs
func FindSpec(specs []DocumentSpec, dt entity.DocumentType) (DocumentSpec, error) {
	for _, s := range specs {
		if s.Type == dt {
			return s, nil
		}
	}
	return DocumentSpec{}, fmt.Errorf("%w: %s", entity.ErrUnknownDocumentType, dt)
}
