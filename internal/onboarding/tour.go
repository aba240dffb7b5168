package onboarding

import (
	"fmt"

	"github.com/futig/docgen-gateway/internal/entity"
)

type Page string

const (
	PageDashboard  Page = "dashboard"
	PageDocuments  Page = "documents"
	PageGeneration Page = "generation"
	PagePreview    Page = "preview"
)

// Step is one guided-tour bubble anchored to a UI element
type Step struct {
	ID     string `json:"id"`
	Target string `json:"target"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

var tours = map[Page][]Step{
	PageDashboard: {
		{ID: "dashboard.projects", Target: "#project-switcher", Title: "Your projects", Body: "Every document belongs to a project. Switch projects here."},
		{ID: "dashboard.documents", Target: "#document-cards", Title: "Documents", Body: "Pick a document type to start generating."},
		{ID: "dashboard.status", Target: "#generation-status", Title: "Status", Body: "Running generations show their progress here."},
	},
	PageDocuments: {
		{ID: "documents.list", Target: "#documents-list", Title: "Generated documents", Body: "Finished documents of the current project are listed here."},
		{ID: "documents.actions", Target: "#documents-actions", Title: "Actions", Body: "Rename, download or delete a document."},
	},
	PageGeneration: {
		{ID: "generation.questions", Target: "#question-card", Title: "Questions", Body: "Answer each question. You can edit an answer before confirming it."},
		{ID: "generation.confirm", Target: "#confirm-answer", Title: "Confirm", Body: "Confirmed answers are used for generation."},
		{ID: "generation.start", Target: "#start-generation", Title: "Generate", Body: "Start the generation once every question is answered."},
		{ID: "generation.progress", Target: "#generation-progress", Title: "Progress", Body: "The document appears when generation completes."},
	},
	PagePreview: {
		{ID: "preview.document", Target: "#preview", Title: "Preview", Body: "Review the generated document."},
		{ID: "preview.download", Target: "#download", Title: "Download", Body: "Download it as Markdown, DOCX or PDF."},
	},
}

// Pages lists every page that has a tour
var Pages = []Page{PageDashboard, PageDocuments, PageGeneration, PagePreview}

func (p Page) Validate() error {
	if _, ok := tours[p]; !ok {
		return fmt.Errorf("%w: %s", entity.ErrUnknownTourPage, p)
	}
	return nil
}

// FlagKey is the profile flag marking the page's tour as done
func (p Page) FlagKey() string {
	return "onboarding." + string(p)
}

// Steps returns the tour of page p
func Steps(p Page) []Step {
	return tours[p]
}
