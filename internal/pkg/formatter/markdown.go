package formatter

import (
	"strings"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

// MarkdownFormatter normalizes the generated body into blank-line separated blocks.
// The title heading is skipped when the body already opens with the same heading.
type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(doc Document) ([]byte, error) {
	blocks := splitBlocks(doc.Body)
	if len(blocks) == 0 || blocks[0] != (block{level: 1, text: strings.TrimSpace(doc.Title)}) {
		blocks = append([]block{{level: 1, text: doc.Title}}, blocks...)
	}

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.level > 0 {
			parts = append(parts, strings.Repeat("#", b.level)+" "+b.text)
			continue
		}
		parts = append(parts, b.text)
	}
	return []byte(strings.Join(parts, "\n\n") + "\n"), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
