package formatter

import (
	"fmt"
	"strings"

	"github.com/futig/docgen-gateway/internal/entity"
)

// Document is what gets rendered: a title and the generated markdown-ish body
type Document struct {
	Title string
	Body  string
}

type Formatter interface {
	Format(doc Document) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", entity.ErrInvalidFormat, format)
	}
}

// block is a paragraph of the body; level > 0 marks a "#"-style heading
type block struct {
	level int
	text  string
}

// splitBlocks cuts the body into blank-line separated paragraphs and recognizes headings
func splitBlocks(body string) []block {
	var blocks []block
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		level := 0
		for level < len(para) && para[level] == '#' {
			level++
		}
		if level > 0 && level <= 6 && strings.HasPrefix(para[level:], " ") && !strings.Contains(para, "\n") {
			blocks = append(blocks, block{level: level, text: strings.TrimSpace(para[level:])})
			continue
		}

		blocks = append(blocks, block{text: para})
	}
	return blocks
}
