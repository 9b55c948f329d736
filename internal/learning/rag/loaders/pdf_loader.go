package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/models"

	"github.com/ledongthuc/pdf"
)

// PDFLoader implements the Loader interface for reading PDF uploads.
// It extracts plain text page by page so downstream chunks keep their
// page provenance.
type PDFLoader struct{}

// NewPDFLoader creates a new PDFLoader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// LoadPages parses the raw PDF bytes and returns one entry per page, in
// order. Pages whose text cannot be extracted come back empty rather than
// being dropped, so page numbering survives. When no page yields any text
// the whole document is reported unreadable.
func (l *PDFLoader) LoadPages(ctx context.Context, data []byte) (pages []models.Page, err error) {
	// The pdf library panics on some malformed files; treat that the same
	// as a parse error.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: pdf parsing panicked: %v", learning.ErrDocumentUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", learning.ErrDocumentUnreadable, err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", learning.ErrDocumentUnreadable)
	}

	pages = make([]models.Page, 0, total)
	usable := false
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			if extracted, extractErr := page.GetPlainText(nil); extractErr == nil {
				text = strings.TrimSpace(extracted)
			}
		}
		if text != "" {
			usable = true
		}
		pages = append(pages, models.Page{PageNumber: i, Text: text})
	}

	if !usable {
		return nil, fmt.Errorf("%w: no extractable text in %d pages", learning.ErrDocumentUnreadable, total)
	}

	return pages, nil
}

// compile-time check to ensure PDFLoader implements the Loader interface
var _ interfaces.Loader = (*PDFLoader)(nil)
