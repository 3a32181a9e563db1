package pdfextract

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted plain text of a single page.
type PageText struct {
	Number int
	Text   string
}

// ExtractPagesFromBytes extracts page-by-page plain text from PDF bytes.
// Pages without extractable text (scanned images) yield empty strings, so an
// image-only PDF returns all-empty pages and a nil error. An unparseable
// file returns an error.
func ExtractPagesFromBytes(b []byte) ([]PageText, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, err
	}

	total := pdfReader.NumPage()
	pages := make([]PageText, 0, total)
	for i := 1; i <= total; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, PageText{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single broken page should not sink the whole document.
			pages = append(pages, PageText{Number: i})
			continue
		}
		pages = append(pages, PageText{Number: i, Text: text})
	}
	return pages, nil
}
