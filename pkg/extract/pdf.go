package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates per-page text, pages separated by newlines.
func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
