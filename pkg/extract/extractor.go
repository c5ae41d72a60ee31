package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// FileType is the declared type of an uploaded file.
type FileType string

const (
	TypePDF   FileType = "pdf"
	TypeDocx  FileType = "docx"
	TypeDoc   FileType = "doc"
	TypeCSV   FileType = "csv"
	TypeTxt   FileType = "txt"
	TypeImage FileType = "image"
)

// ErrUnsupportedType is returned for any file type outside the supported set.
var ErrUnsupportedType = errors.New("unsupported file type")

// ExtractionError reports malformed input for a supported type. Zero
// recoverable text is always an error, never an empty success.
type ExtractionError struct {
	FileType FileType
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for %s: %v", e.FileType, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor converts raw file bytes of a known type into plain text.
//
// CSV rows are rendered as " | "-joined fields and embedded as semantic
// content. Images are never OCR'd: they yield a one-line format/dimensions
// placeholder so the document is still addressable in chat.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of data, trimmed of surrounding whitespace.
func (e *Extractor) Extract(data []byte, fileType FileType) (string, error) {
	var (
		text string
		err  error
	)

	switch fileType {
	case TypePDF:
		text, err = extractPDF(data)
	case TypeDocx, TypeDoc:
		text, err = extractDocx(data)
	case TypeCSV:
		text, err = e.extractCSV(data)
	case TypeTxt:
		text, err = e.extractTxt(data)
	case TypeImage:
		text, err = e.describeImage(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}

	if err != nil {
		return "", &ExtractionError{FileType: fileType, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ExtractionError{FileType: fileType, Err: errors.New("no text content recovered")}
	}
	return text, nil
}

func (e *Extractor) extractTxt(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8")
	}
	return string(data), nil
}

func (e *Extractor) extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are fine, we only render text

	var sb strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(strings.Join(record, " | "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (e *Extractor) describeImage(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unreadable image: %w", err)
	}
	return fmt.Sprintf("Image file (%s, %dx%d pixels). Visual content is not indexed.",
		strings.ToUpper(format), cfg.Width, cfg.Height), nil
}
