package constant

import "errors"

// Domain sentinels shared between services and the HTTP error middleware.
var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrChatSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage        = errors.New("message must not be empty")
	ErrEmptyFile           = errors.New("uploaded file is empty")
	ErrFileTooLarge        = errors.New("uploaded file exceeds the maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
