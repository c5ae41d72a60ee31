package events

// Topic event type codes for document lifecycle messages.
const (
	DocumentProcessed = "DOCUMENT_PROCESSED"
	DocumentDeleted   = "DOCUMENT_DELETED"
)
