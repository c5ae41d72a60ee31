package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// File types accepted for upload. Images are stored and indexed with a
// descriptive placeholder only, they are never OCR'd.
const (
	FileTypePDF   = "pdf"
	FileTypeDocx  = "docx"
	FileTypeDoc   = "doc"
	FileTypeCSV   = "csv"
	FileTypeTxt   = "txt"
	FileTypeImage = "image"
)

var AllowedUploadExtensions = map[string]string{
	"pdf":  FileTypePDF,
	"docx": FileTypeDocx,
	"doc":  FileTypeDoc,
	"csv":  FileTypeCSV,
	"txt":  FileTypeTxt,
	"jpg":  FileTypeImage,
	"jpeg": FileTypeImage,
	"png":  FileTypeImage,
	"gif":  FileTypeImage,
}
