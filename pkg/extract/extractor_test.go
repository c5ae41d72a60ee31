package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles an uncompressed single-font PDF with one Helvetica text
// run per page, tracking object offsets for the cross-reference table.
func buildPDF(pageTexts ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	n := len(pageTexts)
	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	fontObj := 3 + 2*n

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), n))
	for i, text := range pageTexts {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageObj, fontObj, contentObj))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		addObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentObj, len(stream), stream))
	}
	addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n", fontObj))

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefPos)
	return buf.Bytes()
}

func TestExtractTxtRoundTrip(t *testing.T) {
	e := NewExtractor()

	text, err := e.Extract([]byte("  hello world\nsecond line  \n"), TypeTxt)
	require.NoError(t, err)
	assert.Equal(t, "hello world\nsecond line", text)
}

func TestExtractTxtInvalidUTF8(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract([]byte{0xff, 0xfe, 0xfd}, TypeTxt)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, TypeTxt, extErr.FileType)
}

func TestExtractCSV(t *testing.T) {
	e := NewExtractor()

	text, err := e.Extract([]byte("name,age\nalice,30\nbob,25\n"), TypeCSV)
	require.NoError(t, err)
	assert.Equal(t, "name | age\nalice | 30\nbob | 25", text)
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract([]byte("data"), FileType("xlsx"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractEmptyContentFails(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract([]byte("   \n  "), TypeTxt)
	var extErr *ExtractionError
	assert.ErrorAs(t, err, &extErr)
}

func TestExtractPDF(t *testing.T) {
	e := NewExtractor()

	data := buildPDF("The policy covers water damage in all units.", "Claims must be filed within 30 days.")

	text, err := e.Extract(data, TypePDF)
	require.NoError(t, err)
	assert.Contains(t, text, "The policy covers water damage in all units.")
	// Pages come back in order, separated by a newline.
	assert.Contains(t, text, "units.\nClaims must be filed within 30 days.")
}

func TestExtractCorruptPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract([]byte("definitely not a pdf"), TypePDF)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, TypePDF, extErr.FileType)
}

func TestExtractDocx(t *testing.T) {
	e := NewExtractor()

	documentXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, err := e.Extract(buf.Bytes(), TypeDocx)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestExtractImagePlaceholder(t *testing.T) {
	e := NewExtractor()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	require.NoError(t, png.Encode(&buf, img))

	text, err := e.Extract(buf.Bytes(), TypeImage)
	require.NoError(t, err)
	assert.Contains(t, text, "PNG")
	assert.Contains(t, text, "4x2")
}
