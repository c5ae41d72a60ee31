package prompt

import (
	"fmt"
	"strings"
)

// Chunk is a retrieved document excerpt handed to the prompt builder.
type Chunk struct {
	ID    string
	Text  string
	Score float64
}

// Builder assembles the grounding preamble and the question prompt sent to
// the LLM. All answers must come from the excerpts, never outside knowledge.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Preamble returns the system-level instruction that grounds the model in
// the retrieved excerpts.
func (b *Builder) Preamble(chunks []Chunk) string {
	var preamble strings.Builder

	preamble.WriteString("You are a helpful assistant that answers questions about an uploaded document.\n")
	preamble.WriteString("Answer ONLY using the document excerpts below. Do not use outside knowledge.\n")
	preamble.WriteString("If the excerpts do not contain the answer, say you could not find the information in the document.\n\n")

	preamble.WriteString("<document_excerpts>\n")
	for i, c := range chunks {
		preamble.WriteString(fmt.Sprintf("--- Excerpt %d ---\n", i+1))
		preamble.WriteString(c.Text)
		preamble.WriteString("\n")
	}
	preamble.WriteString("</document_excerpts>")

	return preamble.String()
}
