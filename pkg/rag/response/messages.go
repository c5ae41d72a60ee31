package response

import "fmt"

// NotFoundMessage is returned verbatim when retrieval produces no usable
// excerpts, so clients can rely on its text.
const NotFoundMessage = "I couldn't find relevant information in the document to answer your question."

// GenerationFailure is the degraded answer for a model backend error. The
// detail rides in the message text because the turn itself succeeds.
func GenerationFailure(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error while generating the answer: %v. Please try asking again.", err)
}
