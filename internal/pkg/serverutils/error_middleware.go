package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"doc-chat-be/internal/constant"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/pipeline"
	"doc-chat-be/pkg/vectorindex"
)

// ErrorHandlerMiddleware translates errors bubbling out of handlers into
// the JSON error envelope with the right HTTP status.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		status := statusFor(err)

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(status).JSON(ValidationErrorResponse("Request validation failed", validationErr.Fields))
		}

		return c.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}

func statusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest
	}

	switch {
	case errors.Is(err, constant.ErrDocumentNotFound),
		errors.Is(err, constant.ErrChatSessionNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, constant.ErrEmptyMessage),
		errors.Is(err, constant.ErrEmptyFile),
		errors.Is(err, constant.ErrFileTooLarge),
		errors.Is(err, constant.ErrUnsupportedFileType),
		errors.Is(err, extract.ErrUnsupportedType):
		return fiber.StatusBadRequest

	case errors.Is(err, pipeline.ErrInsufficientContent):
		return fiber.StatusUnprocessableEntity
	}

	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) {
		return fiber.StatusUnprocessableEntity
	}

	var embedErr *embedding.ServiceError
	if errors.As(err, &embedErr) {
		switch embedErr.Kind {
		case embedding.KindRateLimit:
			return fiber.StatusTooManyRequests
		default:
			return fiber.StatusBadGateway
		}
	}

	var indexErr *vectorindex.IndexError
	if errors.As(err, &indexErr) {
		return fiber.StatusBadGateway
	}

	var roleErr *llm.UnknownRoleError
	if errors.As(err, &roleErr) {
		return fiber.StatusInternalServerError
	}

	// Any remaining pipeline failure already unwrapped above; what is left
	// is an unexpected internal failure.
	return fiber.StatusInternalServerError
}
