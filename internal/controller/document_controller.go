package controller

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("", c.Upload)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(400).JSON(serverutils.ErrorResponse(400, "Document file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.documentService.Upload(ctx.Context(), fileHeader.Filename, data)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	res, err := c.documentService.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(400).JSON(serverutils.ErrorResponse(400, "Invalid document ID"))
	}

	res, err := c.documentService.Detail(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(400).JSON(serverutils.ErrorResponse(400, "Invalid document ID"))
	}

	res, err := c.documentService.Delete(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete document", res))
}
