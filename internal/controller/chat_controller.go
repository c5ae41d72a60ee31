package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post(":sessionId/message", c.SendMessage)
	h.Get(":sessionId/history", c.History)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return ctx.Status(400).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return ctx.Status(400).JSON(serverutils.ErrorResponse(400, "Invalid session ID"))
	}

	res, err := c.chatService.History(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}
