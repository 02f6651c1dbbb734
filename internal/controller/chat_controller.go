package controller

import (
	"io"

	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/serverutils"
	"kb-assistant-be/internal/service"
	wshub "kb-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	SendPhoto(ctx *fiber.Ctx) error
	SendDocument(ctx *fiber.Ctx) error
}

type chatController struct {
	conversation *service.ConversationService
	hub          *wshub.Hub
}

func NewChatController(conversation *service.ConversationService, hub *wshub.Hub) IChatController {
	return &chatController{conversation: conversation, hub: hub}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("message", c.SendMessage)
	h.Post("photo", c.SendPhoto)
	h.Post("document", c.SendDocument)

	h.Get("ws", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		return ctx.Next()
	}, websocket.New(func(conn *websocket.Conn) {
		userID := conn.Query("user_id")
		if userID == "" {
			conn.Close()
			return
		}
		wshub.ServeWs(c.hub, conn, userID)
	}))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	replies, err := c.conversation.HandleText(ctx.Context(), req.UserID, req.Text)
	if err != nil {
		return err
	}

	c.hub.Deliver(req.UserID, replies)
	return ctx.JSON(serverutils.SuccessResponse("Success send message", dto.SendMessageResponse{Replies: replies}))
}

func (c *chatController) SendPhoto(ctx *fiber.Ctx) error {
	userID := ctx.FormValue("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}

	data, _, err := readUpload(ctx, "photo")
	if err != nil {
		return err
	}

	replies, err := c.conversation.HandlePhoto(ctx.Context(), userID, data)
	if err != nil {
		return err
	}

	c.hub.Deliver(userID, replies)
	return ctx.JSON(serverutils.SuccessResponse("Success send photo", dto.SendMessageResponse{Replies: replies}))
}

func (c *chatController) SendDocument(ctx *fiber.Ctx) error {
	userID := ctx.FormValue("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}

	data, filename, err := readUpload(ctx, "document")
	if err != nil {
		return err
	}

	replies, err := c.conversation.HandleDocument(ctx.Context(), userID, data, filename)
	if err != nil {
		return err
	}

	c.hub.Deliver(userID, replies)
	return ctx.JSON(serverutils.SuccessResponse("Success send document", dto.SendMessageResponse{Replies: replies}))
}

func readUpload(ctx *fiber.Ctx, field string) ([]byte, string, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}
