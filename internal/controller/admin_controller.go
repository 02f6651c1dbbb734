package controller

import (
	"errors"

	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/serverutils"
	"kb-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Logs(ctx *fiber.Ctx) error
	Audit(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) IAdminController {
	return &adminController{adminService: adminService}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Post("login", c.Login)

	protected := h.Group("", serverutils.JwtMiddleware)
	protected.Get("logs", c.Logs)
	protected.Get("audit", c.Audit)
}

func (c *adminController) Login(ctx *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	token, err := c.adminService.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success login", dto.AdminLoginResponse{Token: token}))
}

func (c *adminController) Logs(ctx *fiber.Ctx) error {
	level := ctx.Query("level", "")
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	entries, err := c.adminService.Logs(level, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get logs", entries))
}

func (c *adminController) Audit(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 100)
	return ctx.JSON(serverutils.SuccessResponse("Success get audit trail", c.adminService.Audit(limit)))
}
