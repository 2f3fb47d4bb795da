package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/internal/application/count"
	"github.com/jhoicas/inventario-sedes/internal/application/dto"
)

// CountHandler sesiones de conteo físico y aprobación de ajustes (protegido).
type CountHandler struct {
	uc *count.UseCase
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *count.UseCase) *CountHandler {
	return &CountHandler{uc: uc}
}

// Open godoc
// @Summary      Abrir sesión de conteo (sede, zona o ubicación)
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenCountRequest  true  "Sede y alcance"
// @Success      201   {object}  dto.CountSessionResponse
// @Router       /api/counts [post]
func (h *CountHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenCountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Open(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener sesión de conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.CountSessionResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RecordCounts godoc
// @Summary      Registrar cantidades contadas (en cualquier unidad compatible)
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la sesión"
// @Param        body  body  dto.RecordCountsRequest  true  "Líneas contadas"
// @Success      200   {object}  dto.CountSessionResponse
// @Router       /api/counts/{id}/lines [post]
func (h *CountHandler) RecordCounts(c *fiber.Ctx) error {
	var in dto.RecordCountsRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.RecordCounts(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      Cerrar conteo (fotografía el stock y calcula diferencias)
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.CountSessionResponse
// @Router       /api/counts/{id}/close [post]
func (h *CountHandler) Close(c *fiber.Ctx) error {
	out, err := h.uc.Close(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar ajustes (idempotente, aislado por línea)
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.ApprovalResult
// @Router       /api/counts/{id}/approve [post]
func (h *CountHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.ApproveAdjustments(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
