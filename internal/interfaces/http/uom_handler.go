package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/dto"
)

// UoMHandler catálogo de unidades: consulta, conversión y administración.
type UoMHandler struct {
	uc *catalog.AdminUseCase
}

// NewUoMHandler construye el handler.
func NewUoMHandler(uc *catalog.AdminUseCase) *UoMHandler {
	return &UoMHandler{uc: uc}
}

// ListUnits godoc
// @Summary      Listar unidades activas
// @Tags         uom
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.UnitResponse
// @Router       /api/uom/units [get]
func (h *UoMHandler) ListUnits(c *fiber.Ctx) error {
	out, err := h.uc.ListUnits(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Convert godoc
// @Summary      Convertir una cantidad entre unidades compatibles
// @Tags         uom
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConvertRequest  true  "Cantidad y unidades"
// @Success      200   {object}  dto.ConvertResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/uom/convert [post]
func (h *UoMHandler) Convert(c *fiber.Ctx) error {
	var in dto.ConvertRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Convert(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateUnit godoc
// @Summary      Crear unidad (catalog.admin)
// @Tags         uom
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUnitRequest  true  "Unidad"
// @Success      201   {object}  dto.UnitResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/uom/units [post]
func (h *UoMHandler) CreateUnit(c *fiber.Ctx) error {
	var in dto.CreateUnitRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateUnit(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateUnit godoc
// @Summary      Actualizar unidad (catalog.admin)
// @Tags         uom
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code  path  string                 true  "Código de la unidad"
// @Param        body  body  dto.UpdateUnitRequest  true  "Cambios"
// @Success      200   {object}  dto.UnitResponse
// @Router       /api/uom/units/{code} [put]
func (h *UoMHandler) UpdateUnit(c *fiber.Ctx) error {
	var in dto.UpdateUnitRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateUnit(c.UserContext(), GetUserID(c), c.Params("code"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeactivateUnit godoc
// @Summary      Desactivar unidad (catalog.admin)
// @Tags         uom
// @Security     Bearer
// @Param        code  path  string  true  "Código de la unidad"
// @Success      204
// @Router       /api/uom/units/{code} [delete]
func (h *UoMHandler) DeactivateUnit(c *fiber.Ctx) error {
	if err := h.uc.DeactivateUnit(c.UserContext(), GetUserID(c), c.Params("code")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddAlias godoc
// @Summary      Registrar alias de unidad (catalog.admin)
// @Tags         uom
// @Security     Bearer
// @Accept       json
// @Param        body  body  dto.CreateAliasRequest  true  "Alias"
// @Success      201
// @Router       /api/uom/aliases [post]
func (h *UoMHandler) AddAlias(c *fiber.Ctx) error {
	var in dto.CreateAliasRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := h.uc.AddAlias(c.UserContext(), GetUserID(c), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}
