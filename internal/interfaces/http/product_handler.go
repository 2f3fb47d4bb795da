package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/product"
)

// ProductHandler maneja las peticiones HTTP para Product (protegido).
type ProductHandler struct {
	uc *product.UseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *product.UseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// SetSupplier godoc
// @Summary      Registrar presentación de compra de un proveedor
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Param        id    path  string               true  "ID del producto"
// @Param        body  body  dto.SupplierRequest  true  "Presentación"
// @Success      204
// @Router       /api/products/{id}/suppliers [put]
func (h *ProductHandler) SetSupplier(c *fiber.Ctx) error {
	var in dto.SupplierRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := h.uc.SetSupplier(c.UserContext(), GetUserID(c), c.Params("id"), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AutoCostReadiness godoc
// @Summary      Diagnóstico del costeo automático
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.AutoCostReadinessResponse
// @Router       /api/products/{id}/auto-cost [get]
func (h *ProductHandler) AutoCostReadiness(c *fiber.Ctx) error {
	out, err := h.uc.AutoCostReadiness(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RecomputeAutoCost godoc
// @Summary      Recalcular costo desde el proveedor principal
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Router       /api/products/{id}/auto-cost [post]
func (h *ProductHandler) RecomputeAutoCost(c *fiber.Ctx) error {
	out, err := h.uc.RecomputeAutoCost(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ChangeStockUnit godoc
// @Summary      Cambiar la unidad de stock (migrate=true reescala existencias)
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del producto"
// @Param        body  body  dto.ChangeStockUnitRequest  true  "Nueva unidad"
// @Success      200   {object}  dto.ProductResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock-unit [put]
func (h *ProductHandler) ChangeStockUnit(c *fiber.Ctx) error {
	var in dto.ChangeStockUnitRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if in.Migrate {
		out, err := h.uc.MigrateStockUnit(c.UserContext(), GetUserID(c), c.Params("id"), in.StockUnit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
	out, err := h.uc.ChangeStockUnit(c.UserContext(), GetUserID(c), c.Params("id"), in.StockUnit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
