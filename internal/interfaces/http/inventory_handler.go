package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del libro de inventario (protegido).
type InventoryHandler struct {
	ledger *inventory.Ledger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "site_id, product_id, type, quantity + input_unit"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.ledger.RegisterMovementFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones de una sede
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Origen, destino y cantidad"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	mov, err := h.ledger.TransferBetweenLocations(c.UserContext(), inventory.TransferInput{
		SiteID:         in.SiteID,
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		InputQty:       in.Quantity,
		InputUnitCode:  in.InputUnit,
		ActorID:        GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(mov))
}

// ApplyLocationDelta godoc
// @Summary      Ubicar o retirar stock de una ubicación sin tocar la sede
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la ubicación"
// @Param        body  body  dto.LocationDeltaRequest  true  "Producto y delta en unidad de stock"
// @Success      200   {object}  dto.LocationStockResponse
// @Router       /api/inventory/locations/{id}/delta [post]
func (h *InventoryHandler) ApplyLocationDelta(c *fiber.Ctx) error {
	var in dto.LocationDeltaRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	stock, err := h.ledger.ApplyLocationDelta(c.UserContext(), GetUserID(c), c.Params("id"), in.ProductID, in.Delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LocationStockResponse{
		LocationID: stock.LocationID,
		ProductID:  stock.ProductID,
		CurrentQty: stock.CurrentQty,
		UpdatedAt:  stock.UpdatedAt,
	})
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        site_id     query  string  false  "Sede"
// @Param        product_id  query  string  false  "Producto"
// @Param        type        query  string  false  "Tipo de movimiento"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		SiteID:    c.Query("site_id"),
		ProductID: c.Query("product_id"),
		Type:      entity.MovementType(c.Query("type")),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	}
	for _, q := range []struct {
		key string
		dst **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		if raw := c.Query(q.key); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return respondCode(c, fiber.StatusBadRequest, "VALIDATION", q.key+": formato RFC3339")
			}
			*q.dst = &t
		}
	}
	items, err := h.ledger.ListMovements(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetSiteStock godoc
// @Summary      Existencias por sede (las negativas van marcadas)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sede"
// @Success      200  {array}  dto.SiteStockResponse
// @Router       /api/inventory/sites/{id}/stock [get]
func (h *InventoryHandler) GetSiteStock(c *fiber.Ctx) error {
	out, err := h.ledger.GetSiteStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetLocationStock godoc
// @Summary      Existencias por ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {array}  dto.LocationStockResponse
// @Router       /api/inventory/locations/{id}/stock [get]
func (h *InventoryHandler) GetLocationStock(c *fiber.Ctx) error {
	out, err := h.ledger.GetLocationStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetUnlocated godoc
// @Summary      Stock de la sede que sus ubicaciones no explican
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sede"
// @Success      200  {array}  dto.UnlocatedStock
// @Router       /api/inventory/sites/{id}/unlocated [get]
func (h *InventoryHandler) GetUnlocated(c *fiber.Ctx) error {
	out, err := h.ledger.FindUnlocatedStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetLowStock godoc
// @Summary      Productos bajo el mínimo de la sede
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sede"
// @Success      200  {array}  dto.LowStockItem
// @Router       /api/inventory/sites/{id}/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	out, err := h.ledger.GetLowStockSites(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetPurchaseSuggestions godoc
// @Summary      Órdenes de compra sugeridas por proveedor principal
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sede"
// @Success      200  {array}  dto.PurchaseSuggestionGroup
// @Router       /api/inventory/sites/{id}/purchase-suggestions [get]
func (h *InventoryHandler) GetPurchaseSuggestions(c *fiber.Ctx) error {
	out, err := h.ledger.SuggestPurchaseOrders(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
