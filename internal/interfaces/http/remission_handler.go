package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/remission"
)

// RemissionHandler flujo de remisiones entre sedes (protegido).
type RemissionHandler struct {
	uc *remission.UseCase
}

// NewRemissionHandler construye el handler.
func NewRemissionHandler(uc *remission.UseCase) *RemissionHandler {
	return &RemissionHandler{uc: uc}
}

// Create godoc
// @Summary      Solicitar remisión (sede satélite → centro de producción)
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRemissionRequest  true  "Origen, destino e ítems"
// @Success      201   {object}  dto.RemissionResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/remissions [post]
func (h *RemissionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRemissionRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener remisión
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la remisión"
// @Success      200  {object}  dto.RemissionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id} [get]
func (h *RemissionHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar remisiones de una sede (origen o destino)
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  false  "Sede"
// @Param        status   query  string  false  "Estado"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.RemissionListResponse
// @Router       /api/remissions [get]
func (h *RemissionHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	out, err := h.uc.List(c.UserContext(), c.Query("site_id"), c.Query("status"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Prepare godoc
// @Summary      pending → preparing (alistamiento en el centro de producción)
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string         true   "ID de la remisión"
// @Param        body  body  dto.ItemBatch  false  "Cantidades alistadas y ubicaciones de origen"
// @Success      200   {object}  dto.RemissionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/remissions/{id}/prepare [post]
func (h *RemissionHandler) Prepare(c *fiber.Ctx) error {
	batch, ok, err := optionalBatch(c)
	if !ok {
		return err
	}
	out, err := h.uc.Prepare(c.UserContext(), GetUserID(c), c.Params("id"), batch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateItems godoc
// @Summary      Editar líneas según el estado actual
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "ID de la remisión"
// @Param        body  body  dto.ItemBatch  true  "Cambios por línea"
// @Success      200   {object}  dto.RemissionResponse
// @Router       /api/remissions/{id}/items [patch]
func (h *RemissionHandler) UpdateItems(c *fiber.Ctx) error {
	var batch dto.ItemBatch
	if ok, err := bind(c, &batch); !ok {
		return err
	}
	out, err := h.uc.UpdateItems(c.UserContext(), GetUserID(c), c.Params("id"), batch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Transit godoc
// @Summary      preparing → in_transit (descuenta el origen)
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la remisión"
// @Success      200  {object}  dto.RemissionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id}/transit [post]
func (h *RemissionHandler) Transit(c *fiber.Ctx) error {
	out, err := h.uc.Transit(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      in_transit → received (acredita el destino)
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string         true   "ID de la remisión"
// @Param        body  body  dto.ItemBatch  false  "Cantidades recibidas y faltantes"
// @Success      200   {object}  dto.RemissionResponse
// @Router       /api/remissions/{id}/receive [post]
func (h *RemissionHandler) Receive(c *fiber.Ctx) error {
	batch, ok, err := optionalBatch(c)
	if !ok {
		return err
	}
	out, err := h.uc.Receive(c.UserContext(), GetUserID(c), c.Params("id"), batch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      received → closed
// @Tags         remissions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la remisión"
// @Success      200  {object}  dto.RemissionResponse
// @Router       /api/remissions/{id}/close [post]
func (h *RemissionHandler) Close(c *fiber.Ctx) error {
	out, err := h.uc.Close(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar remisión (no revierte movimientos)
// @Tags         remissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID de la remisión"
// @Param        body  body  dto.CancelRemissionRequest  false  "Motivo"
// @Success      200   {object}  dto.RemissionResponse
// @Router       /api/remissions/{id}/cancel [post]
func (h *RemissionHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRemissionRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, &in); !ok {
			return err
		}
	}
	out, err := h.uc.Cancel(c.UserContext(), GetUserID(c), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Manifest godoc
// @Summary      Guía de remisión en PDF
// @Tags         remissions
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la remisión"
// @Success      200  {file}  binary
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/remissions/{id}/manifest [get]
func (h *RemissionHandler) Manifest(c *fiber.Ctx) error {
	pdf, filename, err := h.uc.Manifest(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}

// optionalBatch parsea un ItemBatch si hay body; sin body equivale a "sin cambios".
func optionalBatch(c *fiber.Ctx) (dto.ItemBatch, bool, error) {
	var batch dto.ItemBatch
	if len(c.Body()) == 0 {
		return batch, true, nil
	}
	ok, err := bind(c, &batch)
	return batch, ok, err
}
