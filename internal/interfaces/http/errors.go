package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/domain"
)

// errorMapping código estable y estado HTTP de cada error de dominio.
type errorMapping struct {
	err    error
	status int
	code   string
}

// El orden importa: los errores más específicos primero.
var errorMappings = []errorMapping{
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrIncompatibleFamily, fiber.StatusUnprocessableEntity, "INCOMPATIBLE_UNITS"},
	{domain.ErrUnitNotFound, fiber.StatusUnprocessableEntity, "UNKNOWN_UNIT"},
	{domain.ErrInvalidUnit, fiber.StatusUnprocessableEntity, "INVALID_UNIT"},
	{domain.ErrDivisionByZero, fiber.StatusUnprocessableEntity, "ZERO_QUANTITY"},
	{domain.ErrInsufficientLocationStock, fiber.StatusConflict, "INSUFFICIENT_LOCATION_STOCK"},
	{domain.ErrNegativeSiteStock, fiber.StatusConflict, "NEGATIVE_SITE_STOCK"},
	{domain.ErrStockUnitLocked, fiber.StatusConflict, "STOCK_UNIT_LOCKED"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrAlreadyApplied, fiber.StatusConflict, "ALREADY_APPLIED"},
	{domain.ErrSiteTypeMismatch, fiber.StatusUnprocessableEntity, "SITE_TYPE_MISMATCH"},
	{domain.ErrPersistenceConflict, fiber.StatusConflict, "RETRY"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
}

// Mensajes por código. El español es el idioma por defecto.
var messages = map[string]map[language.Tag]string{
	"FORBIDDEN": {
		language.Spanish: "No tiene permiso para esta operación en la sede indicada",
		language.English: "You are not allowed to perform this operation at this site",
	},
	"UNAUTHORIZED": {
		language.Spanish: "Autenticación requerida",
		language.English: "Authentication required",
	},
	"INCOMPATIBLE_UNITS": {
		language.Spanish: "Las unidades pertenecen a familias distintas y no se pueden convertir",
		language.English: "The units belong to different families and cannot be converted",
	},
	"UNKNOWN_UNIT": {
		language.Spanish: "Unidad de medida desconocida o inactiva",
		language.English: "Unknown or inactive unit of measure",
	},
	"INVALID_UNIT": {
		language.Spanish: "Definición de unidad inválida",
		language.English: "Invalid unit definition",
	},
	"ZERO_QUANTITY": {
		language.Spanish: "La cantidad convertida es cero",
		language.English: "The converted quantity is zero",
	},
	"INSUFFICIENT_LOCATION_STOCK": {
		language.Spanish: "Stock insuficiente en la ubicación de origen",
		language.English: "Insufficient stock at the source location",
	},
	"NEGATIVE_SITE_STOCK": {
		language.Spanish: "El movimiento dejaría stock negativo en la sede",
		language.English: "The movement would leave negative stock at the site",
	},
	"STOCK_UNIT_LOCKED": {
		language.Spanish: "La unidad de stock no se puede cambiar: el producto ya tiene existencias o movimientos",
		language.English: "The stock unit cannot change: the product already has stock or movements",
	},
	"INVALID_TRANSITION": {
		language.Spanish: "Transición de estado no permitida",
		language.English: "State transition not allowed",
	},
	"ALREADY_APPLIED": {
		language.Spanish: "El ajuste ya fue aplicado",
		language.English: "The adjustment was already applied",
	},
	"SITE_TYPE_MISMATCH": {
		language.Spanish: "El tipo de sede no permite esta operación",
		language.English: "The site type does not allow this operation",
	},
	"RETRY": {
		language.Spanish: "Conflicto de concurrencia, reintente la operación",
		language.English: "Concurrent update conflict, please retry",
	},
	"DUPLICATE": {
		language.Spanish: "El recurso ya existe",
		language.English: "The resource already exists",
	},
	"CONFLICT": {
		language.Spanish: "Conflicto con el estado actual",
		language.English: "Conflict with the current state",
	},
	"NOT_FOUND": {
		language.Spanish: "Recurso no encontrado",
		language.English: "Resource not found",
	},
	"VALIDATION": {
		language.Spanish: "Datos de entrada inválidos",
		language.English: "Invalid input",
	},
	"INVALID_BODY": {
		language.Spanish: "Cuerpo de la petición inválido",
		language.English: "Invalid request body",
	},
	"MISSING_TOKEN": {
		language.Spanish: "Se requiere el encabezado Authorization",
		language.English: "Authorization header required",
	},
	"INVALID_TOKEN": {
		language.Spanish: "Token inválido o expirado",
		language.English: "Invalid or expired token",
	},
	"INTERNAL": {
		language.Spanish: "Error interno",
		language.English: "Internal error",
	},
}

var langMatcher = language.NewMatcher([]language.Tag{language.Spanish, language.English})

func init() {
	for code, byLang := range messages {
		for tag, msg := range byLang {
			_ = message.SetString(tag, code, msg)
		}
	}
}

// printer elige el idioma según Accept-Language (español por defecto).
func printer(c *fiber.Ctx) *message.Printer {
	tags, _, _ := language.ParseAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	tag, _, _ := langMatcher.Match(tags...)
	base, _ := tag.Base()
	if base.String() == "en" {
		return message.NewPrinter(language.English)
	}
	return message.NewPrinter(language.Spanish)
}

// classify resuelve estado y código de un error.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError escribe el error con código estable, mensaje localizado y el detalle del dominio.
// Los errores internos no exponen detalle.
func respondError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	body := dto.ErrorResponse{Code: code, Message: printer(c).Sprintf(code)}
	if status != fiber.StatusInternalServerError {
		body.Detail = err.Error()
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

// respondCode escribe un error de la capa HTTP (token, body) sin error de dominio asociado.
func respondCode(c *fiber.Ctx, status int, code, detail string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		Code:    code,
		Message: printer(c).Sprintf(code),
		Detail:  strings.TrimSpace(detail),
	})
}
