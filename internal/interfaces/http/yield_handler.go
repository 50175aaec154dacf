package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lumber-pro/internal/application/dto"
	"github.com/tu-usuario/lumber-pro/internal/application/yield"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

// YieldHandler maneja las peticiones HTTP de rendimiento/desperdicio (protegido).
type YieldHandler struct {
	svc *yield.Service
}

// NewYieldHandler construye el handler.
func NewYieldHandler(svc *yield.Service) *YieldHandler {
	return &YieldHandler{svc: svc}
}

func yieldError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrOutputExceedsInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "OUTPUT_EXCEEDS_INPUT", Message: "el producto terminado excede el insumo"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "registro no encontrado"})
	case errors.Is(err, domain.ErrModuleDisabled):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "MODULE_DISABLED", Message: "módulo de rendimiento deshabilitado"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// Record registra un cierre de producción.
// POST /api/yield
func (h *YieldHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordYieldRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.svc.RecordEntry(c.Context(), yield.RecordEntryInput{
		WorkOrderID:      in.WorkOrderID,
		ItemID:           in.ItemID,
		LocationID:       in.LocationID,
		ActualBF:         in.ActualBF,
		OutputBF:         in.OutputBF,
		ExpectedYieldPct: in.ExpectedYieldPct,
		WasteReason:      in.WasteReason,
		UserID:           GetUserID(c),
	})
	if err != nil {
		return yieldError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.YieldEntryFromEntity(entry))
}

// GetByID devuelve un registro de rendimiento.
// GET /api/yield/:id
func (h *YieldHandler) GetByID(c *fiber.Ctx) error {
	entry, err := h.svc.GetEntry(c.Context(), c.Params("id"))
	if err != nil {
		return yieldError(c, err)
	}
	return c.JSON(dto.YieldEntryFromEntity(entry))
}

// Adjust corrige un campo de un registro con rastro de auditoría.
// POST /api/yield/:id/adjust
func (h *YieldHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustYieldRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.svc.AdjustEntry(c.Context(), yield.AdjustEntryInput{
		YieldEntryID: c.Params("id"),
		Field:        in.Field,
		NewValue:     in.NewValue,
		Reason:       in.Reason,
		UserID:       GetUserID(c),
	})
	if err != nil {
		return yieldError(c, err)
	}
	return c.JSON(dto.YieldEntryFromEntity(entry))
}

// Adjustments historial de auditoría de un registro.
// GET /api/yield/:id/adjustments
func (h *YieldHandler) Adjustments(c *fiber.Ctx) error {
	adjs, err := h.svc.ListAdjustments(c.Context(), c.Params("id"))
	if err != nil {
		return yieldError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(adjs), "adjustments": adjs})
}

// Summary resumen agregado por item, work_order o waste_reason.
// GET /api/yield/summary?group_by=item&item_id=&from=&to=
func (h *YieldHandler) Summary(c *fiber.Ctx) error {
	groupBy := c.Query("group_by", repository.YieldGroupByItem)
	filter := repository.YieldFilter{
		ItemID:      c.Query("item_id"),
		WorkOrderID: c.Query("work_order_id"),
		LocationID:  c.Query("location_id"),
		WasteReason: c.Query("waste_reason"),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from: fecha inválida (RFC3339)"})
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to: fecha inválida (RFC3339)"})
		}
		filter.To = &t
	}

	aggs, err := h.svc.Aggregate(c.Context(), groupBy, filter)
	if err != nil {
		return yieldError(c, err)
	}
	return c.JSON(fiber.Map{"group_by": groupBy, "rows": dto.YieldSummaryFromAggregates(aggs)})
}
