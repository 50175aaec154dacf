package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lumber-pro/internal/application/dto"
	"github.com/tu-usuario/lumber-pro/internal/application/tally"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// TallyHandler maneja las peticiones HTTP de tally sheets y asignación FIFO (protegido).
type TallyHandler struct {
	svc *tally.Service
}

// NewTallyHandler construye el handler.
func NewTallyHandler(svc *tally.Service) *TallyHandler {
	return &TallyHandler{svc: svc}
}

// tallyError mapea los errores de dominio del servicio de tally a HTTP.
func tallyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el número de lote ya existe"})
	case errors.Is(err, domain.ErrLotTerminal):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOT_TERMINAL", Message: "el lote está en estado terminal"})
	case errors.Is(err, domain.ErrModuleDisabled):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "MODULE_DISABLED", Message: "módulo de tally deshabilitado"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

// Create registra la recepción de un lote.
// POST /api/tally
func (h *TallyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTallyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lot, err := h.svc.CreateTallySheet(c.Context(), tally.CreateTallySheetInput{
		LotNumber:    in.LotNumber,
		VendorLot:    in.VendorLot,
		BundleID:     in.BundleID,
		ItemID:       in.ItemID,
		LocationID:   in.LocationID,
		SubsidiaryID: GetSubsidiaryID(c),
		ReceivedQty:  in.ReceivedQty,
		Dimensions: entity.DimensionSet{
			ThicknessIn:     in.ThicknessIn,
			WidthIn:         in.WidthIn,
			LengthFt:        in.LengthFt,
			PiecesPerBundle: in.PiecesPerBundle,
		},
		Grade:        in.Grade,
		MoisturePct:  in.MoisturePct,
		ReceivedDate: in.ReceivedDate,
		Draft:        in.Draft,
		UserID:       GetUserID(c),
	})
	if err != nil {
		return tallyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TallySheetFromEntity(lot))
}

// GetByID devuelve un lote.
// GET /api/tally/lots/:id
func (h *TallyHandler) GetByID(c *fiber.Ctx) error {
	lot, err := h.svc.GetTallySheet(c.Context(), c.Params("id"))
	if err != nil {
		return tallyError(c, err)
	}
	return c.JSON(dto.TallySheetFromEntity(lot))
}

// Available lista los lotes disponibles en orden FIFO.
// GET /api/tally/available?item_id=&location_id=&grade=
func (h *TallyHandler) Available(c *fiber.Ctx) error {
	lots, err := h.svc.FindAvailableLots(c.Context(), tally.FindAvailableInput{
		ItemID:       c.Query("item_id"),
		LocationID:   c.Query("location_id"),
		SubsidiaryID: GetSubsidiaryID(c),
		Grade:        c.Query("grade"),
	})
	if err != nil {
		return tallyError(c, err)
	}
	out := make([]dto.TallySheetDTO, 0, len(lots))
	for _, lot := range lots {
		out = append(out, dto.TallySheetFromEntity(lot))
	}
	return c.JSON(fiber.Map{"total": len(out), "lots": out})
}

// Allocate corre la caminata FIFO. Sin demand_id es una simulación.
// POST /api/tally/allocate
func (h *TallyHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.svc.AllocateFIFO(c.Context(), tally.AllocateInput{
		ItemID:       in.ItemID,
		LocationID:   in.LocationID,
		SubsidiaryID: GetSubsidiaryID(c),
		Grade:        in.Grade,
		RequiredQty:  in.RequiredQty,
		DemandID:     in.DemandID,
		UserID:       GetUserID(c),
	})
	if err != nil {
		return tallyError(c, err)
	}
	return c.JSON(dto.AllocateResponseFromResult(result))
}

// Consume confirma el consumo de las asignaciones de una demanda.
// POST /api/tally/:demandId/consume
func (h *TallyHandler) Consume(c *fiber.Ctx) error {
	if err := h.svc.MarkConsumed(c.Context(), c.Params("demandId")); err != nil {
		return tallyError(c, err)
	}
	return c.JSON(fiber.Map{"message": "consumo confirmado"})
}

// Release libera las asignaciones vivas de una demanda.
// POST /api/tally/:demandId/release
func (h *TallyHandler) Release(c *fiber.Ctx) error {
	if err := h.svc.ReleaseAllocations(c.Context(), c.Params("demandId")); err != nil {
		return tallyError(c, err)
	}
	return c.JSON(fiber.Map{"message": "asignaciones liberadas"})
}

// Reverse devuelve cantidad consumida al balance de un lote.
// POST /api/tally/lots/:id/reverse
func (h *TallyHandler) Reverse(c *fiber.Ctx) error {
	var in dto.ReverseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.svc.ReverseConsumption(c.Context(), c.Params("id"), in.Amount); err != nil {
		return tallyError(c, err)
	}
	return c.JSON(fiber.Map{"message": "consumo revertido"})
}

// Void anula un lote (terminal).
// POST /api/tally/lots/:id/void
func (h *TallyHandler) Void(c *fiber.Ctx) error {
	if err := h.svc.VoidTallySheet(c.Context(), c.Params("id")); err != nil {
		return tallyError(c, err)
	}
	return c.JSON(fiber.Map{"message": "lote anulado"})
}

// Close cierra un lote (terminal).
// POST /api/tally/lots/:id/close
func (h *TallyHandler) Close(c *fiber.Ctx) error {
	if err := h.svc.CloseTallySheet(c.Context(), c.Params("id")); err != nil {
		return tallyError(c, err)
	}
	return c.JSON(fiber.Map{"message": "lote cerrado"})
}
