package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lumber-pro/internal/application/dto"
	"github.com/tu-usuario/lumber-pro/internal/application/reconciliation"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

// ReconciliationHandler expone los jobs de reconciliación como endpoints
// protegidos, para dispararlos desde un scheduler externo o a mano.
type ReconciliationHandler struct {
	job *reconciliation.Job
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(job *reconciliation.Job) *ReconciliationHandler {
	return &ReconciliationHandler{job: job}
}

// ReconcileTally corre la verificación de balances de lotes.
// POST /api/reconciliation/tally
func (h *ReconciliationHandler) ReconcileTally(c *fiber.Ctx) error {
	report, err := h.job.ReconcileTallyBalances(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(report)
}

// DetectAnomalies corre la detección de recuperaciones fuera de rango.
// POST /api/reconciliation/yield?from=&to=
func (h *ReconciliationHandler) DetectAnomalies(c *fiber.Ctx) error {
	filter := repository.YieldFilter{
		ItemID:     c.Query("item_id"),
		LocationID: c.Query("location_id"),
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

	anomalies, err := h.job.DetectYieldAnomalies(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"total": len(anomalies), "anomalies": anomalies})
}
