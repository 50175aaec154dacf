package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

// RecordYieldRequest cierre de producción a registrar.
type RecordYieldRequest struct {
	WorkOrderID      string          `json:"work_order_id"`
	ItemID           string          `json:"item_id"`
	LocationID       string          `json:"location_id"`
	ActualBF         decimal.Decimal `json:"actual_bf"`
	OutputBF         decimal.Decimal `json:"output_bf"`
	ExpectedYieldPct decimal.Decimal `json:"expected_yield_pct"`
	WasteReason      string          `json:"waste_reason"`
}

// YieldEntryDTO registro de rendimiento serializado.
type YieldEntryDTO struct {
	ID               string          `json:"id"`
	WorkOrderID      string          `json:"work_order_id"`
	ItemID           string          `json:"item_id"`
	LocationID       string          `json:"location_id,omitempty"`
	TheoreticalBF    decimal.Decimal `json:"theoretical_bf"`
	ActualBF         decimal.Decimal `json:"actual_bf"`
	OutputBF         decimal.Decimal `json:"output_bf"`
	WasteBF          decimal.Decimal `json:"waste_bf"`
	RecoveryPct      decimal.Decimal `json:"recovery_pct"`
	ExpectedYieldPct decimal.Decimal `json:"expected_yield_pct"`
	VarianceStatus   string          `json:"variance_status"`
	WasteReason      string          `json:"waste_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// YieldEntryFromEntity mapea la entidad al DTO.
func YieldEntryFromEntity(e *entity.YieldEntry) YieldEntryDTO {
	return YieldEntryDTO{
		ID:               e.ID,
		WorkOrderID:      e.WorkOrderID,
		ItemID:           e.ItemID,
		LocationID:       e.LocationID,
		TheoreticalBF:    e.TheoreticalBF,
		ActualBF:         e.ActualBF,
		OutputBF:         e.OutputBF,
		WasteBF:          e.WasteBF,
		RecoveryPct:      e.RecoveryPct,
		ExpectedYieldPct: e.ExpectedYieldPct,
		VarianceStatus:   e.VarianceStatus,
		WasteReason:      e.WasteReason,
		CreatedAt:        e.CreatedAt,
	}
}

// AdjustYieldRequest corrección auditada de un registro.
type AdjustYieldRequest struct {
	Field    string          `json:"field"` // actual_bf | output_bf | expected_yield_pct
	NewValue decimal.Decimal `json:"new_value"`
	Reason   string          `json:"reason"`
}

// YieldSummaryRow fila del resumen agregado.
type YieldSummaryRow struct {
	Key            string          `json:"key"`
	SumTheoretical decimal.Decimal `json:"sum_theoretical_bf"`
	SumActual      decimal.Decimal `json:"sum_actual_bf"`
	SumWaste       decimal.Decimal `json:"sum_waste_bf"`
	AvgRecoveryPct decimal.Decimal `json:"avg_recovery_pct"`
	Count          int64           `json:"count"`
}

// YieldSummaryFromAggregates mapea las agregaciones crudas al DTO.
func YieldSummaryFromAggregates(aggs []repository.YieldAggregate) []YieldSummaryRow {
	rows := make([]YieldSummaryRow, 0, len(aggs))
	for _, a := range aggs {
		rows = append(rows, YieldSummaryRow{
			Key:            a.Key,
			SumTheoretical: a.SumTheoretical,
			SumActual:      a.SumActual,
			SumWaste:       a.SumWaste,
			AvgRecoveryPct: a.AvgRecoveryPct,
			Count:          a.Count,
		})
	}
	return rows
}
