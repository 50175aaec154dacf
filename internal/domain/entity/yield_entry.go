package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de varianza de rendimiento: recuperación real vs. rendimiento esperado.
// La banda de tolerancia de ±5 puntos es un umbral fijo de negocio.
const (
	VarianceAboveExpected   = "ABOVE_EXPECTED"
	VarianceWithinTolerance = "WITHIN_TOLERANCE"
	VarianceBelowExpected   = "BELOW_EXPECTED"
)

// Severidad de anomalía de recuperación. Vacío = sin anomalía.
// Recuperación fuera de [70,105] es anómala: <50 HIGH, [50,70) MEDIUM, >105 LOW.
const (
	AnomalySeverityHigh   = "HIGH"
	AnomalySeverityMedium = "MEDIUM"
	AnomalySeverityLow    = "LOW"
	AnomalySeverityNone   = ""
)

// YieldEntry registro de rendimiento por cierre de producción. Inmutable una
// vez escrito, salvo por la vía de ajuste explícita que deja rastro de auditoría.
type YieldEntry struct {
	ID          string
	WorkOrderID string
	ItemID      string
	LocationID  string

	TheoreticalBF    decimal.Decimal // materia prima requerida al rendimiento esperado
	ActualBF         decimal.Decimal // materia prima realmente consumida
	OutputBF         decimal.Decimal // producto terminado equivalente en BF
	WasteBF          decimal.Decimal // max(0, actual − teórico); ver DESIGN.md
	RecoveryPct      decimal.Decimal // output/input × 100
	ExpectedYieldPct decimal.Decimal
	VarianceStatus   string
	WasteReason      string

	CreatedAt time.Time
	CreatedBy string
}

// YieldAdjustment rastro de auditoría de un ajuste sobre un YieldEntry:
// valor previo, valor nuevo y motivo. Se escribe en la misma transacción
// que el ajuste.
type YieldAdjustment struct {
	ID            string
	YieldEntryID  string
	Field         string // "actual_bf" | "output_bf" | "expected_yield_pct"
	PreviousValue decimal.Decimal
	NewValue      decimal.Decimal
	Reason        string
	CreatedAt     time.Time
	CreatedBy     string
}
