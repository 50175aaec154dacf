package lumber

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Umbrales fijos de negocio (no configurables).
var (
	// toleranceBand banda de ±5 puntos para el estado WITHIN_TOLERANCE.
	toleranceBand = decimal.NewFromInt(-5)
	// anomalyFloor y anomalyCeil delimitan la recuperación normal [70,105].
	anomalyFloor = decimal.NewFromInt(70)
	anomalyCeil  = decimal.NewFromInt(105)
	// highSeverityBelow y mediumSeverityBelow gradúan la severidad por debajo del piso.
	highSeverityBelow   = decimal.NewFromInt(50)
	mediumSeverityBelow = decimal.NewFromInt(70)
)

// TheoreticalRequirement calcula la materia prima (BF) necesaria para producir
// finishedQty al rendimiento yieldPct: qty / (pct/100).
// Un rendimiento fuera de (0,100] se trata como 100% y devuelve qty sin cambio.
func TheoreticalRequirement(finishedQty, yieldPct decimal.Decimal) decimal.Decimal {
	if !yieldPct.GreaterThan(decimal.Zero) || yieldPct.GreaterThan(hundred) {
		return finishedQty
	}
	return finishedQty.Div(yieldPct.Div(hundred))
}

// ExpectedWaste desperdicio esperado sobre una cantidad teórica:
// qty × (1 − pct/100).
func ExpectedWaste(theoreticalQty, yieldPct decimal.Decimal) decimal.Decimal {
	if !yieldPct.GreaterThan(decimal.Zero) || yieldPct.GreaterThan(hundred) {
		return decimal.Zero
	}
	return theoreticalQty.Mul(decimal.NewFromInt(1).Sub(yieldPct.Div(hundred)))
}

// RecoveryPct porcentaje de recuperación: output/input × 100, 0 si input ≤ 0.
func RecoveryPct(outputQty, inputQty decimal.Decimal) decimal.Decimal {
	if !inputQty.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	return outputQty.Div(inputQty).Mul(hundred)
}

// WasteBF definición canónica de desperdicio: consumo real en exceso sobre el
// requerimiento teórico, nunca negativo. (Las fuentes históricas mezclaban esta
// definición con input − output; aquí se usa una sola en todos los puntos.)
func WasteBF(theoreticalBF, actualBF decimal.Decimal) decimal.Decimal {
	w := actualBF.Sub(theoreticalBF)
	if w.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return w
}

// YieldComparison varianza y estado contra el rendimiento esperado.
type YieldComparison struct {
	Variance decimal.Decimal // actual − esperado (puntos porcentuales)
	Status   string          // entity.Variance*
}

// CompareYield compara rendimiento real contra esperado.
// variance ≥ 0 → ABOVE_EXPECTED; ≥ −5 → WITHIN_TOLERANCE (borde inclusive);
// si no → BELOW_EXPECTED.
func CompareYield(expectedPct, actualPct decimal.Decimal) YieldComparison {
	variance := actualPct.Sub(expectedPct)
	status := entity.VarianceBelowExpected
	switch {
	case variance.GreaterThanOrEqual(decimal.Zero):
		status = entity.VarianceAboveExpected
	case variance.GreaterThanOrEqual(toleranceBand):
		status = entity.VarianceWithinTolerance
	}
	return YieldComparison{Variance: variance, Status: status}
}

// AnomalySeverity severidad de anomalía para una recuperación dada.
// Dentro de [70,105] no hay anomalía (cadena vacía).
func AnomalySeverity(recoveryPct decimal.Decimal) string {
	if recoveryPct.GreaterThanOrEqual(anomalyFloor) && recoveryPct.LessThanOrEqual(anomalyCeil) {
		return entity.AnomalySeverityNone
	}
	switch {
	case recoveryPct.LessThan(highSeverityBelow):
		return entity.AnomalySeverityHigh
	case recoveryPct.LessThan(mediumSeverityBelow):
		return entity.AnomalySeverityMedium
	default:
		return entity.AnomalySeverityLow
	}
}
