package lumber

import "github.com/shopspring/decimal"

// twelve aparece en todas las fórmulas: 1 BF = 1in × 1in × 12in.
var twelve = decimal.NewFromInt(12)

// BoardFeetPerPiece calcula los board feet de una pieza (servicio de dominio).
// BF = espesor(in) × ancho(in) × largo(ft) / 12
// No valida: el llamador es responsable de entregar dimensiones positivas.
func BoardFeetPerPiece(thicknessIn, widthIn, lengthFt decimal.Decimal) decimal.Decimal {
	return thicknessIn.Mul(widthIn).Mul(lengthFt).Div(twelve)
}

// RoundTo redondea a precision decimales, mitad lejos de cero.
// Toda cantidad persistida o mostrada pasa por aquí antes de salir del core.
func RoundTo(v decimal.Decimal, precision int32) decimal.Decimal {
	return v.Round(precision)
}
