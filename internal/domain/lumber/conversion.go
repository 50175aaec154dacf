package lumber

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

var thousand = decimal.NewFromInt(1000)

// ConversionResult resultado estructurado de una conversión. Nunca se lanza
// error/panic: el llamador debe revisar Valid antes de usar las cantidades.
type ConversionResult struct {
	Valid     bool
	Quantity  decimal.Decimal // cantidad en la unidad destino de la operación
	BoardFeet decimal.Decimal // cantidad intermedia en BF (canónica)
	Factor    decimal.Decimal // BF por 1 unidad origen
	Error     string          // motivo cuando Valid == false
}

func invalidConversion(reason string) ConversionResult {
	return ConversionResult{Valid: false, Error: reason}
}

// factorToCanonical devuelve los BF que equivalen a 1 unidad de `unit` con las
// dimensiones dadas, o el motivo por el que no puede calcularse.
// Subconjunto de dimensiones requerido por unidad:
//
//	BF/MBF   ninguna
//	LF       espesor + ancho
//	SF/MSF   espesor
//	EACH     espesor + ancho + largo
//	BUNDLE   espesor + ancho + largo + piezas por paquete
func factorToCanonical(unit entity.UnitCode, dims entity.DimensionSet) (decimal.Decimal, string) {
	switch unit {
	case entity.UnitBF:
		return decimal.NewFromInt(1), ""
	case entity.UnitMBF:
		return thousand, ""
	case entity.UnitLF:
		if !dims.HasThickness() || !dims.HasWidth() {
			return decimal.Zero, "LF requiere espesor y ancho > 0"
		}
		return dims.ThicknessIn.Mul(dims.WidthIn).Div(twelve), ""
	case entity.UnitSF:
		if !dims.HasThickness() {
			return decimal.Zero, "SF requiere espesor > 0"
		}
		return dims.ThicknessIn.Div(twelve), ""
	case entity.UnitMSF:
		if !dims.HasThickness() {
			return decimal.Zero, "MSF requiere espesor > 0"
		}
		return dims.ThicknessIn.Div(twelve).Mul(thousand), ""
	case entity.UnitEACH:
		if !dims.IsComplete() {
			return decimal.Zero, "EACH requiere espesor, ancho y largo > 0"
		}
		return BoardFeetPerPiece(dims.ThicknessIn, dims.WidthIn, dims.LengthFt), ""
	case entity.UnitBUNDLE:
		if !dims.IsComplete() {
			return decimal.Zero, "BUNDLE requiere espesor, ancho y largo > 0"
		}
		if !dims.HasPieces() {
			return decimal.Zero, "BUNDLE requiere piezas por paquete ≥ 1"
		}
		perPiece := BoardFeetPerPiece(dims.ThicknessIn, dims.WidthIn, dims.LengthFt)
		return perPiece.Mul(decimal.NewFromInt(int64(dims.PiecesPerBundle))), ""
	}
	return decimal.Zero, fmt.Sprintf("unidad inválida: %q", unit)
}

// ConvertToCanonical convierte una cantidad en `unit` a BF.
// Cantidad cero o negativa-nula cortocircuita a resultado cero válido sin
// exigir dimensiones (permite limpiar líneas sin datos completos).
func ConvertToCanonical(unit entity.UnitCode, qty decimal.Decimal, dims entity.DimensionSet) ConversionResult {
	if !unit.IsValid() {
		return invalidConversion(fmt.Sprintf("unidad inválida: %q", unit))
	}
	if qty.IsZero() {
		return ConversionResult{Valid: true}
	}
	factor, reason := factorToCanonical(unit, dims)
	if reason != "" {
		return invalidConversion(reason)
	}
	bf := qty.Mul(factor)
	return ConversionResult{Valid: true, Quantity: bf, BoardFeet: bf, Factor: factor}
}

// ConvertFromCanonical convierte una cantidad en BF a la unidad destino
// (operación espejo: división por el mismo factor).
func ConvertFromCanonical(canonicalQty decimal.Decimal, unit entity.UnitCode, dims entity.DimensionSet) ConversionResult {
	if !unit.IsValid() {
		return invalidConversion(fmt.Sprintf("unidad inválida: %q", unit))
	}
	if canonicalQty.IsZero() {
		return ConversionResult{Valid: true}
	}
	factor, reason := factorToCanonical(unit, dims)
	if reason != "" {
		return invalidConversion(reason)
	}
	if factor.IsZero() {
		// Imposible con dimensiones positivas; guarda contra división por cero.
		return invalidConversion(fmt.Sprintf("factor cero para %q", unit))
	}
	return ConversionResult{
		Valid:     true,
		Quantity:  canonicalQty.Div(factor),
		BoardFeet: canonicalQty,
		Factor:    factor,
	}
}

// ConvertBetween convierte entre dos unidades cualesquiera pasando por BF.
// Si cualquiera de las dos piernas falla, propaga el primer error.
// Propiedad: ConvertBetween(u→v→u) devuelve la cantidad original dentro de la
// tolerancia de redondeo.
func ConvertBetween(srcUnit entity.UnitCode, qty decimal.Decimal, dstUnit entity.UnitCode, dims entity.DimensionSet) ConversionResult {
	toBF := ConvertToCanonical(srcUnit, qty, dims)
	if !toBF.Valid {
		return toBF
	}
	fromBF := ConvertFromCanonical(toBF.BoardFeet, dstUnit, dims)
	if !fromBF.Valid {
		return fromBF
	}
	return ConversionResult{
		Valid:     true,
		Quantity:  fromBF.Quantity,
		BoardFeet: toBF.BoardFeet,
		Factor:    toBF.Factor,
	}
}

// MatrixEntry fila de la matriz de conversión para una unidad.
// Factores nil cuando las dimensiones no alcanzan para esa unidad.
type MatrixEntry struct {
	Unit          entity.UnitCode
	ToCanonical   *decimal.Decimal // BF por 1 unidad
	FromCanonical *decimal.Decimal // unidades por 1 BF
	Description   string           // línea legible, ej. "1 LF = 0.6667 BF"
}

// BuildConversionMatrix arma, para cada unidad del enum, los factores hacia y
// desde BF con las dimensiones dadas, más una descripción de una línea.
func BuildConversionMatrix(dims entity.DimensionSet) []MatrixEntry {
	units := entity.AllUnits()
	matrix := make([]MatrixEntry, 0, len(units))
	one := decimal.NewFromInt(1)

	for _, unit := range units {
		factor, reason := factorToCanonical(unit, dims)
		if reason != "" {
			matrix = append(matrix, MatrixEntry{Unit: unit, Description: reason})
			continue
		}
		from := one.Div(factor)
		f, fr := factor, from
		matrix = append(matrix, MatrixEntry{
			Unit:          unit,
			ToCanonical:   &f,
			FromCanonical: &fr,
			Description:   fmt.Sprintf("1 %s = %s BF", unit, RoundTo(factor, 4)),
		})
	}
	return matrix
}
