package entity

import "github.com/shopspring/decimal"

// DimensionSource identifica la capa que aportó una dimensión en la cadena de resolución.
type DimensionSource string

const (
	DimensionSourceLine   DimensionSource = "LINE"   // override de la línea de transacción
	DimensionSourceLot    DimensionSource = "LOT"    // dimensiones del tally sheet / lote
	DimensionSourceItem   DimensionSource = "ITEM"   // dimensiones nominales del ítem
	DimensionSourceSystem DimensionSource = "SYSTEM" // defaults del sistema (config)
	DimensionSourceNone   DimensionSource = "NONE"   // ninguna capa aportó el campo
)

// DimensionSet dimensiones físicas de una pieza de madera: espesor y ancho
// en pulgadas, largo en pies, más piezas por paquete para la unidad BUNDLE.
// Es un value object inmutable una vez resuelto.
type DimensionSet struct {
	ThicknessIn     decimal.Decimal // espesor (pulgadas)
	WidthIn         decimal.Decimal // ancho (pulgadas)
	LengthFt        decimal.Decimal // largo (pies)
	PiecesPerBundle int             // piezas por paquete (≥1 para BUNDLE)
}

// IsComplete informa si las tres dimensiones espaciales son estrictamente positivas.
// Un set incompleto solo admite conversiones que no requieren dimensiones (BF, MBF).
func (d DimensionSet) IsComplete() bool {
	return d.HasThickness() && d.HasWidth() && d.HasLength()
}

// HasThickness informa si el espesor es positivo.
func (d DimensionSet) HasThickness() bool { return d.ThicknessIn.GreaterThan(decimal.Zero) }

// HasWidth informa si el ancho es positivo.
func (d DimensionSet) HasWidth() bool { return d.WidthIn.GreaterThan(decimal.Zero) }

// HasLength informa si el largo es positivo.
func (d DimensionSet) HasLength() bool { return d.LengthFt.GreaterThan(decimal.Zero) }

// HasPieces informa si piezas por paquete es al menos 1.
func (d DimensionSet) HasPieces() bool { return d.PiecesPerBundle >= 1 }

// DimensionOverride override parcial de dimensiones a nivel de línea.
// Cada campo nil significa "heredar de la siguiente capa": los campos se
// resuelven de forma independiente, no como bloque todo-o-nada.
type DimensionOverride struct {
	ThicknessIn     *decimal.Decimal
	WidthIn         *decimal.Decimal
	LengthFt        *decimal.Decimal
	PiecesPerBundle *int
}
