package entity

// UnitCode unidad de venta/medida para madera. BF (board feet) es la unidad canónica:
// toda conversión pasa por BF.
type UnitCode string

const (
	UnitBF     UnitCode = "BF"     // board feet (canónica)
	UnitLF     UnitCode = "LF"     // pies lineales
	UnitSF     UnitCode = "SF"     // pies cuadrados
	UnitMBF    UnitCode = "MBF"    // mil board feet
	UnitMSF    UnitCode = "MSF"    // mil pies cuadrados
	UnitEACH   UnitCode = "EACH"   // pieza individual
	UnitBUNDLE UnitCode = "BUNDLE" // paquete de N piezas
)

// AllUnits devuelve el enum cerrado en orden estable (para matrices de conversión).
func AllUnits() []UnitCode {
	return []UnitCode{UnitBF, UnitLF, UnitSF, UnitMBF, UnitMSF, UnitEACH, UnitBUNDLE}
}

// IsValid informa si el código pertenece al enum cerrado.
func (u UnitCode) IsValid() bool {
	switch u {
	case UnitBF, UnitLF, UnitSF, UnitMBF, UnitMSF, UnitEACH, UnitBUNDLE:
		return true
	}
	return false
}
