package lumber_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/lumber"
)

// dimsCompletas un set típico de madera dimensionada: 2x4 de 8 pies, 50 por paquete.
func dimsCompletas() entity.DimensionSet {
	return entity.DimensionSet{
		ThicknessIn:     dec("2"),
		WidthIn:         dec("4"),
		LengthFt:        dec("8"),
		PiecesPerBundle: 50,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de conversión con vectores exactos
// ──────────────────────────────────────────────────────────────────────────────

// TestConvertToCanonical_LF escenario de referencia: 10 LF de 1x6 → 50 BF
// con factor (1×6)/12 = 0.5.
func TestConvertToCanonical_LF(t *testing.T) {
	dims := entity.DimensionSet{ThicknessIn: dec("1"), WidthIn: dec("6")}

	res := lumber.ConvertToCanonical(entity.UnitLF, dec("10"), dims)

	require.True(t, res.Valid, "la conversión LF→BF debe ser válida con espesor y ancho")
	assert.True(t, res.BoardFeet.Equal(dec("5")), "10 LF de 1x6 = 5 BF, obtenido %s", res.BoardFeet)
	assert.True(t, res.Factor.Equal(dec("0.5")), "factor LF de 1x6 = 0.5, obtenido %s", res.Factor)
}

// TestConvertToCanonical_LF_Escenario10x50 el vector del manual de planta:
// espesor=1in, ancho=6in, 100 LF → 50 BF.
func TestConvertToCanonical_LF_Escenario(t *testing.T) {
	dims := entity.DimensionSet{ThicknessIn: dec("1"), WidthIn: dec("6")}

	res := lumber.ConvertToCanonical(entity.UnitLF, dec("100"), dims)

	require.True(t, res.Valid)
	assert.True(t, lumber.RoundTo(res.BoardFeet, 2).Equal(dec("50")),
		"100 LF de 1x6 deben ser 50.00 BF, obtenido %s", res.BoardFeet)
}

// TestConvertToCanonical_Bundle 3 paquetes de 2x4x8 con 50 piezas:
// BF por pieza = 2×4×8/12 = 5.3333, factor = 266.667, total = 800.00 BF.
func TestConvertToCanonical_Bundle(t *testing.T) {
	res := lumber.ConvertToCanonical(entity.UnitBUNDLE, dec("3"), dimsCompletas())

	require.True(t, res.Valid, "BUNDLE con set completo y piezas debe convertir")
	assert.True(t, lumber.RoundTo(res.Factor, 3).Equal(dec("266.667")),
		"factor BUNDLE esperado 266.667, obtenido %s", res.Factor)
	assert.True(t, lumber.RoundTo(res.BoardFeet, 2).Equal(dec("800")),
		"3 paquetes deben ser 800.00 BF, obtenido %s", res.BoardFeet)
}

// TestConvertToCanonical_BF_Identidad BF no requiere dimensiones: identidad
// incluso con el set vacío.
func TestConvertToCanonical_BF_Identidad(t *testing.T) {
	res := lumber.ConvertToCanonical(entity.UnitBF, dec("123.45"), entity.DimensionSet{})

	require.True(t, res.Valid)
	assert.True(t, res.BoardFeet.Equal(dec("123.45")))
	assert.True(t, res.Factor.Equal(dec("1")))
}

func TestConvertToCanonical_MBF(t *testing.T) {
	res := lumber.ConvertToCanonical(entity.UnitMBF, dec("2.5"), entity.DimensionSet{})

	require.True(t, res.Valid, "MBF no requiere dimensiones")
	assert.True(t, res.BoardFeet.Equal(dec("2500")))
}

// TestConvertToCanonical_CantidadCero cantidad cero cortocircuita a resultado
// válido sin exigir dimensiones.
func TestConvertToCanonical_CantidadCero(t *testing.T) {
	res := lumber.ConvertToCanonical(entity.UnitBUNDLE, decimal.Zero, entity.DimensionSet{})

	require.True(t, res.Valid, "cantidad cero nunca debe fallar por dimensiones")
	assert.True(t, res.BoardFeet.IsZero())
}

// TestConvertToCanonical_DimensionesFaltantes LF sin espesor/ancho devuelve
// resultado inválido con el motivo, nunca panic.
func TestConvertToCanonical_DimensionesFaltantes(t *testing.T) {
	dims := entity.DimensionSet{} // todo en cero

	res := lumber.ConvertToCanonical(entity.UnitLF, dec("5"), dims)

	require.False(t, res.Valid)
	assert.Contains(t, res.Error, "requiere", "el motivo debe nombrar la dimensión faltante")
}

func TestConvertToCanonical_UnidadInvalida(t *testing.T) {
	res := lumber.ConvertToCanonical(entity.UnitCode("KG"), dec("5"), dimsCompletas())

	require.False(t, res.Valid)
	assert.Contains(t, res.Error, "unidad inválida")
}

func TestConvertFromCanonical_SF(t *testing.T) {
	// 1 SF de 1in de espesor = 1/12 BF; 100 BF → 1200 SF.
	dims := entity.DimensionSet{ThicknessIn: dec("1")}

	res := lumber.ConvertFromCanonical(dec("100"), entity.UnitSF, dims)

	require.True(t, res.Valid)
	assert.True(t, lumber.RoundTo(res.Quantity, 2).Equal(dec("1200")),
		"100 BF de 1in deben ser 1200 SF, obtenido %s", res.Quantity)
}

func TestConvertBetween_PropagaPrimerError(t *testing.T) {
	// Pierna de entrada falla: EACH sin dimensiones.
	res := lumber.ConvertBetween(entity.UnitEACH, dec("5"), entity.UnitBF, entity.DimensionSet{})
	require.False(t, res.Valid)
	assert.Contains(t, res.Error, "EACH")

	// Pierna de salida falla: BF→LF sin dimensiones.
	res = lumber.ConvertBetween(entity.UnitBF, dec("5"), entity.UnitLF, entity.DimensionSet{})
	require.False(t, res.Valid)
	assert.Contains(t, res.Error, "LF")
}

// TestConvertBetween_RoundTrip propiedad de ida y vuelta: u→v→u devuelve la
// cantidad original dentro de 1e-6 de error relativo, para todo par de unidades.
func TestConvertBetween_RoundTrip(t *testing.T) {
	dims := entity.DimensionSet{
		ThicknessIn:     dec("1.5"),
		WidthIn:         dec("7.25"),
		LengthFt:        dec("16"),
		PiecesPerBundle: 20,
	}
	qty := dec("123.45")
	tolerance := qty.Mul(dec("0.000001"))

	for _, u := range entity.AllUnits() {
		for _, v := range entity.AllUnits() {
			ida := lumber.ConvertBetween(u, qty, v, dims)
			require.True(t, ida.Valid, "%s→%s debe ser válido con set completo", u, v)

			vuelta := lumber.ConvertBetween(v, ida.Quantity, u, dims)
			require.True(t, vuelta.Valid, "%s→%s (vuelta) debe ser válido", v, u)

			diff := vuelta.Quantity.Sub(qty).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance),
				"%s→%s→%s: esperado %s, obtenido %s (diff %s)", u, v, u, qty, vuelta.Quantity, diff)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Matriz de conversión
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildConversionMatrix_SetCompleto(t *testing.T) {
	matrix := lumber.BuildConversionMatrix(dimsCompletas())

	require.Len(t, matrix, len(entity.AllUnits()))
	for _, row := range matrix {
		require.NotNil(t, row.ToCanonical, "con set completo toda unidad tiene factor: %s", row.Unit)
		require.NotNil(t, row.FromCanonical)
		assert.Contains(t, row.Description, string(row.Unit))
		assert.Contains(t, row.Description, "BF")

		// Los factores deben ser recíprocos.
		product := row.ToCanonical.Mul(*row.FromCanonical)
		assert.True(t, lumber.RoundTo(product, 6).Equal(dec("1")),
			"to×from debe ser 1 para %s, obtenido %s", row.Unit, product)
	}
}

func TestBuildConversionMatrix_SetVacio(t *testing.T) {
	matrix := lumber.BuildConversionMatrix(entity.DimensionSet{})

	withFactor := map[entity.UnitCode]bool{}
	for _, row := range matrix {
		if row.ToCanonical != nil {
			withFactor[row.Unit] = true
		} else {
			assert.NotEmpty(t, row.Description, "la fila sin factor debe explicar qué falta")
		}
	}
	// Solo BF y MBF convierten sin dimensiones.
	assert.Equal(t, map[entity.UnitCode]bool{entity.UnitBF: true, entity.UnitMBF: true}, withFactor)
}
