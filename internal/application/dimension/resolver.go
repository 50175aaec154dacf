package dimension

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
	"github.com/tu-usuario/lumber-pro/pkg/config"
	"github.com/tu-usuario/lumber-pro/pkg/logger"
)

// Rangos plausibles para madera comercial: por encima de esto es casi seguro
// un error de captura, pero no se bloquea (warning, no error).
var (
	maxPlausibleThicknessIn = decimal.NewFromInt(12)
	maxPlausibleWidthIn     = decimal.NewFromInt(48)
	maxPlausibleLengthFt    = decimal.NewFromInt(40)
)

// defaultItemTTL cuánto vive una lectura del maestro de ítems en el cache.
const defaultItemTTL = 5 * time.Minute

// FieldSources qué capa ganó cada campo en la resolución.
type FieldSources struct {
	Thickness       entity.DimensionSource
	Width           entity.DimensionSource
	Length          entity.DimensionSource
	PiecesPerBundle entity.DimensionSource
}

// ResolvedDimensions resultado de la cadena de resolución: set final,
// fuente ganadora por campo y completitud.
type ResolvedDimensions struct {
	Dims       entity.DimensionSet
	Sources    FieldSources
	IsComplete bool
}

// ValidationResult errores y advertencias acumulados de una validación,
// para mostrarse todos juntos en lugar de abortar en el primero.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// Resolver resuelve dimensiones concretas para una línea siguiendo la cadena
// de prioridad línea → lote → ítem → sistema, campo por campo (un override
// parcial hereda el resto de la siguiente capa). También responde consultas
// de atributos del ítem (esMadera, permite override) a través del cache.
type Resolver struct {
	items    repository.ItemRepository
	cache    *itemCache
	defaults entity.DimensionSet // dimensiones nominales del sistema (config)
	log      *logger.Logger
}

// NewResolver construye el resolver con cache TTL propio.
func NewResolver(items repository.ItemRepository, cfg config.LumberConfig, log *logger.Logger) *Resolver {
	return &Resolver{
		items: items,
		cache: newItemCache(defaultItemTTL),
		defaults: entity.DimensionSet{
			ThicknessIn: cfg.NominalThicknessIn,
			WidthIn:     cfg.NominalWidthIn,
			LengthFt:    cfg.NominalLengthFt,
		},
		log: log,
	}
}

// item lee el ítem pasando por el cache.
func (r *Resolver) item(ctx context.Context, itemID string) (*entity.Item, error) {
	if it, ok := r.cache.get(itemID); ok {
		return it, nil
	}
	it, err := r.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("resolver: leer ítem %s: %w", itemID, err)
	}
	r.cache.put(itemID, it)
	return it, nil
}

// InvalidateItem descarta la entrada cacheada de un ítem (tras editarlo).
func (r *Resolver) InvalidateItem(itemID string) {
	r.cache.invalidate(itemID)
}

// IsLumberItem informa si el ítem es madera (sujeto a conversión dimensional).
func (r *Resolver) IsLumberItem(ctx context.Context, itemID string) (bool, error) {
	it, err := r.item(ctx, itemID)
	if err != nil {
		return false, err
	}
	return it.IsLumber, nil
}

// AllowsDynamicDimensionOverride informa si el ítem admite dimensiones por línea.
func (r *Resolver) AllowsDynamicDimensionOverride(ctx context.Context, itemID string) (bool, error) {
	it, err := r.item(ctx, itemID)
	if err != nil {
		return false, err
	}
	return it.AllowDynamicDims, nil
}

// Resolve aplica la cadena de prioridad por campo. lineOverride y lotDims
// pueden ser nil (capa ausente). itemID vacío omite la capa de ítem.
func (r *Resolver) Resolve(
	ctx context.Context,
	itemID string,
	lineOverride *entity.DimensionOverride,
	lotDims *entity.DimensionSet,
) (ResolvedDimensions, error) {

	var itemDims entity.DimensionSet
	if itemID != "" {
		it, err := r.item(ctx, itemID)
		if err != nil {
			return ResolvedDimensions{}, err
		}
		itemDims = it.NominalDimensions()
	}

	res := ResolvedDimensions{}

	res.Dims.ThicknessIn, res.Sources.Thickness = resolveField(
		overrideField(lineOverride, func(o *entity.DimensionOverride) *decimal.Decimal { return o.ThicknessIn }),
		lotField(lotDims, func(d *entity.DimensionSet) decimal.Decimal { return d.ThicknessIn }),
		itemDims.ThicknessIn,
		r.defaults.ThicknessIn,
	)
	res.Dims.WidthIn, res.Sources.Width = resolveField(
		overrideField(lineOverride, func(o *entity.DimensionOverride) *decimal.Decimal { return o.WidthIn }),
		lotField(lotDims, func(d *entity.DimensionSet) decimal.Decimal { return d.WidthIn }),
		itemDims.WidthIn,
		r.defaults.WidthIn,
	)
	res.Dims.LengthFt, res.Sources.Length = resolveField(
		overrideField(lineOverride, func(o *entity.DimensionOverride) *decimal.Decimal { return o.LengthFt }),
		lotField(lotDims, func(d *entity.DimensionSet) decimal.Decimal { return d.LengthFt }),
		itemDims.LengthFt,
		r.defaults.LengthFt,
	)
	res.Dims.PiecesPerBundle, res.Sources.PiecesPerBundle = resolvePieces(lineOverride, lotDims, itemDims)

	res.IsComplete = res.Dims.IsComplete()

	if warnings := ValidateDimensions(res.Dims).Warnings; len(warnings) > 0 && r.log != nil {
		r.log.Warn().
			Str("item_id", itemID).
			Strs("warnings", warnings).
			Msg("dimensiones resueltas fuera de rango plausible")
	}

	return res, nil
}

// resolveField devuelve el primer valor positivo de la cadena y la capa que lo aportó.
func resolveField(line *decimal.Decimal, lot, item, system decimal.Decimal) (decimal.Decimal, entity.DimensionSource) {
	if line != nil && line.GreaterThan(decimal.Zero) {
		return *line, entity.DimensionSourceLine
	}
	if lot.GreaterThan(decimal.Zero) {
		return lot, entity.DimensionSourceLot
	}
	if item.GreaterThan(decimal.Zero) {
		return item, entity.DimensionSourceItem
	}
	if system.GreaterThan(decimal.Zero) {
		return system, entity.DimensionSourceSystem
	}
	return decimal.Zero, entity.DimensionSourceNone
}

func resolvePieces(line *entity.DimensionOverride, lot *entity.DimensionSet, item entity.DimensionSet) (int, entity.DimensionSource) {
	if line != nil && line.PiecesPerBundle != nil && *line.PiecesPerBundle >= 1 {
		return *line.PiecesPerBundle, entity.DimensionSourceLine
	}
	if lot != nil && lot.PiecesPerBundle >= 1 {
		return lot.PiecesPerBundle, entity.DimensionSourceLot
	}
	if item.PiecesPerBundle >= 1 {
		return item.PiecesPerBundle, entity.DimensionSourceItem
	}
	return 0, entity.DimensionSourceNone
}

func overrideField(o *entity.DimensionOverride, pick func(*entity.DimensionOverride) *decimal.Decimal) *decimal.Decimal {
	if o == nil {
		return nil
	}
	return pick(o)
}

func lotField(d *entity.DimensionSet, pick func(*entity.DimensionSet) decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return pick(d)
}

// ValidateDimensions valida un set que debe estar completo (ej. recepción de
// lote): campos no positivos son errores; valores fuera del rango plausible
// de madera comercial son advertencias, no errores.
func ValidateDimensions(dims entity.DimensionSet) ValidationResult {
	res := ValidationResult{IsValid: true}

	if !dims.HasThickness() {
		res.Errors = append(res.Errors, "espesor debe ser > 0")
	} else if dims.ThicknessIn.GreaterThan(maxPlausibleThicknessIn) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("espesor %s in excede el máximo plausible (12 in)", dims.ThicknessIn))
	}
	if !dims.HasWidth() {
		res.Errors = append(res.Errors, "ancho debe ser > 0")
	} else if dims.WidthIn.GreaterThan(maxPlausibleWidthIn) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("ancho %s in excede el máximo plausible (48 in)", dims.WidthIn))
	}
	if !dims.HasLength() {
		res.Errors = append(res.Errors, "largo debe ser > 0")
	} else if dims.LengthFt.GreaterThan(maxPlausibleLengthFt) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("largo %s ft excede el máximo plausible (40 ft)", dims.LengthFt))
	}
	if dims.PiecesPerBundle < 0 {
		res.Errors = append(res.Errors, "piezas por paquete no puede ser negativo")
	}

	res.IsValid = len(res.Errors) == 0
	return res
}
