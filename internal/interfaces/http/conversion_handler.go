package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/application/dimension"
	"github.com/tu-usuario/lumber-pro/internal/application/dto"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/lumber"
	"github.com/tu-usuario/lumber-pro/pkg/config"
)

// ConversionHandler maneja las conversiones de unidades (protegido).
// Resuelve dimensiones con el resolver y delega la aritmética al motor puro;
// una conversión inválida es una respuesta 200 con valid=false, no un error HTTP.
type ConversionHandler struct {
	resolver *dimension.Resolver
	cfg      config.LumberConfig
}

// NewConversionHandler construye el handler.
func NewConversionHandler(resolver *dimension.Resolver, cfg config.LumberConfig) *ConversionHandler {
	return &ConversionHandler{resolver: resolver, cfg: cfg}
}

// resolveDims aplica la cadena de resolución para el request. Con item_id el
// override por línea requiere DYNAMIC_UOM_ENABLED y que el ítem lo admita.
func (h *ConversionHandler) resolveDims(c *fiber.Ctx, itemID string, dims *dto.DimensionsDTO) (dimension.ResolvedDimensions, *dto.ErrorResponse) {
	override := dims.ToOverride()

	if itemID != "" && override != nil {
		if !h.cfg.DynamicUOMEnabled {
			return dimension.ResolvedDimensions{}, &dto.ErrorResponse{
				Code: "DYNAMIC_DIMS_DISABLED", Message: "dimensiones por línea deshabilitadas",
			}
		}
		allows, err := h.resolver.AllowsDynamicDimensionOverride(c.Context(), itemID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return dimension.ResolvedDimensions{}, &dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem no encontrado"}
			}
			return dimension.ResolvedDimensions{}, &dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
		}
		if !allows {
			return dimension.ResolvedDimensions{}, &dto.ErrorResponse{
				Code: "DYNAMIC_DIMS_DISABLED", Message: "el ítem no admite dimensiones por línea",
			}
		}
	}

	res, err := h.resolver.Resolve(c.Context(), itemID, override, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return dimension.ResolvedDimensions{}, &dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem no encontrado"}
		}
		return dimension.ResolvedDimensions{}, &dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	}
	return res, nil
}

func dimensionSetDTO(res dimension.ResolvedDimensions) *dto.DimensionSetDTO {
	return &dto.DimensionSetDTO{
		ThicknessIn:     res.Dims.ThicknessIn,
		WidthIn:         res.Dims.WidthIn,
		LengthFt:        res.Dims.LengthFt,
		PiecesPerBundle: res.Dims.PiecesPerBundle,
		Sources: dto.SourcesDTO{
			Thickness:       string(res.Sources.Thickness),
			Width:           string(res.Sources.Width),
			Length:          string(res.Sources.Length),
			PiecesPerBundle: string(res.Sources.PiecesPerBundle),
		},
		IsComplete: res.IsComplete,
	}
}

// Convert convierte una cantidad entre dos unidades, resolviendo dimensiones
// línea → ítem → sistema.
// POST /api/conversions/convert
func (h *ConversionHandler) Convert(c *fiber.Ctx) error {
	var in dto.ConvertRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	from := entity.UnitCode(in.FromUnit)
	to := entity.UnitCode(in.ToUnit)
	if !from.IsValid() || !to.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "unidad desconocida"})
	}

	res, errResp := h.resolveDims(c, in.ItemID, in.Dimensions)
	if errResp != nil {
		return c.Status(statusForCode(errResp.Code)).JSON(errResp)
	}

	result := lumber.ConvertBetween(from, in.Quantity, to, res.Dims)
	out := dto.ConvertResponse{
		Valid:      result.Valid,
		Quantity:   lumber.RoundTo(result.Quantity, h.cfg.BFPrecision),
		BoardFeet:  lumber.RoundTo(result.BoardFeet, h.cfg.BFPrecision),
		Factor:     result.Factor,
		Error:      result.Error,
		Dimensions: dimensionSetDTO(res),
	}
	return c.JSON(out)
}

// Matrix devuelve la matriz de conversión completa para un ítem o un set de
// dimensiones; los factores quedan nil donde las dimensiones no alcanzan.
// POST /api/conversions/matrix
func (h *ConversionHandler) Matrix(c *fiber.Ctx) error {
	var in dto.MatrixRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	res, errResp := h.resolveDims(c, in.ItemID, in.Dimensions)
	if errResp != nil {
		return c.Status(statusForCode(errResp.Code)).JSON(errResp)
	}

	entries := lumber.BuildConversionMatrix(res.Dims)
	out := dto.MatrixResponse{
		Entries:    make([]dto.MatrixEntryDTO, 0, len(entries)),
		Dimensions: dimensionSetDTO(res),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.MatrixEntryDTO{
			Unit:          string(e.Unit),
			ToCanonical:   copyDecimalPtr(e.ToCanonical),
			FromCanonical: copyDecimalPtr(e.FromCanonical),
			Description:   e.Description,
		})
	}
	return c.JSON(out)
}

func copyDecimalPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func statusForCode(code string) int {
	switch code {
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "DYNAMIC_DIMS_DISABLED":
		return fiber.StatusForbidden
	case "VALIDATION", "INVALID_BODY":
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
