package tally

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/application/dimension"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/lumber"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
	"github.com/tu-usuario/lumber-pro/pkg/config"
	"github.com/tu-usuario/lumber-pro/pkg/logger"
)

// Service administra el pool de tally sheets: recepción, búsqueda FIFO,
// asignación, consumo, liberación y reversión. Es el único mutador de
// RemainingQty y Status; toda mutación corre dentro de una transacción con
// bloqueo de fila (SELECT FOR UPDATE).
type Service struct {
	txRunner TxRunner
	lotRepo  repository.TallySheetRepository
	cfg      config.LumberConfig
	log      *logger.Logger
}

// NewService construye el servicio de tally.
func NewService(txRunner TxRunner, lotRepo repository.TallySheetRepository, cfg config.LumberConfig, log *logger.Logger) *Service {
	return &Service{txRunner: txRunner, lotRepo: lotRepo, cfg: cfg, log: log}
}

// CreateTallySheetInput entrada para registrar la recepción de un lote.
type CreateTallySheetInput struct {
	LotNumber    string
	VendorLot    string
	BundleID     string
	ItemID       string
	LocationID   string
	SubsidiaryID string
	ReceivedQty  decimal.Decimal // BF
	Dimensions   entity.DimensionSet
	Grade        string
	MoisturePct  decimal.Decimal
	ReceivedDate time.Time // cero = ahora
	Draft        bool
	UserID       string
}

// CreateTallySheet registra la recepción: remanente = recibido, estado OPEN
// (o DRAFT). Las dimensiones deben ser un set completo; los valores fuera del
// rango plausible solo generan advertencia en el log.
func (s *Service) CreateTallySheet(ctx context.Context, in CreateTallySheetInput) (*entity.TallySheet, error) {
	if !s.cfg.TallyEnabled {
		return nil, domain.ErrModuleDisabled
	}
	if in.LotNumber == "" || in.ItemID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.ReceivedQty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	val := dimension.ValidateDimensions(in.Dimensions)
	if !val.IsValid {
		return nil, domain.ErrInvalidInput
	}
	if len(val.Warnings) > 0 {
		s.log.Warn().
			Str("lot_number", in.LotNumber).
			Strs("warnings", val.Warnings).
			Msg("recepción con dimensiones fuera de rango plausible")
	}

	now := time.Now()
	receivedDate := in.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = now
	}
	moisture := decimal.Zero
	if s.cfg.MoistureEnabled {
		moisture = in.MoisturePct
	}
	status := entity.TallyStatusOpen
	if in.Draft {
		status = entity.TallyStatusDraft
	}

	qty := lumber.RoundTo(in.ReceivedQty, s.cfg.BFPrecision)
	lot := &entity.TallySheet{
		LotNumber:    in.LotNumber,
		VendorLot:    in.VendorLot,
		BundleID:     in.BundleID,
		ItemID:       in.ItemID,
		LocationID:   in.LocationID,
		SubsidiaryID: in.SubsidiaryID,
		ReceivedQty:  qty,
		RemainingQty: qty,
		Status:       status,
		Dimensions:   in.Dimensions,
		Grade:        in.Grade,
		MoisturePct:  moisture,
		ReceivedDate: receivedDate,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    in.UserID,
	}

	id, err := s.lotRepo.Create(ctx, lot)
	if err != nil {
		return nil, err
	}
	lot.ID = id

	s.log.Info().
		Str("tally_sheet_id", id).
		Str("lot_number", lot.LotNumber).
		Str("item_id", lot.ItemID).
		Str("received_bf", qty.String()).
		Msg("tally sheet recibido")
	return lot, nil
}

// FindAvailableInput criterios de búsqueda FIFO.
type FindAvailableInput struct {
	ItemID       string
	LocationID   string
	SubsidiaryID string
	Grade        string
	// RequiredQty opcional: con FIFO_ENFORCED activo, la lista se corta en
	// cuanto el remanente acumulado cubre la cantidad (optimización, no
	// requisito de corrección).
	RequiredQty *decimal.Decimal
}

// FindAvailableLots devuelve los lotes con balance disponible ordenados por
// fecha de recepción ascendente (el más viejo primero).
func (s *Service) FindAvailableLots(ctx context.Context, in FindAvailableInput) ([]*entity.TallySheet, error) {
	if in.ItemID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	filter := repository.AvailableLotsFilter{
		ItemID:       in.ItemID,
		LocationID:   in.LocationID,
		SubsidiaryID: in.SubsidiaryID,
	}
	if s.cfg.GradeEnabled {
		filter.Grade = in.Grade
	}

	lots, err := s.lotRepo.FindAvailable(ctx, filter)
	if err != nil {
		return nil, err
	}

	if in.RequiredQty != nil && s.cfg.FIFOEnforced {
		accumulated := decimal.Zero
		for i, lot := range lots {
			accumulated = accumulated.Add(lot.RemainingQty)
			if accumulated.GreaterThanOrEqual(*in.RequiredQty) {
				return lots[:i+1], nil
			}
		}
	}
	return lots, nil
}

// AllocateInput demanda de material a satisfacer con lotes FIFO.
type AllocateInput struct {
	ItemID       string
	LocationID   string
	SubsidiaryID string
	Grade        string
	RequiredQty  decimal.Decimal // BF
	// DemandID orden de trabajo / línea. Vacío = simulación: devuelve el plan
	// de consumo sin crear asignaciones ni tocar los lotes.
	DemandID string
	UserID   string
}

// Draw toma de un lote dentro de una asignación FIFO.
type Draw struct {
	TallySheetID string
	LotNumber    string
	Quantity     decimal.Decimal
}

// AllocateResult resultado de la caminata FIFO. Shortfall > 0 significa
// demanda no cubierta: se reporta, nunca se lanza como error
// ("mejor esfuerzo, reportar faltante").
type AllocateResult struct {
	Draws          []Draw
	TotalAllocated decimal.Decimal
	Shortfall      decimal.Decimal
}

// Satisfied informa si la demanda quedó totalmente cubierta.
func (r *AllocateResult) Satisfied() bool { return !r.Shortfall.GreaterThan(decimal.Zero) }

// AllocateFIFO recorre los lotes disponibles del más viejo al más nuevo
// tomando min(disponible, faltante) de cada uno hasta cubrir la demanda o
// agotar los lotes. Disponible = remanente − reservas vivas: nunca se asigna
// más que el balance de un lote ni se sobre-suscribe bajo concurrencia
// (los lotes se bloquean con FOR UPDATE durante la caminata).
func (s *Service) AllocateFIFO(ctx context.Context, in AllocateInput) (*AllocateResult, error) {
	if !s.cfg.TallyEnabled {
		return nil, domain.ErrModuleDisabled
	}
	if in.ItemID == "" || in.LocationID == "" || !in.RequiredQty.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	filter := repository.AvailableLotsFilter{
		ItemID:       in.ItemID,
		LocationID:   in.LocationID,
		SubsidiaryID: in.SubsidiaryID,
	}
	if s.cfg.GradeEnabled {
		filter.Grade = in.Grade
	}

	result := &AllocateResult{TotalAllocated: decimal.Zero}
	now := time.Now()

	err := s.txRunner.Run(ctx, func(
		lotRepo repository.TallySheetRepository,
		allocRepo repository.AllocationRepository,
	) error {
		lots, err := lotRepo.FindAvailableForUpdate(ctx, filter)
		if err != nil {
			return err
		}

		needed := in.RequiredQty
		for _, lot := range lots {
			if !needed.GreaterThan(decimal.Zero) {
				break
			}
			reserved, err := allocRepo.SumByTallySheet(ctx, lot.ID, []string{entity.AllocationStatusAllocated})
			if err != nil {
				return err
			}
			available := lot.RemainingQty.Sub(reserved)
			if !available.GreaterThan(decimal.Zero) {
				continue
			}
			draw := decimal.Min(available, needed)

			if in.DemandID != "" {
				alloc := &entity.Allocation{
					TallySheetID: lot.ID,
					DemandID:     in.DemandID,
					ItemID:       in.ItemID,
					Quantity:     draw,
					Status:       entity.AllocationStatusAllocated,
					CreatedAt:    now,
					UpdatedAt:    now,
					CreatedBy:    in.UserID,
				}
				if _, err := allocRepo.Create(ctx, alloc); err != nil {
					return err
				}
				lot.RecomputeStatus(reserved.Add(draw))
				lot.UpdatedAt = now
				if err := lotRepo.Update(ctx, lot); err != nil {
					return err
				}
			}

			result.Draws = append(result.Draws, Draw{
				TallySheetID: lot.ID,
				LotNumber:    lot.LotNumber,
				Quantity:     draw,
			})
			result.TotalAllocated = result.TotalAllocated.Add(draw)
			needed = needed.Sub(draw)
		}

		result.Shortfall = decimal.Max(decimal.Zero, needed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt := s.log.Info()
	if !result.Satisfied() {
		evt = s.log.Warn()
	}
	evt.
		Str("item_id", in.ItemID).
		Str("demand_id", in.DemandID).
		Str("required_bf", in.RequiredQty.String()).
		Str("allocated_bf", result.TotalAllocated.String()).
		Str("shortfall_bf", result.Shortfall.String()).
		Int("lots", len(result.Draws)).
		Msg("asignación FIFO")

	return result, nil
}

// MarkConsumed transiciona las asignaciones ALLOCATED de la demanda a
// CONSUMED, descuenta el remanente de cada lote y recalcula su estado.
func (s *Service) MarkConsumed(ctx context.Context, demandID string) error {
	if demandID == "" {
		return domain.ErrInvalidInput
	}
	return s.txRunner.Run(ctx, func(
		lotRepo repository.TallySheetRepository,
		allocRepo repository.AllocationRepository,
	) error {
		allocs, err := allocRepo.ListByDemand(ctx, demandID, entity.AllocationStatusAllocated)
		if err != nil {
			return err
		}
		if len(allocs) == 0 {
			return domain.ErrNotFound
		}

		now := time.Now()
		for _, alloc := range allocs {
			lot, err := lotRepo.GetForUpdate(ctx, alloc.TallySheetID)
			if err != nil {
				return err
			}
			if lot.IsTerminal() {
				return domain.ErrLotTerminal
			}

			newRemaining := lot.RemainingQty.Sub(alloc.Quantity)
			if newRemaining.LessThan(decimal.Zero) {
				// El invariante reserva ≤ remanente lo impide en condiciones
				// normales; si aparece, se reporta y se fija el piso en cero.
				s.log.Warn().
					Str("tally_sheet_id", lot.ID).
					Str("remaining_bf", lot.RemainingQty.String()).
					Str("consumed_bf", alloc.Quantity.String()).
					Msg("consumo excede el remanente del lote; balance fijado en cero")
				newRemaining = decimal.Zero
			}
			lot.RemainingQty = newRemaining
			lot.UpdatedAt = now

			if err := allocRepo.UpdateStatus(ctx, alloc.ID, entity.AllocationStatusConsumed); err != nil {
				return err
			}
			reserved, err := allocRepo.SumByTallySheet(ctx, lot.ID, []string{entity.AllocationStatusAllocated})
			if err != nil {
				return err
			}
			lot.RecomputeStatus(reserved)
			if err := lotRepo.Update(ctx, lot); err != nil {
				return err
			}
		}

		s.log.Info().Str("demand_id", demandID).Int("allocations", len(allocs)).Msg("consumo confirmado")
		return nil
	})
}

// ReleaseAllocations transiciona las asignaciones ALLOCATED (aún no
// consumidas) de la demanda a RELEASED. El remanente no se toca: la reserva
// nunca lo descontó, solo lo comprometía. El historial queda intacto.
func (s *Service) ReleaseAllocations(ctx context.Context, demandID string) error {
	if demandID == "" {
		return domain.ErrInvalidInput
	}
	return s.txRunner.Run(ctx, func(
		lotRepo repository.TallySheetRepository,
		allocRepo repository.AllocationRepository,
	) error {
		allocs, err := allocRepo.ListByDemand(ctx, demandID, entity.AllocationStatusAllocated)
		if err != nil {
			return err
		}
		if len(allocs) == 0 {
			return domain.ErrNotFound
		}

		now := time.Now()
		for _, alloc := range allocs {
			if err := allocRepo.UpdateStatus(ctx, alloc.ID, entity.AllocationStatusReleased); err != nil {
				return err
			}
			lot, err := lotRepo.GetForUpdate(ctx, alloc.TallySheetID)
			if err != nil {
				return err
			}
			if lot.IsTerminal() {
				continue // liberar una reserva de un lote ya cerrado no cambia nada
			}
			reserved, err := allocRepo.SumByTallySheet(ctx, lot.ID, []string{entity.AllocationStatusAllocated})
			if err != nil {
				return err
			}
			lot.RecomputeStatus(reserved)
			lot.UpdatedAt = now
			if err := lotRepo.Update(ctx, lot); err != nil {
				return err
			}
		}

		s.log.Info().Str("demand_id", demandID).Int("allocations", len(allocs)).Msg("asignaciones liberadas")
		return nil
	})
}

// ReverseConsumption devuelve cantidad al remanente de un lote, con techo en
// la cantidad recibida (defensa contra doble reversión). Es la única vía que
// puede sacar un lote de CONSUMED.
func (s *Service) ReverseConsumption(ctx context.Context, lotID string, amount decimal.Decimal) error {
	if lotID == "" || !amount.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	return s.txRunner.Run(ctx, func(
		lotRepo repository.TallySheetRepository,
		allocRepo repository.AllocationRepository,
	) error {
		lot, err := lotRepo.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if lot.IsTerminal() {
			return domain.ErrLotTerminal
		}

		restored := lot.RemainingQty.Add(amount)
		if restored.GreaterThan(lot.ReceivedQty) {
			s.log.Warn().
				Str("tally_sheet_id", lotID).
				Str("amount_bf", amount.String()).
				Str("received_bf", lot.ReceivedQty.String()).
				Msg("reversión capada a la cantidad recibida")
			restored = lot.ReceivedQty
		}
		lot.RemainingQty = restored
		lot.UpdatedAt = time.Now()

		reserved, err := allocRepo.SumByTallySheet(ctx, lot.ID, []string{entity.AllocationStatusAllocated})
		if err != nil {
			return err
		}
		lot.RecomputeStatus(reserved)
		if err := lotRepo.Update(ctx, lot); err != nil {
			return err
		}

		s.log.Info().
			Str("tally_sheet_id", lotID).
			Str("amount_bf", amount.String()).
			Str("remaining_bf", lot.RemainingQty.String()).
			Msg("consumo revertido")
		return nil
	})
}

// VoidTallySheet anula un lote (terminal): sin más cambios de estado ni balance.
func (s *Service) VoidTallySheet(ctx context.Context, lotID string) error {
	return s.transition(ctx, lotID, entity.TallyStatusVoid)
}

// CloseTallySheet cierra un lote (terminal).
func (s *Service) CloseTallySheet(ctx context.Context, lotID string) error {
	return s.transition(ctx, lotID, entity.TallyStatusClosed)
}

func (s *Service) transition(ctx context.Context, lotID, status string) error {
	if lotID == "" {
		return domain.ErrInvalidInput
	}
	return s.txRunner.Run(ctx, func(
		lotRepo repository.TallySheetRepository,
		_ repository.AllocationRepository,
	) error {
		lot, err := lotRepo.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if lot.IsTerminal() {
			return domain.ErrLotTerminal
		}
		lot.Status = status
		lot.UpdatedAt = time.Now()
		if err := lotRepo.Update(ctx, lot); err != nil {
			return err
		}
		s.log.Info().Str("tally_sheet_id", lotID).Str("status", status).Msg("transición de lote")
		return nil
	})
}

// GetTallySheet lectura directa para handlers.
func (s *Service) GetTallySheet(ctx context.Context, lotID string) (*entity.TallySheet, error) {
	return s.lotRepo.GetByID(ctx, lotID)
}
