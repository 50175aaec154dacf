package yield

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/lumber"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
	"github.com/tu-usuario/lumber-pro/pkg/config"
	"github.com/tu-usuario/lumber-pro/pkg/logger"
)

// Campos ajustables de un YieldEntry.
const (
	FieldActualBF         = "actual_bf"
	FieldOutputBF         = "output_bf"
	FieldExpectedYieldPct = "expected_yield_pct"
)

// Service registra y ajusta rendimientos de producción. Un registro captura
// el cierre de una orden: insumo real vs. requerimiento teórico al rendimiento
// esperado, con el desperdicio y la recuperación derivados. Los registros son
// inmutables salvo por AdjustEntry, que deja rastro de auditoría.
type Service struct {
	txRunner  TxRunner
	yieldRepo repository.YieldRepository
	itemRepo  repository.ItemRepository
	cfg       config.LumberConfig
	log       *logger.Logger
}

// NewService construye el servicio de rendimiento.
func NewService(txRunner TxRunner, yieldRepo repository.YieldRepository, itemRepo repository.ItemRepository, cfg config.LumberConfig, log *logger.Logger) *Service {
	return &Service{txRunner: txRunner, yieldRepo: yieldRepo, itemRepo: itemRepo, cfg: cfg, log: log}
}

// RecordEntryInput cierre de producción a registrar.
type RecordEntryInput struct {
	WorkOrderID string
	ItemID      string
	LocationID  string
	ActualBF    decimal.Decimal // materia prima consumida
	OutputBF    decimal.Decimal // producto terminado equivalente en BF
	// ExpectedYieldPct opcional; cero = cadena de fallback ítem → sistema.
	ExpectedYieldPct decimal.Decimal
	WasteReason      string
	UserID           string
}

// RecordEntry valida y persiste un registro de rendimiento, derivando
// requerimiento teórico, desperdicio, recuperación y estado de varianza.
// Producto terminado por encima del insumo es un error duro: ningún proceso
// de transformación crea madera.
func (s *Service) RecordEntry(ctx context.Context, in RecordEntryInput) (*entity.YieldEntry, error) {
	if !s.cfg.YieldEnabled {
		return nil, domain.ErrModuleDisabled
	}
	if in.WorkOrderID == "" || in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.ActualBF.GreaterThan(decimal.Zero) || in.OutputBF.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if in.OutputBF.GreaterThan(in.ActualBF) {
		return nil, domain.ErrOutputExceedsInput
	}

	expectedPct, err := s.expectedYieldPct(ctx, in.ItemID, in.ExpectedYieldPct)
	if err != nil {
		return nil, err
	}

	entry := &entity.YieldEntry{
		WorkOrderID:      in.WorkOrderID,
		ItemID:           in.ItemID,
		LocationID:       in.LocationID,
		ActualBF:         lumber.RoundTo(in.ActualBF, s.cfg.BFPrecision),
		OutputBF:         lumber.RoundTo(in.OutputBF, s.cfg.BFPrecision),
		ExpectedYieldPct: expectedPct,
		CreatedAt:        time.Now(),
		CreatedBy:        in.UserID,
	}
	if s.cfg.WasteEnabled {
		entry.WasteReason = in.WasteReason
	}
	s.derive(entry)

	id, err := s.yieldRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	evt := s.log.Info()
	if sev := lumber.AnomalySeverity(entry.RecoveryPct); sev != entity.AnomalySeverityNone {
		evt = s.log.Warn().Str("anomaly_severity", sev)
	}
	evt.
		Str("yield_entry_id", id).
		Str("work_order_id", in.WorkOrderID).
		Str("item_id", in.ItemID).
		Str("recovery_pct", entry.RecoveryPct.String()).
		Str("waste_bf", entry.WasteBF.String()).
		Str("variance", entry.VarianceStatus).
		Msg("rendimiento registrado")

	return entry, nil
}

// expectedYieldPct cadena de fallback: valor de la línea → ítem → sistema.
func (s *Service) expectedYieldPct(ctx context.Context, itemID string, linePct decimal.Decimal) (decimal.Decimal, error) {
	if linePct.GreaterThan(decimal.Zero) {
		return linePct, nil
	}
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.cfg.DefaultYieldPct, nil
		}
		return decimal.Zero, err
	}
	if item.DefaultYieldPct.GreaterThan(decimal.Zero) {
		return item.DefaultYieldPct, nil
	}
	return s.cfg.DefaultYieldPct, nil
}

// derive recalcula los campos derivados a partir de actual/output/esperado.
// Única función que los escribe: registro y ajuste producen lo mismo.
func (s *Service) derive(e *entity.YieldEntry) {
	e.TheoreticalBF = lumber.RoundTo(lumber.TheoreticalRequirement(e.OutputBF, e.ExpectedYieldPct), s.cfg.BFPrecision)
	e.WasteBF = lumber.RoundTo(lumber.WasteBF(e.TheoreticalBF, e.ActualBF), s.cfg.BFPrecision)
	e.RecoveryPct = lumber.RoundTo(lumber.RecoveryPct(e.OutputBF, e.ActualBF), 2)
	e.VarianceStatus = lumber.CompareYield(e.ExpectedYieldPct, e.RecoveryPct).Status
}

// AdjustEntryInput corrección sobre un registro existente.
type AdjustEntryInput struct {
	YieldEntryID string
	Field        string // FieldActualBF | FieldOutputBF | FieldExpectedYieldPct
	NewValue     decimal.Decimal
	Reason       string
	UserID       string
}

// AdjustEntry corrige un campo de un registro y recalcula los derivados,
// escribiendo el rastro de auditoría (valor previo, nuevo y motivo) en la
// misma transacción. El invariante output ≤ input se revalida tras el cambio.
func (s *Service) AdjustEntry(ctx context.Context, in AdjustEntryInput) (*entity.YieldEntry, error) {
	if !s.cfg.YieldEnabled {
		return nil, domain.ErrModuleDisabled
	}
	if in.YieldEntryID == "" || in.Reason == "" {
		return nil, domain.ErrInvalidInput
	}

	var adjusted *entity.YieldEntry
	err := s.txRunner.Run(ctx, func(yieldRepo repository.YieldRepository) error {
		entry, err := yieldRepo.GetForUpdate(ctx, in.YieldEntryID)
		if err != nil {
			return err
		}

		var previous decimal.Decimal
		switch in.Field {
		case FieldActualBF:
			if !in.NewValue.GreaterThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			previous = entry.ActualBF
			entry.ActualBF = lumber.RoundTo(in.NewValue, s.cfg.BFPrecision)
		case FieldOutputBF:
			if in.NewValue.LessThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			previous = entry.OutputBF
			entry.OutputBF = lumber.RoundTo(in.NewValue, s.cfg.BFPrecision)
		case FieldExpectedYieldPct:
			if !in.NewValue.GreaterThan(decimal.Zero) || in.NewValue.GreaterThan(decimal.NewFromInt(100)) {
				return domain.ErrInvalidInput
			}
			previous = entry.ExpectedYieldPct
			entry.ExpectedYieldPct = in.NewValue
		default:
			return domain.ErrInvalidInput
		}

		if entry.OutputBF.GreaterThan(entry.ActualBF) {
			return domain.ErrOutputExceedsInput
		}
		s.derive(entry)

		adj := &entity.YieldAdjustment{
			YieldEntryID:  entry.ID,
			Field:         in.Field,
			PreviousValue: previous,
			NewValue:      in.NewValue,
			Reason:        in.Reason,
			CreatedAt:     time.Now(),
			CreatedBy:     in.UserID,
		}
		if err := yieldRepo.CreateAdjustment(ctx, adj); err != nil {
			return err
		}
		if err := yieldRepo.Update(ctx, entry); err != nil {
			return err
		}
		adjusted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("yield_entry_id", in.YieldEntryID).
		Str("field", in.Field).
		Str("reason", in.Reason).
		Msg("registro de rendimiento ajustado")
	return adjusted, nil
}

// GetEntry lectura directa para handlers.
func (s *Service) GetEntry(ctx context.Context, id string) (*entity.YieldEntry, error) {
	return s.yieldRepo.GetByID(ctx, id)
}

// ListAdjustments historial de auditoría de un registro.
func (s *Service) ListAdjustments(ctx context.Context, yieldEntryID string) ([]*entity.YieldAdjustment, error) {
	if yieldEntryID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.yieldRepo.ListAdjustments(ctx, yieldEntryID)
}

// Aggregate reduce los registros que pasan el filtro agrupados por la
// dimensión pedida (item, work_order o waste_reason).
func (s *Service) Aggregate(ctx context.Context, groupBy string, filter repository.YieldFilter) ([]repository.YieldAggregate, error) {
	switch groupBy {
	case repository.YieldGroupByItem, repository.YieldGroupByWorkOrder, repository.YieldGroupByWasteReason:
	default:
		return nil, domain.ErrInvalidInput
	}
	if groupBy == repository.YieldGroupByWasteReason && !s.cfg.WasteEnabled {
		return nil, domain.ErrModuleDisabled
	}
	return s.yieldRepo.Aggregate(ctx, groupBy, filter)
}
