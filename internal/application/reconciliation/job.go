package reconciliation

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/lumber"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
	"github.com/tu-usuario/lumber-pro/pkg/config"
	"github.com/tu-usuario/lumber-pro/pkg/logger"
)

// Límites de recuperación normal para la detección de anomalías; fuera de
// [70,105] el registro se reporta con su severidad.
var (
	recoveryFloor = decimal.NewFromInt(70)
	recoveryCeil  = decimal.NewFromInt(105)
)

const listPageSize = 500

// Job corre las verificaciones periódicas de consistencia: balances de lotes
// contra su historial de asignaciones y recuperaciones fuera de rango.
// Solo lee y reporta; la corrección es siempre una decisión humana.
type Job struct {
	lotRepo   repository.TallySheetRepository
	allocRepo repository.AllocationRepository
	yieldRepo repository.YieldRepository
	cfg       config.LumberConfig
	log       *logger.Logger
}

// NewJob construye el job de reconciliación.
func NewJob(
	lotRepo repository.TallySheetRepository,
	allocRepo repository.AllocationRepository,
	yieldRepo repository.YieldRepository,
	cfg config.LumberConfig,
	log *logger.Logger,
) *Job {
	return &Job{lotRepo: lotRepo, allocRepo: allocRepo, yieldRepo: yieldRepo, cfg: cfg, log: log}
}

// Discrepancy balance de lote que no cuadra con su historial:
// esperado = recibido − consumido, comparado contra el remanente almacenado.
type Discrepancy struct {
	TallySheetID string
	LotNumber    string
	ReceivedQty  decimal.Decimal
	ConsumedQty  decimal.Decimal
	RemainingQty decimal.Decimal
	Drift        decimal.Decimal // esperado − almacenado
}

// TallyReport resultado de una pasada de reconciliación de balances.
type TallyReport struct {
	Checked       int
	Skipped       int // lotes que no pudieron verificarse (error por registro)
	Discrepancies []Discrepancy
}

// ReconcileTallyBalances recorre los lotes no terminales y compara
// recibido − consumido contra el remanente almacenado, con tolerancia de
// medio paso en la precisión configurada (el redondeo por operación puede
// acumular hasta eso). Un error en un lote se loggea y se salta: la pasada
// siempre termina.
func (j *Job) ReconcileTallyBalances(ctx context.Context) (*TallyReport, error) {
	report := &TallyReport{}
	statuses := []string{
		entity.TallyStatusOpen,
		entity.TallyStatusAllocated,
		entity.TallyStatusPartial,
		entity.TallyStatusConsumed,
	}

	// Medio ULP de la precisión configurada: 0.005 para precisión 2.
	tolerance := decimal.New(5, -j.cfg.BFPrecision-1)

	for offset := 0; ; offset += listPageSize {
		lots, err := j.lotRepo.ListByStatus(ctx, statuses, listPageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(lots) == 0 {
			break
		}

		for _, lot := range lots {
			consumed, err := j.allocRepo.SumByTallySheet(ctx, lot.ID, []string{entity.AllocationStatusConsumed})
			if err != nil {
				j.log.Error().Err(err).
					Str("tally_sheet_id", lot.ID).
					Msg("reconciliación: lote saltado")
				report.Skipped++
				continue
			}
			report.Checked++

			expected := lot.ReceivedQty.Sub(consumed)
			drift := expected.Sub(lot.RemainingQty)
			if drift.Abs().LessThanOrEqual(tolerance) {
				continue
			}

			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				TallySheetID: lot.ID,
				LotNumber:    lot.LotNumber,
				ReceivedQty:  lot.ReceivedQty,
				ConsumedQty:  consumed,
				RemainingQty: lot.RemainingQty,
				Drift:        lumber.RoundTo(drift, j.cfg.BFPrecision),
			})
			j.log.Warn().
				Str("tally_sheet_id", lot.ID).
				Str("lot_number", lot.LotNumber).
				Str("expected_bf", expected.String()).
				Str("remaining_bf", lot.RemainingQty.String()).
				Str("drift_bf", drift.String()).
				Msg("reconciliación: balance de lote no cuadra")
		}

		if len(lots) < listPageSize {
			break
		}
	}

	j.log.Info().
		Int("checked", report.Checked).
		Int("skipped", report.Skipped).
		Int("discrepancies", len(report.Discrepancies)).
		Msg("reconciliación de balances terminada")
	return report, nil
}

// Anomaly registro de rendimiento con recuperación fuera del rango normal.
type Anomaly struct {
	YieldEntryID string
	WorkOrderID  string
	ItemID       string
	RecoveryPct  decimal.Decimal
	Severity     string // entity.AnomalySeverity*
}

// DetectYieldAnomalies reporta los registros con recuperación fuera de
// [70,105] en la ventana del filtro, graduados por severidad.
func (j *Job) DetectYieldAnomalies(ctx context.Context, filter repository.YieldFilter) ([]Anomaly, error) {
	entries, err := j.yieldRepo.FindRecoveryOutside(ctx, recoveryFloor, recoveryCeil, filter)
	if err != nil {
		return nil, err
	}

	anomalies := make([]Anomaly, 0, len(entries))
	for _, e := range entries {
		sev := lumber.AnomalySeverity(e.RecoveryPct)
		if sev == entity.AnomalySeverityNone {
			continue // el borde del rango no es anómalo aunque la consulta lo traiga
		}
		anomalies = append(anomalies, Anomaly{
			YieldEntryID: e.ID,
			WorkOrderID:  e.WorkOrderID,
			ItemID:       e.ItemID,
			RecoveryPct:  e.RecoveryPct,
			Severity:     sev,
		})
		j.log.Warn().
			Str("yield_entry_id", e.ID).
			Str("work_order_id", e.WorkOrderID).
			Str("recovery_pct", e.RecoveryPct.String()).
			Str("severity", sev).
			Msg("anomalía de recuperación detectada")
	}

	j.log.Info().Int("anomalies", len(anomalies)).Msg("detección de anomalías terminada")
	return anomalies, nil
}
