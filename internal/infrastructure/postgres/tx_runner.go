package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/lumber-pro/internal/application/tally"
	"github.com/tu-usuario/lumber-pro/internal/application/yield"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

// Ensure TxRunner implements tally.TxRunner y yield.TxRunner.
var _ tally.TxRunner = (*TxRunner)(nil)
var _ yield.TxRunner = (*YieldTxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con los
// repos de tally atados a la tx. Los FOR UPDATE de la caminata FIFO solo
// tienen efecto dentro de esta transacción.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.TallySheetRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lotRepo := NewTallySheetRepository(tx)
	allocRepo := NewAllocationRepository(tx)

	if err := fn(lotRepo, allocRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// YieldTxRunner variante para la vía de ajuste de rendimiento: registro
// bloqueado, rastro de auditoría y actualización en la misma transacción.
type YieldTxRunner struct {
	pool *pgxpool.Pool
}

// NewYieldTxRunner construye el runner de rendimiento con el pool.
func NewYieldTxRunner(pool *pgxpool.Pool) *YieldTxRunner {
	return &YieldTxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con el repo de rendimiento atado a la tx.
func (r *YieldTxRunner) Run(ctx context.Context, fn func(yieldRepo repository.YieldRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewYieldRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
