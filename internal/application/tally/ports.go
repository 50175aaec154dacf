package tally

import (
	"context"

	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para la secuencia
// leer lote → decrementar balance → escribir: dos asignaciones simultáneas
// sobre el mismo lote no pueden sobre-suscribirlo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.TallySheetRepository,
		allocRepo repository.AllocationRepository,
	) error) error
}
