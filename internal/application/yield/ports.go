package yield

import (
	"context"

	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con el
// repositorio de rendimiento atado a esa tx. La vía de ajuste depende de esto:
// el registro bloqueado, el rastro de auditoría y la actualización deben
// confirmarse juntos o no confirmarse.
type TxRunner interface {
	Run(ctx context.Context, fn func(yieldRepo repository.YieldRepository) error) error
}
