package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrModuleDisabled     = errors.New("módulo no habilitado")
	ErrLotTerminal        = errors.New("el lote está en estado terminal")
	ErrInsufficientLot    = errors.New("balance de lote insuficiente")
	ErrOutputExceedsInput = errors.New("la salida no puede exceder la entrada")
)
