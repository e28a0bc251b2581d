package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrValidation        = errors.New("entrada inválida")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrOverConfirmation  = errors.New("la cantidad confirmada excede la cantidad solicitada")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// LineError describe el problema de una línea concreta dentro de un movimiento.
type LineError struct {
	Index  int    // posición de la línea en la petición (0-based)
	Field  string // campo ofensivo: item_code, lot, serial, qty...
	Detail string
}

func (e LineError) String() string {
	return fmt.Sprintf("línea %d, %s: %s", e.Index, e.Field, e.Detail)
}

// ValidationError agrupa los errores de todas las líneas ofensivas de una
// creación de movimiento. La creación es todo-o-nada: si hay al menos una
// línea inválida no se persiste nada.
type ValidationError struct {
	Lines []LineError
}

func (e *ValidationError) Error() string {
	if len(e.Lines) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, len(e.Lines))
	for i, le := range e.Lines {
		parts[i] = le.String()
	}
	return "validación: " + strings.Join(parts, "; ")
}

// Unwrap permite errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }
