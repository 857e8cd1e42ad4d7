package autherr

import (
	"errors"
	"fmt"
)

// Códigos de error del framework. Cada código identifica una falla
// de la taxonomía; el código viaja en logs y en envelopes de error.
const (
	CodeMissingParameter      = "missing_parameter"
	CodeInvalidIterationCount = "invalid_iteration_count"
	CodeIOFailure             = "io_failure"
	CodeProviderError         = "provider_error"
	CodeInternal              = "internal_error"
)

// Error es el error estructurado del framework.
// Strategy identifica la estrategia que falló (puede estar vacío para
// fallas que no pertenecen a una estrategia, ej. firma).
type Error struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Detail   string `json:"detail,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Err      error  `json:"-"` // causa original, solo para logs
}

// Error implementa la interfaz error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail retorna una copia con detalle adicional.
func (e *Error) WithDetail(detail string) *Error {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithStrategy retorna una copia anotada con el nombre de la estrategia.
func (e *Error) WithStrategy(name string) *Error {
	clone := *e
	clone.Strategy = name
	return &clone
}

// WithCause retorna una copia que envuelve el error original.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// FromError normaliza cualquier error a *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: CodeInternal, Message: err.Error(), Err: err}
}
