// Package autherr define la taxonomía de errores del framework.
//
// Cuatro familias:
//   - missing_parameter: falta una key requerida en la config de una
//     estrategia. Fatal: aborta antes de cualquier llamada al provider.
//   - invalid_iteration_count: se pidió firmar con iteraciones <= 0.
//     Fatal para la operación de firma.
//   - io_failure: error de transporte HTTP hablando con el provider.
//     Se propaga a la estrategia, que decide reintentar o emitir un
//     envelope de error.
//   - provider_error: el provider reportó una condición de error
//     (ej. access denied). Siempre se entrega vía error callback,
//     nunca se descarta en silencio.
package autherr

import (
	"errors"
	"strconv"
)

// MissingParameter construye el error fatal de configuración.
func MissingParameter(strategy, key string) *Error {
	return &Error{
		Code:     CodeMissingParameter,
		Message:  "missing or empty required parameter",
		Detail:   key,
		Strategy: strategy,
	}
}

// InvalidIterationCount construye el error fatal de firma.
func InvalidIterationCount(got int) *Error {
	return &Error{
		Code:    CodeInvalidIterationCount,
		Message: "signing requires a positive iteration count",
		Detail:  strconv.Itoa(got),
	}
}

// IOFailure envuelve un error de transporte hacia el provider.
func IOFailure(err error) *Error {
	return &Error{
		Code:    CodeIOFailure,
		Message: "provider request failed",
		Err:     err,
	}
}

// ProviderError construye el error reportado por un provider.
func ProviderError(strategy, code, message string) *Error {
	return &Error{
		Code:     CodeProviderError,
		Message:  message,
		Detail:   code,
		Strategy: strategy,
	}
}

func is(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsMissingParameter verifica si el error es missing_parameter.
func IsMissingParameter(err error) bool { return is(err, CodeMissingParameter) }

// IsInvalidIterationCount verifica si el error es invalid_iteration_count.
func IsInvalidIterationCount(err error) bool { return is(err, CodeInvalidIterationCount) }

// IsIOFailure verifica si el error es io_failure.
func IsIOFailure(err error) bool { return is(err, CodeIOFailure) }

// IsProviderError verifica si el error es provider_error.
func IsProviderError(err error) bool { return is(err, CodeProviderError) }
