package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - DOMINIO
// =================================================================================

// Strategy crea un campo para el nombre de la estrategia de autenticación.
func Strategy(v string) zap.Field {
	return zap.String("strategy", v)
}

// Provider crea un campo para el provider declarado en un envelope.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// Transport crea un campo para el transporte de callback (redirect, post, session).
func Transport(v string) zap.Field {
	return zap.String("transport", v)
}

// CallbackURL crea un campo para la URL de callback.
func CallbackURL(v string) zap.Field {
	return zap.String("callback_url", v)
}

// SessionKey crea un campo para la key de sesión usada en el handoff.
func SessionKey(v string) zap.Field {
	return zap.String("session_key", v)
}

// AttemptID crea un campo para el ID del intento de autenticación.
func AttemptID(v string) zap.Field {
	return zap.String("attempt_id", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// URL crea un campo para la URL destino de una llamada al provider.
func URL(v string) zap.Field {
	return zap.String("url", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración de la llamada.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Layer crea un campo para la capa (strategy, transport, resolver).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}
