// Package session provee el store de sesión usado por el transporte
// session handoff.
//
// Contrato: a lo sumo un envelope pendiente por key. Un Set nuevo pisa
// cualquier envelope no leído (last-write-wins, sin merge). La
// aplicación receptora consume con Consume (read-then-delete).
//
// Backends:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//   - Sealed (wrapper que cifra los envelopes en reposo)
package session

import (
	"context"
	"time"

	"github.com/authrelay/authrelay/internal/config"
)

// Store define las operaciones del store de sesión.
type Store interface {
	// Set guarda un envelope bajo key con TTL. Pisa cualquier valor
	// previo bajo la misma key. ttl 0 significa sin expiración.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Consume lee y borra el envelope bajo key en una sola operación.
	// Retorna ErrNotFound si no hay envelope pendiente.
	Consume(ctx context.Context, key string) ([]byte, error)

	// Delete descarta el envelope bajo key si existe.
	Delete(ctx context.Context, key string) error

	// Close libera recursos del backend.
	Close() error
}

// ErrNotFound indica que no hay envelope pendiente bajo la key.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "session: no pending envelope" }

// IsNotFound verifica si el error es por envelope ausente.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// handoffPrefix es el prefijo fijo de las keys de handoff; la app
// receptora lee bajo el mismo patrón.
const handoffPrefix = "opauth:"

// Key construye la key de handoff para una sesión y un provider.
// Cada sesión queda aislada: intentos concurrentes desde sesiones
// distintas nunca comparten key.
func Key(sessionID, provider string) string {
	return sessionID + "/" + handoffPrefix + provider
}

// New crea un store según el entorno. Si Sealed está activo, el backend
// queda envuelto en el wrapper de cifrado.
func New(env *config.Environment) (Store, error) {
	var s Store
	switch env.Session.Kind {
	case "redis":
		s = NewRedis(env.Session.Redis.Addr, env.Session.Redis.DB, env.Session.Redis.Prefix)
	default:
		s = NewMemory(env.MemoryTTL())
	}
	if env.Session.Sealed {
		sealed, err := NewSealed(s)
		if err != nil {
			return nil, err
		}
		s = sealed
	}
	return s, nil
}
