// Package transport entrega envelopes terminados a la aplicación
// receptora.
//
// Tres transportes intercambiables:
//   - redirect: el envelope viaja serializado y base64url-encodeado en
//     un único query param (?opauth=...) de un redirect HTTP.
//   - post: un documento HTML con un form auto-submit cuyos hidden
//     fields son el envelope aplanado (parent[child]).
//   - session: el envelope queda en el store de sesión bajo una key
//     fija y el redirect viaja sin payload; la app lo consume
//     out-of-band en el próximo request de la misma sesión.
//
// Ship es terminal: después de entregar (o divergir vía redirect) no
// hay más procesamiento del intento en curso.
package transport

import (
	"fmt"
	"strings"

	"github.com/authrelay/authrelay/internal/config"
)

// Kind identifica un transporte de callback.
type Kind string

const (
	KindRedirect Kind = "redirect"
	KindFormPost Kind = "post"
	KindSession  Kind = "session"
)

// QueryParam es el nombre del query param del transporte redirect.
const QueryParam = "opauth"

// ParseKind valida un nombre de transporte. Nombres desconocidos
// fallan cerrado, nunca caen a un default.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRedirect:
		return KindRedirect, nil
	case KindFormPost:
		return KindFormPost, nil
	case KindSession:
		return KindSession, nil
	default:
		return "", fmt.Errorf("transport: unknown kind %q", s)
	}
}

// ResolveKind elige el transporte: el explícito del caller, si no el
// default del entorno, y si tampoco hay, session.
func ResolveKind(explicit string, env *config.Environment) (Kind, error) {
	if strings.TrimSpace(explicit) != "" {
		return ParseKind(explicit)
	}
	if env != nil && strings.TrimSpace(env.CallbackTransport) != "" {
		return ParseKind(env.CallbackTransport)
	}
	return KindSession, nil
}
