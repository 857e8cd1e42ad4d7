// Package strategy define el contrato base que implementa toda
// estrategia de provider y compone resolver, firmador y dispatcher de
// transporte en el ciclo request → callback/errorCallback.
//
// El framework nunca sabe qué provider produjo un árbol auth: las
// estrategias son colaboradores polimórficos que entran por la interfaz
// Strategy y terminan el flujo vía los helpers de Base.
package strategy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/authrelay/authrelay/internal/metrics"
)

// Strategy es la forma que implementa cada provider.
type Strategy interface {
	// Name es el nombre declarado del provider.
	Name() string
	// Request inicia el login (paso provider-specific: armar la URL de
	// autorización y redirigir).
	Request(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	// Callback termina el login procesando la respuesta del provider
	// y entregando el envelope (éxito o error) vía Base.
	Callback(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Action etiqueta las operaciones soportadas del ciclo de vida. El
// dispatch es un mapping fijo resuelto en compile time; acciones
// desconocidas fallan cerrado (nunca caen a un handler por default).
type Action int

const (
	ActionRequest Action = iota
	ActionCallback
)

var actionNames = map[Action]string{
	ActionRequest:  "request",
	ActionCallback: "callback",
}

// String retorna el nombre de la acción.
func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction convierte un nombre de acción a su tag. Nombres
// desconocidos son error.
func ParseAction(s string) (Action, error) {
	switch s {
	case "request":
		return ActionRequest, nil
	case "callback":
		return ActionCallback, nil
	default:
		return 0, fmt.Errorf("strategy: unknown action %q", s)
	}
}

// Dispatch invoca el handler fijo para la acción sobre la estrategia.
func Dispatch(ctx context.Context, action Action, s Strategy, w http.ResponseWriter, r *http.Request) error {
	switch action {
	case ActionRequest:
		metrics.CountAttempt(s.Name(), action.String())
		return s.Request(ctx, w, r)
	case ActionCallback:
		metrics.CountAttempt(s.Name(), action.String())
		return s.Callback(ctx, w, r)
	default:
		return fmt.Errorf("strategy: no handler for %s", action)
	}
}
