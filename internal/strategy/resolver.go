package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/authrelay/authrelay/internal/autherr"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/tmpl"
)

// Claves computadas que el resolver inyecta en toda config final.
const (
	KeyStrategyCallbackURL = "strategy_callback_url"
	KeyPathToStrategy      = "path_to_strategy"
	KeyStrategyURL         = "strategy_url"
	KeyCallbackTransport   = "callback_transport"
)

// Definition declara una estrategia: su nombre y cómo se resuelve su
// configuración.
type Definition struct {
	// Name es el nombre declarado del provider ("facebook", "google").
	Name string
	// Defaults son los valores built-in de la estrategia (precedencia
	// más baja).
	Defaults map[string]any
	// Expected enumera las keys que DEBEN estar presentes y no vacías
	// antes de cualquier llamada al provider.
	Expected []string
	// Forbidden mapea keys a valores centinela prohibidos (ej. el
	// placeholder de un README que el integrador olvidó reemplazar).
	Forbidden map[string]string
}

// Config es la configuración final resuelta de una instancia.
type Config map[string]any

// GetString retorna el valor string de una key ("" si no existe o no
// es string).
func (c Config) GetString(key string) string {
	s, _ := c[key].(string)
	return s
}

// Resolve produce la configuración final de una estrategia.
//
// Orden:
//  1. defaults ← caller (el caller gana empates)
//  2. pre-chequeo: una expected key AUSENTE del merge falla con
//     MissingParameter acá mismo, sin computar URLs ni templar (las
//     keys computadas podrían depender de ella).
//  3. inyección de keys computadas (strategy_callback_url,
//     path_to_strategy, strategy_url).
//  4. sustitución de placeholders sobre cada valor string, con
//     diccionario = entorno ∪ config final (la config gana colisiones).
//  5. chequeo final de expected keys sobre los valores ya sustituidos:
//     no-vacío y no-centinela. Cualquier falla corta la estrategia
//     antes de toda llamada al provider.
//
// Sin efectos colaterales: no hay I/O y ni caller ni defaults se mutan.
func Resolve(caller map[string]any, def Definition, env *config.Environment) (Config, error) {
	final := make(Config, len(def.Defaults)+len(caller)+4)
	for k, v := range def.Defaults {
		final[k] = v
	}
	for k, v := range caller {
		final[k] = v
	}

	for _, key := range def.Expected {
		if _, ok := final[key]; !ok {
			return nil, autherr.MissingParameter(def.Name, key)
		}
	}

	pathToStrategy := env.Path + def.Name + "/"
	final[KeyStrategyCallbackURL] = env.Host + env.CallbackURL
	final[KeyPathToStrategy] = pathToStrategy
	final[KeyStrategyURL] = env.Host + pathToStrategy

	dict := buildDict(env, final)
	for k, v := range final {
		final[k] = tmpl.ReplaceValue(v, dict)
	}

	for _, key := range def.Expected {
		v := final[key]
		if isEmptyValue(v) {
			return nil, autherr.MissingParameter(def.Name, key)
		}
		if sentinel, has := def.Forbidden[key]; has {
			if s, isStr := v.(string); isStr && s == sentinel {
				return nil, autherr.MissingParameter(def.Name, key).
					WithDetail(fmt.Sprintf("%s still holds the placeholder value %q", key, sentinel))
			}
		}
	}
	return final, nil
}

// buildDict arma el diccionario de sustitución: entorno ∪ config final,
// con la config ganando colisiones. Solo entran valores escalares.
func buildDict(env *config.Environment, final Config) map[string]string {
	dict := env.Dict()
	for k, v := range final {
		switch t := v.(type) {
		case string:
			dict[k] = t
		case int:
			dict[k] = strconv.Itoa(t)
		case int64:
			dict[k] = strconv.FormatInt(t, 10)
		case float64:
			dict[k] = strconv.FormatFloat(t, 'g', -1, 64)
		case bool:
			dict[k] = strconv.FormatBool(t)
		}
	}
	return dict
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
