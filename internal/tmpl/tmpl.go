// Package tmpl implementa la sustitución de placeholders {identifier}
// usada por el resolver de configuración.
//
// Un placeholder es {identifier} con identifier en [A-Za-z0-9_-]+.
// Los placeholders sin valor en el diccionario quedan literales (no es
// error). La sustitución es de una sola pasada: un valor sustituido no
// se vuelve a escanear.
package tmpl

import "regexp"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// Replace sustituye cada {identifier} de s por dict[identifier] si existe.
// Reemplaza todas las ocurrencias, no solo la primera.
func Replace(s string, dict map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		// m es "{identifier}"; recortar llaves
		id := m[1 : len(m)-1]
		if v, ok := dict[id]; ok {
			return v
		}
		return m
	})
}

// ReplaceValue aplica Replace solo si v es string; cualquier otro tipo
// pasa sin cambios.
func ReplaceValue(v any, dict map[string]string) any {
	if s, ok := v.(string); ok {
		return Replace(s, dict)
	}
	return v
}
