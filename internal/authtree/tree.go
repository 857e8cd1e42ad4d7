// Package authtree define la representación canónica de los árboles
// auth/error que producen las estrategias.
//
// Un árbol es un sum type recursivo: escalar | secuencia | mapping.
// Los datos del provider se convierten a esta forma en el borde de la
// estrategia (FromAny); ningún componente posterior necesita reflection
// sobre objetos arbitrarios.
//
// La serialización JSON es determinística: encoding/json ordena las keys
// de los mappings, así que dos árboles lógicamente iguales serializan
// byte a byte igual. El firmador depende de esto.
package authtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Node es un nodo del árbol canónico. Implementaciones: String, Int,
// Float, Bool, Null, List y Map.
type Node interface {
	node()
}

type (
	// String es un escalar de texto.
	String string
	// Int es un escalar entero.
	Int int64
	// Float es un escalar de punto flotante.
	Float float64
	// Bool es un escalar booleano. Se normaliza a Int 0/1 antes de
	// cualquier transporte (ver Normalize).
	Bool bool
	// Null es el escalar nulo.
	Null struct{}
	// List es una secuencia ordenada.
	List []Node
	// Map es un mapping de string a nodo.
	Map map[string]Node
)

func (String) node() {}
func (Int) node()    {}
func (Float) node()  {}
func (Bool) node()   {}
func (Null) node()   {}
func (List) node()   {}
func (Map) node()    {}

// MarshalJSON serializa Null como null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// FromAny convierte un valor decodificado (típicamente el resultado de
// json.Unmarshal sobre el perfil del provider) al árbol canónico.
// Tipos soportados: nil, bool, string, enteros, floats, []any,
// map[string]any y los propios tipos de este paquete.
func FromAny(v any) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(t), nil
	case int32:
		return Int(t), nil
	case int64:
		return Int(t), nil
	case float32:
		return Float(t), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("authtree: bad number %q", t.String())
		}
		return Float(f), nil
	case []any:
		out := make(List, 0, len(t))
		for _, e := range t {
			n, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(t))
		for k, e := range t {
			n, err := FromAny(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("authtree: unsupported type %T", v)
	}
}

// MustFromAny es FromAny que entra en pánico ante tipos no soportados.
// Solo para literales en tests y ejemplos.
func MustFromAny(v any) Node {
	n, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return n
}

// Decode parsea JSON al árbol canónico. Usa json.Number para que los
// enteros sobrevivan el round-trip como Int (los floats de 64 bits
// perderían precisión y romperían la verificación de firmas).
func Decode(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return FromAny(v)
}

// Marshal serializa el árbol a JSON determinístico.
func Marshal(n Node) ([]byte, error) {
	return json.Marshal(n)
}

// SetPath retorna una copia de m con el valor v asignado en la ruta
// punteada path ("info.name"). Los niveles intermedios se crean si no
// existen; los mappings del camino se copian, nunca se mutan en el
// lugar (sin aliasing escondido). Un nivel intermedio que no sea Map se
// reemplaza por uno nuevo.
func SetPath(m Map, path string, v Node) Map {
	parts := strings.Split(path, ".")
	return setPath(m, parts, v)
}

func setPath(m Map, parts []string, v Node) Map {
	out := make(Map, len(m)+1)
	for k, e := range m {
		out[k] = e
	}
	head := parts[0]
	if len(parts) == 1 {
		out[head] = v
		return out
	}
	child, _ := out[head].(Map)
	out[head] = setPath(child, parts[1:], v)
	return out
}

// GetPath busca el valor en la ruta punteada. Retorna false si algún
// nivel no existe o no es un mapping.
func GetPath(m Map, path string) (Node, bool) {
	parts := strings.Split(path, ".")
	cur := m
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		cur, ok = v.(Map)
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// Normalize retorna una copia del árbol con todos los booleanos
// convertidos a Int 0/1. Query strings y form fields no pueden
// round-trippear booleanos nativos.
func Normalize(n Node) Node {
	switch t := n.(type) {
	case Bool:
		if t {
			return Int(1)
		}
		return Int(0)
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case Map:
		out := make(Map, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	default:
		return n
	}
}

// Canonical retorna una copia del árbol con cada hoja escalar rendida
// a su forma string (la misma que usa Flatten para los form fields).
// El firmador serializa esta forma: así un árbol que viajó por form
// post (donde todo valor vuelve como string) y uno que viajó por
// redirect/session verifican contra los mismos bytes.
func Canonical(n Node) Node {
	switch t := n.(type) {
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = Canonical(e)
		}
		return out
	case Map:
		out := make(Map, len(t))
		for k, e := range t {
			out[k] = Canonical(e)
		}
		return out
	default:
		return String(Scalar(t))
	}
}

// Flatten aplana el árbol a pares key/value estilo form field:
// {a: {b: 1, c: [2,3]}} -> {"a[b]": "1", "a[c][0]": "2", "a[c][1]": "3"}.
// Las keys del resultado salen en orden estable (orden lexicográfico de
// los mappings, orden posicional de las listas).
func Flatten(m Map) []KV {
	var out []KV
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = flattenInto(out, k, m[k])
	}
	return out
}

// KV es un par key/value aplanado.
type KV struct {
	Key   string
	Value string
}

func flattenInto(out []KV, prefix string, n Node) []KV {
	switch t := n.(type) {
	case Map:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = flattenInto(out, prefix+"["+k+"]", t[k])
		}
	case List:
		for i, e := range t {
			out = flattenInto(out, prefix+"["+strconv.Itoa(i)+"]", e)
		}
	default:
		out = append(out, KV{Key: prefix, Value: Scalar(n)})
	}
	return out
}

// Scalar renderiza un nodo escalar como string (para form fields).
func Scalar(n Node) string {
	switch t := n.(type) {
	case String:
		return string(t)
	case Int:
		return strconv.FormatInt(int64(t), 10)
	case Float:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case Bool:
		if t {
			return "1"
		}
		return "0"
	case Null:
		return ""
	default:
		// mappings/listas no son escalares; JSON como último recurso
		b, _ := json.Marshal(n)
		return string(b)
	}
}
