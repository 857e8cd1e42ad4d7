package authtree

import (
	"sort"
	"strconv"
	"strings"
)

// Unflatten reconstruye un árbol desde pares key/value estilo form
// field ("a[b]", "a[c][0]"), la inversa de Flatten. Un mapping cuyas
// keys son exactamente 0..n-1 vuelve como List.
//
// Los valores llegan como strings (los form fields no tienen tipos);
// ReviveScalar recupera Int/Float cuando el render canónico coincide
// exactamente (así "7" vuelve a Int pero "007" sigue siendo String).
// La revividura es heurística (un uid que era String("42") vuelve como
// Int(42)) pero no afecta la verificación de firmas: el firmador opera
// sobre la forma canónica de strings (ver Canonical), que es idéntica
// para ambos. Para fidelidad de tipos usar los transportes redirect o
// session, que llevan el JSON íntegro.
func Unflatten(fields map[string][]string) Map {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := Map{}
	for _, k := range keys {
		vs := fields[k]
		if len(vs) == 0 {
			continue
		}
		path := parseBracketPath(k)
		if len(path) == 0 {
			continue
		}
		root = setPath(root, path, ReviveScalar(vs[len(vs)-1]))
	}
	// el nivel raíz siempre es mapping (el envelope es un objeto)
	out := make(Map, len(root))
	for k, v := range root {
		out[k] = liftLists(v)
	}
	return out
}

// parseBracketPath corta "a[b][0]" en ["a","b","0"].
func parseBracketPath(key string) []string {
	head := key
	rest := ""
	if i := strings.IndexByte(key, '['); i >= 0 {
		head, rest = key[:i], key[i:]
	}
	if head == "" {
		return nil
	}
	out := []string{head}
	for rest != "" {
		if rest[0] != '[' {
			return nil
		}
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			return nil
		}
		out = append(out, rest[1:j])
		rest = rest[j+1:]
	}
	return out
}

// ReviveScalar convierte un form value a escalar canónico.
func ReviveScalar(s string) Node {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(i, 10) == s {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strconv.FormatFloat(f, 'g', -1, 64) == s {
		return Float(f)
	}
	return String(s)
}

// liftLists convierte mappings con keys 0..n-1 en listas.
func liftLists(n Node) Node {
	m, ok := n.(Map)
	if !ok {
		return n
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = liftLists(v)
	}
	if len(out) == 0 {
		return out
	}
	seq := make(List, len(out))
	for k, v := range out {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(out) || strconv.Itoa(i) != k || seq[i] != nil {
			return out
		}
		seq[i] = v
	}
	return seq
}
