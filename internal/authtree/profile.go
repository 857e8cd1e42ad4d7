package authtree

import "sort"

// MapProfile construye un árbol auth desde el perfil crudo del provider
// usando un mapping declarativo destino -> origen, ambos rutas punteadas:
//
//	MapProfile(profile, map[string]string{
//	    "info.name": "name",
//	    "uid":       "id",
//	    "raw":       "",        // origen vacío copia el perfil completo
//	})
//
// Las rutas de origen ausentes se omiten sin error: los perfiles varían
// entre providers. El resultado es un árbol nuevo; el perfil no se muta.
func MapProfile(profile Map, mapping map[string]string) Map {
	dests := make([]string, 0, len(mapping))
	for d := range mapping {
		dests = append(dests, d)
	}
	// orden estable para que colisiones de rutas resuelvan igual siempre
	sort.Strings(dests)

	out := Map{}
	for _, dest := range dests {
		src := mapping[dest]
		if src == "" {
			out = SetPath(out, dest, profile)
			continue
		}
		if v, ok := GetPath(profile, src); ok {
			out = SetPath(out, dest, v)
		}
	}
	return out
}
