// Package signature firma árboles auth para que la aplicación receptora
// pueda detectar envelopes forjados o alterados en tránsito.
//
// Esquema: sha256 iterado sobre la serialización determinística de la
// forma canónica del árbol (cada hoja escalar rendida como string, ver
// authtree.Canonical), mezclando salt y timestamp en cada ronda, con el
// digest final renderizado en base-36 sobre su forma hex.
//
// Firmar la forma canónica hace la firma estable entre transportes: el
// transporte form post rinde todo valor como string y la revividura de
// tipos del lado receptor es heurística ("42" puede volver como Int),
// pero Int(42) y String("42") canonicalizan a los mismos bytes, así que
// la verificación no depende de por dónde viajó el envelope.
//
// Esto es un chequeo de integridad por secreto compartido, NO un MAC:
// cualquiera que conozca el salt puede producir firmas válidas. La
// verificación es recomputar y comparar; no se requiere comparación en
// tiempo constante. Para autenticidad real contra un adversario, migrar
// a un MAC con clave (el shape del envelope no cambia).
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/authrelay/authrelay/internal/autherr"
	"github.com/authrelay/authrelay/internal/authtree"
)

// Sign computa la firma del árbol auth.
//
// d0 = sha256(serialized); d(i+1) = sha256(d(i) + salt + timestamp),
// iterations rondas. iterations <= 0 es un error: nunca se produce una
// firma con cero rondas en silencio.
func Sign(tree authtree.Node, timestamp, salt string, iterations int) (string, error) {
	if iterations <= 0 {
		return "", autherr.InvalidIterationCount(iterations)
	}
	serialized, err := authtree.Marshal(authtree.Canonical(tree))
	if err != nil {
		return "", err
	}
	digest := sha256Hex(serialized)
	for i := 0; i < iterations; i++ {
		digest = sha256Hex([]byte(digest + salt + timestamp))
	}
	return hexToBase36(digest), nil
}

// Verify recomputa la firma y la compara con la recibida.
func Verify(tree authtree.Node, timestamp, salt string, iterations int, sig string) (bool, error) {
	want, err := Sign(tree, timestamp, salt, iterations)
	if err != nil {
		return false, err
	}
	return want == sig, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// hexToBase36 re-codifica un string hex como base-36 (encoding compacto
// y determinístico del digest final).
func hexToBase36(h string) string {
	n := new(big.Int)
	n.SetString(h, 16)
	return n.Text(36)
}
