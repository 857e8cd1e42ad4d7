// Package relying es el lado receptor del framework: decodifica el
// envelope desde cualquiera de los tres transportes y lo valida
// (firma y frescura) antes de que la aplicación confíe en él.
package relying

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/authrelay/authrelay/internal/authtree"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/envelope"
	"github.com/authrelay/authrelay/internal/session"
	"github.com/authrelay/authrelay/internal/signature"
	"github.com/authrelay/authrelay/internal/transport"
)

// Verifier valida envelopes recibidos. Comparte entorno (salt,
// iteraciones, ventana de frescura) y store de sesión con el emisor.
type Verifier struct {
	env   *config.Environment
	store session.Store
}

// NewVerifier crea un verifier. store puede ser nil si la app nunca usa
// el transporte session.
func NewVerifier(env *config.Environment, store session.Store) *Verifier {
	return &Verifier{env: env, store: store}
}

// FromRedirect extrae el envelope del query param del transporte
// redirect.
func FromRedirect(r *http.Request) (envelope.Envelope, error) {
	payload := r.URL.Query().Get(transport.QueryParam)
	if payload == "" {
		return envelope.Envelope{}, fmt.Errorf("relying: missing %s query param", transport.QueryParam)
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("relying: bad payload encoding: %w", err)
	}
	return envelope.Decode(raw)
}

// FromFormPost reconstruye el envelope desde los hidden fields
// aplanados de un form post.
func FromFormPost(r *http.Request) (envelope.Envelope, error) {
	if err := r.ParseForm(); err != nil {
		return envelope.Envelope{}, err
	}
	if len(r.PostForm) == 0 {
		return envelope.Envelope{}, errors.New("relying: empty form post")
	}
	tree := authtree.Unflatten(r.PostForm)
	return envelope.FromTree(tree)
}

// FromSession consume (lee y borra) el envelope pendiente de la sesión.
func (v *Verifier) FromSession(ctx context.Context, sessionID, provider string) (envelope.Envelope, error) {
	if v.store == nil {
		return envelope.Envelope{}, errors.New("relying: no session store configured")
	}
	raw, err := v.store.Consume(ctx, session.Key(sessionID, provider))
	if err != nil {
		return envelope.Envelope{}, err
	}
	return envelope.Decode(raw)
}

// Validate verifica el envelope: frescura del timestamp dentro de la
// ventana security_timeout y, para envelopes de éxito, la firma
// recomputada sobre el árbol auth. Los envelopes de error no llevan
// firma; solo se chequea frescura.
func (v *Verifier) Validate(e envelope.Envelope) error {
	return v.validateAt(e, time.Now())
}

func (v *Verifier) validateAt(e envelope.Envelope, now time.Time) error {
	ts, err := time.Parse(envelope.TimestampFormat, e.Timestamp)
	if err != nil {
		return fmt.Errorf("relying: bad timestamp %q: %w", e.Timestamp, err)
	}
	window := v.env.TimeoutWindow()
	if now.Sub(ts) > window {
		return fmt.Errorf("relying: envelope expired (age %s > %s)", now.Sub(ts).Round(time.Second), window)
	}
	if ts.Sub(now) > time.Minute {
		return errors.New("relying: envelope timestamp is in the future")
	}

	if e.IsError() {
		return nil
	}
	if e.Signature == "" {
		return errors.New("relying: auth envelope without signature")
	}
	ok, err := signature.Verify(e.Auth, e.Timestamp, v.env.Security.Salt, v.env.Security.Iteration, e.Signature)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("relying: signature mismatch")
	}
	return nil
}
