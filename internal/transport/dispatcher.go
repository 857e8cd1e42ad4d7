package transport

import (
	"context"
	"encoding/base64"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/authrelay/authrelay/internal/authtree"
	"github.com/authrelay/authrelay/internal/envelope"
	"github.com/authrelay/authrelay/internal/metrics"
	"github.com/authrelay/authrelay/internal/observability/logger"
	"github.com/authrelay/authrelay/internal/session"
)

// Dispatcher entrega envelopes vía el transporte elegido.
type Dispatcher struct {
	store session.Store
	// ttl de los envelopes en el store de sesión
	ttl time.Duration
}

// NewDispatcher crea un dispatcher. store puede ser nil si nunca se usa
// el transporte session.
func NewDispatcher(store session.Store, ttl time.Duration) *Dispatcher {
	return &Dispatcher{store: store, ttl: ttl}
}

// Ship entrega el envelope a callbackURL vía kind. sessionID identifica
// la sesión del usuario para el transporte session (se ignora en los
// demás). Operación terminal: un Ship nuevo para la misma sesión pisa
// cualquier envelope pendiente no leído (last-write-wins).
func (d *Dispatcher) Ship(ctx context.Context, w http.ResponseWriter, r *http.Request, e envelope.Envelope, callbackURL string, kind Kind, sessionID string) error {
	log := logger.From(ctx).With(
		logger.Layer("transport"),
		logger.Transport(string(kind)),
		logger.Provider(e.Provider()),
	)

	// los árboles llegan normalizados desde la estrategia; normalizar
	// de nuevo es idempotente y protege envelopes armados a mano
	tree := authtree.Normalize(e.Tree()).(authtree.Map)

	var err error
	switch kind {
	case KindRedirect:
		err = d.shipRedirect(w, r, tree, callbackURL)
	case KindFormPost:
		err = d.shipFormPost(w, tree, callbackURL)
	case KindSession:
		err = d.shipSession(ctx, w, r, tree, callbackURL, sessionID, e.Provider())
	default:
		err = &unknownKindError{kind}
	}

	if err != nil {
		log.Error("envelope delivery failed", logger.CallbackURL(callbackURL), logger.Err(err))
		return err
	}

	outcome := "auth"
	if e.IsError() {
		outcome = "error"
	}
	metrics.CountEnvelope(string(kind), outcome)
	log.Info("envelope shipped", logger.CallbackURL(callbackURL))
	return nil
}

type unknownKindError struct{ kind Kind }

func (e *unknownKindError) Error() string { return "transport: unknown kind " + string(e.kind) }

// shipRedirect serializa el envelope y lo manda como único query param.
func (d *Dispatcher) shipRedirect(w http.ResponseWriter, r *http.Request, tree authtree.Map, callbackURL string) error {
	payload, err := authtree.Marshal(tree)
	if err != nil {
		return err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)

	u, err := url.Parse(callbackURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set(QueryParam, encoded)
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusFound)
	return nil
}

var formPostTmpl = template.Must(template.New("formpost").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body onload="document.forms[0].submit()">
<form method="post" action="{{.Action}}">
{{- range .Fields}}
<input type="hidden" name="{{.Key}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue</button></noscript>
</form>
</body>
</html>
`))

type formPostData struct {
	Action string
	Fields []authtree.KV
}

// shipFormPost renderiza el form auto-submit con el envelope aplanado.
func (d *Dispatcher) shipFormPost(w http.ResponseWriter, tree authtree.Map, callbackURL string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return formPostTmpl.Execute(w, formPostData{
		Action: callbackURL,
		Fields: authtree.Flatten(tree),
	})
}

// shipSession guarda el envelope y redirige sin payload en la URL.
func (d *Dispatcher) shipSession(ctx context.Context, w http.ResponseWriter, r *http.Request, tree authtree.Map, callbackURL, sessionID, provider string) error {
	if d.store == nil {
		return &noStoreError{}
	}
	payload, err := authtree.Marshal(tree)
	if err != nil {
		return err
	}
	key := session.Key(sessionID, provider)
	if err := d.store.Set(ctx, key, payload, d.ttl); err != nil {
		return err
	}
	logger.From(ctx).Debug("envelope parked for session pickup", logger.SessionKey(key))
	http.Redirect(w, r, callbackURL, http.StatusFound)
	return nil
}

type noStoreError struct{}

func (noStoreError) Error() string {
	return "transport: session handoff requires a session store"
}
