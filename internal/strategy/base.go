package strategy

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/authrelay/authrelay/internal/autherr"
	"github.com/authrelay/authrelay/internal/authtree"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/envelope"
	"github.com/authrelay/authrelay/internal/httpclient"
	"github.com/authrelay/authrelay/internal/metrics"
	"github.com/authrelay/authrelay/internal/observability/logger"
	"github.com/authrelay/authrelay/internal/signature"
	"github.com/authrelay/authrelay/internal/transport"
)

// Base compone los componentes compartidos para una instancia de
// estrategia: config resuelta, entorno, cliente HTTP y dispatcher.
// Una instancia atiende exactamente un request en vuelo; no comparte
// estado mutable con otras instancias.
type Base struct {
	name       string
	env        *config.Environment
	conf       Config
	client     *httpclient.Client
	dispatcher *transport.Dispatcher
}

// NewBase resuelve la config de la estrategia y arma la base. Una
// falla de resolución (MissingParameter) es fatal: la estrategia no
// debe ejecutar ningún paso posterior.
func NewBase(def Definition, caller map[string]any, env *config.Environment, d *transport.Dispatcher) (*Base, error) {
	conf, err := Resolve(caller, def, env)
	if err != nil {
		return nil, err
	}
	return &Base{
		name:       def.Name,
		env:        env,
		conf:       conf,
		client:     httpclient.New(),
		dispatcher: d,
	}, nil
}

// Name retorna el nombre declarado del provider.
func (b *Base) Name() string { return b.name }

// Config retorna la configuración final resuelta.
func (b *Base) Config() Config { return b.conf }

// Env retorna el diccionario de entorno compartido.
func (b *Base) Env() *config.Environment { return b.env }

// Client retorna el helper HTTP para hablar con el provider.
func (b *Base) Client() *httpclient.Client { return b.client }

// CallbackURL retorna la URL completa de callback de la aplicación.
func (b *Base) CallbackURL() string { return b.conf.GetString(KeyStrategyCallbackURL) }

// transportKind resuelve el transporte: override por estrategia →
// default del entorno → session.
func (b *Base) transportKind() (transport.Kind, error) {
	return transport.ResolveKind(b.conf.GetString(KeyCallbackTransport), b.env)
}

// CompleteAuth termina un login exitoso: augmenta el árbol con el
// provider, normaliza, firma y entrega el envelope. Operación
// terminal del intento en curso.
func (b *Base) CompleteAuth(ctx context.Context, w http.ResponseWriter, r *http.Request, auth authtree.Map, sessionID string) error {
	attemptID := uuid.NewString()
	log := logger.From(ctx).With(
		logger.Layer("strategy"),
		logger.Strategy(b.name),
		logger.AttemptID(attemptID),
	)

	// el campo provider viene del nombre declarado, nunca del perfil
	auth = authtree.SetPath(auth, "provider", authtree.String(b.name))
	normalized := authtree.Normalize(auth).(authtree.Map)

	timestamp := time.Now().UTC().Format(envelope.TimestampFormat)
	sig, err := signature.Sign(normalized, timestamp, b.env.Security.Salt, b.env.Security.Iteration)
	if err != nil {
		// falla de firma: no se entrega envelope, el flujo termina acá
		log.Error("signing failed, no envelope shipped", logger.Err(err))
		metrics.CountFailure(failureCode(err))
		return err
	}

	e := envelope.NewAuth(normalized, timestamp, sig)
	kind, err := b.transportKind()
	if err != nil {
		log.Error("bad transport configuration", logger.Err(err))
		metrics.CountFailure("bad_transport")
		return err
	}
	return b.dispatcher.Ship(ctx, w, r, e, b.CallbackURL(), kind, sessionID)
}

// FailAuth termina un login con el error reportado por el provider:
// arma el envelope de error y lo entrega por el mismo dispatcher que
// los de éxito. La aplicación receptora siempre recibe exactamente un
// envelope por intento.
func (b *Base) FailAuth(ctx context.Context, w http.ResponseWriter, r *http.Request, code authtree.Node, message string, raw authtree.Node, sessionID string) error {
	log := logger.From(ctx).With(
		logger.Layer("strategy"),
		logger.Strategy(b.name),
	)

	if raw != nil {
		raw = authtree.Normalize(raw)
	}
	timestamp := time.Now().UTC().Format(envelope.TimestampFormat)
	e := envelope.NewError(b.name, code, message, raw, timestamp)

	kind, err := b.transportKind()
	if err != nil {
		log.Error("bad transport configuration", logger.Err(err))
		metrics.CountFailure("bad_transport")
		return err
	}
	log.Warn("provider reported an error, shipping error envelope",
		logger.String("message", message))
	return b.dispatcher.Ship(ctx, w, r, e, b.CallbackURL(), kind, sessionID)
}

func failureCode(err error) string {
	return autherr.FromError(err).Code
}
