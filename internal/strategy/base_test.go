package strategy

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/authrelay/authrelay/internal/autherr"
	"github.com/authrelay/authrelay/internal/authtree"
	"github.com/authrelay/authrelay/internal/envelope"
	"github.com/authrelay/authrelay/internal/session"
	"github.com/authrelay/authrelay/internal/signature"
	"github.com/authrelay/authrelay/internal/transport"
)

func newTestBase(t *testing.T, caller map[string]any) (*Base, *session.Memory) {
	t.Helper()
	store := session.NewMemory(time.Minute)
	d := transport.NewDispatcher(store, time.Minute)
	def := Definition{
		Name:     "testprov",
		Defaults: map[string]any{"scope": "email"},
		Expected: []string{"app_id"},
	}
	if caller == nil {
		caller = map[string]any{"app_id": "X"}
	}
	b, err := NewBase(def, caller, testEnv(), d)
	if err != nil {
		t.Fatalf("NewBase: %v", err)
	}
	return b, store
}

func TestNewBase_FatalOnMissingParameter(t *testing.T) {
	store := session.NewMemory(time.Minute)
	d := transport.NewDispatcher(store, time.Minute)
	def := Definition{Name: "testprov", Expected: []string{"app_id"}}
	_, err := NewBase(def, map[string]any{}, testEnv(), d)
	if !autherr.IsMissingParameter(err) {
		t.Fatalf("expected MissingParameter, got %v", err)
	}
}

func TestCompleteAuth_ShipsSignedEnvelope(t *testing.T) {
	b, store := newTestBase(t, map[string]any{
		"app_id":             "X",
		"callback_transport": "redirect",
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/testprov/callback", nil)

	auth := authtree.Map{
		"uid":      authtree.Int(7),
		"info":     authtree.Map{"name": authtree.String("Bob")},
		"verified": authtree.Bool(true),
	}
	if err := b.CompleteAuth(context.Background(), w, r, auth, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_ = store

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(loc.Query().Get(transport.QueryParam))
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	e, err := envelope.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// augmentado con provider
	if e.Provider() != "testprov" {
		t.Fatalf("provider = %q", e.Provider())
	}
	// booleanos normalizados antes de firmar
	if e.Auth["verified"] != authtree.Int(1) {
		t.Fatalf("verified = %#v", e.Auth["verified"])
	}
	// la firma verifica con los mismos parámetros compartidos
	env := b.Env()
	ok, err := signature.Verify(e.Auth, e.Timestamp, env.Security.Salt, env.Security.Iteration, e.Signature)
	if err != nil || !ok {
		t.Fatalf("signature: ok=%v err=%v", ok, err)
	}
	if _, err := time.Parse(envelope.TimestampFormat, e.Timestamp); err != nil {
		t.Fatalf("timestamp: %v", err)
	}
}

func TestCompleteAuth_SigningFailureShipsNothing(t *testing.T) {
	b, store := newTestBase(t, map[string]any{"app_id": "X"})
	b.env.Security.Iteration = 0 // inválido: la firma debe fallar

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := b.CompleteAuth(context.Background(), w, r, authtree.Map{"uid": authtree.Int(1)}, "sess-1")
	if !autherr.IsInvalidIterationCount(err) {
		t.Fatalf("expected InvalidIterationCount, got %v", err)
	}
	// sin redirect y sin envelope en el store: el flujo murió acá
	if w.Header().Get("Location") != "" {
		t.Fatal("redirect issued after signing failure")
	}
	if _, err := store.Consume(context.Background(), session.Key("sess-1", "testprov")); !session.IsNotFound(err) {
		t.Fatalf("envelope shipped after signing failure: %v", err)
	}
}

func TestFailAuth_ShipsErrorEnvelope(t *testing.T) {
	b, store := newTestBase(t, nil) // transporte default del entorno: session

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := b.FailAuth(context.Background(), w, r,
		authtree.String("access_denied"), "user refused",
		authtree.Map{"state": authtree.String("xyz")}, "sess-2")
	if err != nil {
		t.Fatalf("fail auth: %v", err)
	}

	raw, err := store.Consume(context.Background(), session.Key("sess-2", "testprov"))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	e, err := envelope.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !e.IsError() {
		t.Fatal("expected error envelope")
	}
	if e.Error.Provider != "testprov" || e.Error.Message != "user refused" {
		t.Fatalf("error body: %+v", e.Error)
	}
	if e.Signature != "" {
		t.Fatal("error envelope must not carry a signature")
	}
}
