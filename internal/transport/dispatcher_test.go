package transport

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/authrelay/authrelay/internal/authtree"
	"github.com/authrelay/authrelay/internal/config"
	"github.com/authrelay/authrelay/internal/envelope"
	"github.com/authrelay/authrelay/internal/session"
)

func testEnvelope() envelope.Envelope {
	auth := authtree.Map{
		"provider": authtree.String("testprov"),
		"info":     authtree.Map{"name": authtree.String("Bob")},
		"verified": authtree.Bool(true),
	}
	return envelope.NewAuth(auth, "2024-01-01T00:00:00Z", "sig")
}

func TestShip_Redirect(t *testing.T) {
	d := NewDispatcher(nil, 0)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/testprov/callback", nil)

	err := d.Ship(context.Background(), w, r, testEnvelope(), "http://app/cb", KindRedirect, "")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.Host != "app" || loc.Path != "/cb" {
		t.Fatalf("location = %s", loc)
	}
	payload := loc.Query().Get(QueryParam)
	if payload == "" {
		t.Fatal("missing opauth query param")
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	e, err := envelope.Decode(raw)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if e.Provider() != "testprov" || e.Signature != "sig" {
		t.Fatalf("envelope: %+v", e)
	}
	// normalización de booleanos antes de transportar
	if e.Auth["verified"] != authtree.Int(1) {
		t.Fatalf("verified = %#v, want Int(1)", e.Auth["verified"])
	}
}

func TestShip_FormPost(t *testing.T) {
	d := NewDispatcher(nil, 0)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	err := d.Ship(context.Background(), w, r, testEnvelope(), "http://app/cb", KindFormPost, "")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type = %q", ct)
	}
	for _, want := range []string{
		`action="http://app/cb"`,
		`name="auth[provider]" value="testprov"`,
		`name="auth[info][name]" value="Bob"`,
		`name="auth[verified]" value="1"`,
		`name="signature" value="sig"`,
		`onload="document.forms[0].submit()"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("form post body missing %q:\n%s", want, body)
		}
	}
}

func TestShip_SessionHandoff(t *testing.T) {
	store := session.NewMemory(time.Minute)
	d := NewDispatcher(store, time.Minute)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	err := d.Ship(context.Background(), w, r, testEnvelope(), "http://app/cb", KindSession, "sess-9")
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	// redirect sin payload en la URL
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if loc != "http://app/cb" {
		t.Fatalf("location = %q", loc)
	}

	raw, err := store.Consume(context.Background(), session.Key("sess-9", "testprov"))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	e, err := envelope.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Provider() != "testprov" {
		t.Fatalf("provider = %q", e.Provider())
	}
}

func TestShip_SessionOverwritesPending(t *testing.T) {
	store := session.NewMemory(time.Minute)
	d := NewDispatcher(store, time.Minute)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		auth := authtree.Map{
			"provider": authtree.String("testprov"),
			"info":     authtree.Map{"name": authtree.String(name)},
		}
		e := envelope.NewAuth(auth, "t", "s")
		if err := d.Ship(ctx, w, r, e, "http://app/cb", KindSession, "sess-1"); err != nil {
			t.Fatalf("ship %s: %v", name, err)
		}
	}

	raw, err := store.Consume(ctx, session.Key("sess-1", "testprov"))
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	e, _ := envelope.Decode(raw)
	if v, _ := authtree.GetPath(e.Auth, "info.name"); v != authtree.String("second") {
		t.Fatalf("expected last write to win, got %v", v)
	}
}

func TestShip_UnknownKindFailsClosed(t *testing.T) {
	d := NewDispatcher(nil, 0)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := d.Ship(context.Background(), w, r, testEnvelope(), "http://app/cb", Kind("carrier-pigeon"), ""); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestResolveKind(t *testing.T) {
	env := &config.Environment{CallbackTransport: "redirect"}

	k, err := ResolveKind("post", env)
	if err != nil || k != KindFormPost {
		t.Fatalf("explicit: %v %v", k, err)
	}
	k, err = ResolveKind("", env)
	if err != nil || k != KindRedirect {
		t.Fatalf("env default: %v %v", k, err)
	}
	k, err = ResolveKind("", &config.Environment{})
	if err != nil || k != KindSession {
		t.Fatalf("fallback: %v %v", k, err)
	}
	if _, err := ResolveKind("smoke-signal", env); err == nil {
		t.Fatal("unknown explicit kind must fail closed")
	}
}
