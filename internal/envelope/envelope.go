// Package envelope define el payload de callback que recibe la
// aplicación receptora.
//
// Wire shape (éxito):
//
//	{"auth": {..., "provider": <name>}, "timestamp": <ISO-8601>, "signature": <string>}
//
// (error):
//
//	{"error": {"provider": <name>, "code": <string|number>, "message": <string>, "raw": <any>}, "timestamp": <ISO-8601>}
//
// La firma existe solo en envelopes de éxito y cubre el árbol auth ya
// normalizado (booleanos como 0/1).
package envelope

import (
	"errors"
	"time"

	"github.com/authrelay/authrelay/internal/authtree"
)

// TimestampFormat es el formato ISO-8601 del campo timestamp.
const TimestampFormat = time.RFC3339

// Envelope es el payload entregado a la aplicación receptora.
// Exactamente uno de Auth o Error está presente.
type Envelope struct {
	Auth      authtree.Map
	Error     *ErrorBody
	Timestamp string
	Signature string
}

// ErrorBody es el cuerpo de un envelope de error.
type ErrorBody struct {
	Provider string
	// Code puede ser simbólico (String) o numérico (Int/Float).
	Code    authtree.Node
	Message string
	// Raw es el payload de debug opaco del provider, opcional.
	Raw authtree.Node
}

// NewAuth construye un envelope de éxito. auth ya debe venir
// normalizado y con el campo provider puesto.
func NewAuth(auth authtree.Map, timestamp, signature string) Envelope {
	return Envelope{Auth: auth, Timestamp: timestamp, Signature: signature}
}

// NewError construye un envelope de error.
func NewError(provider string, code authtree.Node, message string, raw authtree.Node, timestamp string) Envelope {
	return Envelope{
		Error:     &ErrorBody{Provider: provider, Code: code, Message: message, Raw: raw},
		Timestamp: timestamp,
	}
}

// IsError indica si el envelope transporta un error.
func (e Envelope) IsError() bool { return e.Error != nil }

// Provider retorna el provider declarado en el envelope.
func (e Envelope) Provider() string {
	if e.Error != nil {
		return e.Error.Provider
	}
	if v, ok := e.Auth["provider"].(authtree.String); ok {
		return string(v)
	}
	return ""
}

// Tree retorna el envelope como árbol canónico (la forma que viaja por
// los transportes).
func (e Envelope) Tree() authtree.Map {
	out := authtree.Map{"timestamp": authtree.String(e.Timestamp)}
	if e.Error != nil {
		eb := authtree.Map{
			"provider": authtree.String(e.Error.Provider),
			"message":  authtree.String(e.Error.Message),
		}
		if e.Error.Code != nil {
			eb["code"] = e.Error.Code
		}
		if e.Error.Raw != nil {
			eb["raw"] = e.Error.Raw
		}
		out["error"] = eb
		return out
	}
	out["auth"] = e.Auth
	if e.Signature != "" {
		out["signature"] = authtree.String(e.Signature)
	}
	return out
}

// Marshal serializa el envelope a JSON determinístico.
func (e Envelope) Marshal() ([]byte, error) {
	return authtree.Marshal(e.Tree())
}

// Decode parsea un envelope desde sus bytes JSON.
func Decode(data []byte) (Envelope, error) {
	n, err := authtree.Decode(data)
	if err != nil {
		return Envelope{}, err
	}
	m, ok := n.(authtree.Map)
	if !ok {
		return Envelope{}, errors.New("envelope: payload is not an object")
	}
	return FromTree(m)
}

// FromTree reconstruye un envelope desde su forma de árbol.
func FromTree(m authtree.Map) (Envelope, error) {
	var e Envelope
	if ts, ok := m["timestamp"].(authtree.String); ok {
		e.Timestamp = string(ts)
	} else {
		return Envelope{}, errors.New("envelope: missing timestamp")
	}

	if errNode, ok := m["error"]; ok {
		em, ok := errNode.(authtree.Map)
		if !ok {
			return Envelope{}, errors.New("envelope: error body is not an object")
		}
		body := &ErrorBody{}
		if v, ok := em["provider"].(authtree.String); ok {
			body.Provider = string(v)
		}
		if v, ok := em["message"].(authtree.String); ok {
			body.Message = string(v)
		}
		body.Code = em["code"]
		body.Raw = em["raw"]
		e.Error = body
		return e, nil
	}

	auth, ok := m["auth"].(authtree.Map)
	if !ok {
		return Envelope{}, errors.New("envelope: missing auth and error")
	}
	e.Auth = auth
	if sig, ok := m["signature"].(authtree.String); ok {
		e.Signature = string(sig)
	}
	return e, nil
}
