// Package config carga el diccionario de entorno compartido por todas
// las estrategias: host, paths de callback, transporte por default y
// parámetros de firma.
//
// Fuentes, de menor a mayor precedencia: defaults → YAML → variables de
// entorno. El Environment es inmutable después de Load: las estrategias
// solo lo leen.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/authrelay/authrelay/internal/tmpl"
)

// Claves del diccionario de entorno que ven las estrategias.
const (
	KeyHost              = "host"
	KeyPath              = "path"
	KeyCallbackURL       = "callback_url"
	KeyCallbackTransport = "callback_transport"
	KeySecuritySalt      = "security_salt"
	KeySecurityIteration = "security_iteration"
	KeySecurityTimeout   = "security_timeout"
)

// Environment es la configuración compartida del proceso.
type Environment struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
		// debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	// Host público de la aplicación, ej. "http://app.example.com".
	Host string `yaml:"host"`
	// Path base donde está montado el framework, ej. "/auth/".
	Path string `yaml:"path"`
	// CallbackURL relativa; admite placeholders, ej. "{path}callback".
	CallbackURL string `yaml:"callback_url"`
	// CallbackTransport default: redirect | post | session.
	CallbackTransport string `yaml:"callback_transport"`

	Security struct {
		Salt      string `yaml:"salt"`
		Iteration int    `yaml:"iteration"`
		// Timeout de frescura de un envelope, ej. "2m".
		Timeout string `yaml:"timeout"`
	} `yaml:"security"`

	// Session configura el store usado por el transporte session handoff.
	Session struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
		// Sealed cifra los envelopes en reposo (SEALBOX_MASTER_KEY).
		Sealed bool `yaml:"sealed"`
	} `yaml:"session"`
}

// Load lee el YAML (path puede ser "" para solo defaults+env), aplica
// defaults, pisa con variables de entorno, auto-sustituye placeholders
// y valida.
func Load(path string) (*Environment, error) {
	var e Environment
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &e); err != nil {
			return nil, err
		}
	}

	e.applyDefaults()
	e.applyEnvOverrides()
	e.expandPlaceholders()

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// sane defaults (los mismos que usaría una instalación sin YAML)
func (e *Environment) applyDefaults() {
	if e.App.Env == "" {
		e.App.Env = "dev"
	}
	if e.App.LogLevel == "" {
		e.App.LogLevel = "info"
	}
	if e.Path == "" {
		e.Path = "/"
	}
	if e.CallbackURL == "" {
		e.CallbackURL = "{path}callback"
	}
	if e.CallbackTransport == "" {
		e.CallbackTransport = "session"
	}
	if e.Security.Iteration == 0 {
		e.Security.Iteration = 300
	}
	if e.Security.Timeout == "" {
		e.Security.Timeout = "2m"
	}
	if e.Session.Kind == "" {
		e.Session.Kind = "memory"
	}
	if e.Session.Memory.DefaultTTL == "" {
		e.Session.Memory.DefaultTTL = "2m"
	}
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (e *Environment) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		e.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		e.App.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvStr("AUTH_HOST"); ok {
		e.Host = v
	}
	if v, ok := getEnvStr("AUTH_PATH"); ok {
		e.Path = v
	}
	if v, ok := getEnvStr("AUTH_CALLBACK_URL"); ok {
		e.CallbackURL = v
	}
	if v, ok := getEnvStr("AUTH_CALLBACK_TRANSPORT"); ok {
		e.CallbackTransport = v
	}
	if v, ok := getEnvStr("AUTH_SECURITY_SALT"); ok {
		e.Security.Salt = v
	}
	if v, ok := getEnvInt("AUTH_SECURITY_ITERATION"); ok {
		e.Security.Iteration = v
	}
	if v, ok := getEnvStr("AUTH_SECURITY_TIMEOUT"); ok {
		e.Security.Timeout = v
	}
	if v, ok := getEnvStr("SESSION_KIND"); ok {
		e.Session.Kind = v
	}
	if v, ok := getEnvStr("SESSION_REDIS_ADDR"); ok {
		e.Session.Redis.Addr = v
	}
	if v, ok := getEnvInt("SESSION_REDIS_DB"); ok {
		e.Session.Redis.DB = v
	}
}

// expandPlaceholders auto-sustituye {placeholder} en los valores string
// del entorno contra el propio diccionario (una sola pasada).
// Permite callback_url: "{path}callback".
func (e *Environment) expandPlaceholders() {
	dict := e.Dict()
	e.Host = tmpl.Replace(e.Host, dict)
	e.Path = tmpl.Replace(e.Path, dict)
	e.CallbackURL = tmpl.Replace(e.CallbackURL, dict)
}

// Validate verifica las claves requeridas del entorno.
func (e *Environment) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return fmt.Errorf("config: host is required (AUTH_HOST)")
	}
	if strings.TrimSpace(e.Security.Salt) == "" {
		return fmt.Errorf("config: security salt is required (AUTH_SECURITY_SALT)")
	}
	if e.Security.Iteration <= 0 {
		return fmt.Errorf("config: security iteration must be positive, got %d", e.Security.Iteration)
	}
	switch e.CallbackTransport {
	case "redirect", "post", "session":
	default:
		return fmt.Errorf("config: unknown callback_transport %q", e.CallbackTransport)
	}
	if _, err := time.ParseDuration(e.Security.Timeout); err != nil {
		return fmt.Errorf("config: bad security timeout %q: %w", e.Security.Timeout, err)
	}
	return nil
}

// Dict retorna el diccionario plano que ven las estrategias (y el
// motor de templating).
func (e *Environment) Dict() map[string]string {
	return map[string]string{
		KeyHost:              e.Host,
		KeyPath:              e.Path,
		KeyCallbackURL:       e.CallbackURL,
		KeyCallbackTransport: e.CallbackTransport,
		KeySecuritySalt:      e.Security.Salt,
		KeySecurityIteration: strconv.Itoa(e.Security.Iteration),
		KeySecurityTimeout:   e.Security.Timeout,
	}
}

// TimeoutWindow retorna la ventana de frescura parseada.
// Validate ya garantizó que parsea.
func (e *Environment) TimeoutWindow() time.Duration {
	d, _ := time.ParseDuration(e.Security.Timeout)
	return d
}

// MemoryTTL retorna el TTL default del store de sesión en memoria.
func (e *Environment) MemoryTTL() time.Duration {
	d, err := time.ParseDuration(e.Session.Memory.DefaultTTL)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
