package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el singleton. Idempotente: solo la primera llamada
// tiene efecto; va al comienzo del main.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el singleton, inicializándolo con defaults (dev, info) si
// nadie llamó Init.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{})
	}
	return instance
}

// Sync flushea buffers pendientes; con defer en main.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
