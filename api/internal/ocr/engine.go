package ocr

import (
	"context"
	"sync"
)

// Engine is a single recognition backend. Recognize performs exactly one
// attempt against the remote (or local) service; retries live in Recognize
// from retry.go, never inside an engine.
type Engine interface {
	Name() string
	GetModel() string
	Recognize(ctx context.Context, image []byte, opt Options) (Result, error)
}

// Manager keeps the per-chat engine selection with a process-wide default.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
