// Package memory is an in-memory utxo.Pool backed by a swiss map.
package memory

import (
	"slices"
	"sync"

	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/ulogger"
	"github.com/dolthub/swiss"
)

const defaultCapacity = 64

type Memory struct {
	logger ulogger.Logger
	mu     sync.RWMutex
	m      *swiss.Map[model.UTXO, model.Output]
}

func New(logger ulogger.Logger) *Memory {
	return newWithCapacity(logger, defaultCapacity)
}

// NewFromMap builds a pool holding a copy of entries, typically the ledger state carried
// over from the previous epoch.
func NewFromMap(logger ulogger.Logger, entries map[model.UTXO]model.Output) *Memory {
	m := newWithCapacity(logger, len(entries))

	for u, out := range entries {
		m.m.Put(u, out.Clone())
	}

	logger.Debugf("[Memory][NewFromMap] loaded %d utxos", len(entries))

	return m
}

func newWithCapacity(logger ulogger.Logger, capacity int) *Memory {
	if capacity < defaultCapacity {
		capacity = defaultCapacity
	}

	return &Memory{
		logger: logger,
		// the swiss map uses a lot less memory than the standard map
		m: swiss.NewMap[model.UTXO, model.Output](uint32(capacity)), //nolint:gosec // bounded by the size of an existing map
	}
}

func (m *Memory) Contains(u model.UTXO) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.m.Has(u)
}

func (m *Memory) Get(u model.UTXO) (model.Output, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out, ok := m.m.Get(u)
	if !ok {
		return model.Output{}, utxo.NewNotFoundError(u)
	}

	return out.Clone(), nil
}

func (m *Memory) Add(u model.UTXO, out model.Output) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.m.Has(u) {
		return utxo.NewAlreadyExistsError(u)
	}

	m.m.Put(u, out.Clone())

	return nil
}

func (m *Memory) Remove(u model.UTXO) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.m.Delete(u) {
		return utxo.NewNotFoundError(u)
	}

	return nil
}

func (m *Memory) All() []model.UTXO {
	m.mu.RLock()
	keys := make([]model.UTXO, 0, m.m.Count())

	m.m.Iter(func(u model.UTXO, _ model.Output) bool {
		keys = append(keys, u)
		return false
	})
	m.mu.RUnlock()

	slices.SortFunc(keys, func(a, b model.UTXO) int {
		return a.Compare(b)
	})

	return keys
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.m.Count()
}

func (m *Memory) Clone() utxo.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clone := newWithCapacity(m.logger, m.m.Count())

	m.m.Iter(func(u model.UTXO, out model.Output) bool {
		clone.m.Put(u, out.Clone())
		return false
	})

	return clone
}
