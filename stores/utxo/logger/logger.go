// Package logger decorates a utxo.Pool with debug logging of every mutation and failed lookup.
package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bsv-blockchain/txhandler/model"
	"github.com/bsv-blockchain/txhandler/stores/utxo"
	"github.com/bsv-blockchain/txhandler/ulogger"
)

type Store struct {
	logger ulogger.Logger
	pool   utxo.Pool
}

func New(logger ulogger.Logger, pool utxo.Pool) utxo.Pool {
	return &Store{
		logger: logger,
		pool:   pool,
	}
}

func caller() string {
	var callers []string

	depth := 3

	for i := 0; i < depth; i++ {
		pc, file, line, ok := runtime.Caller(2 + i)
		if !ok {
			break
		}

		// keep the path from the module root onwards
		if idx := strings.Index(file, "txhandler"+string(filepath.Separator)); idx >= 0 {
			file = file[idx+len("txhandler")+1:]
		}

		funcName := runtime.FuncForPC(pc).Name()
		funcPaths := strings.Split(funcName, "/")
		funcName = funcPaths[len(funcPaths)-1]

		callers = append(callers, fmt.Sprintf("called from %s: %s:%d", funcName, file, line))
	}

	return strings.Join(callers, ",")
}

func (s *Store) Contains(u model.UTXO) bool {
	return s.pool.Contains(u)
}

func (s *Store) Get(u model.UTXO) (model.Output, error) {
	out, err := s.pool.Get(u)
	if err != nil {
		s.logger.Debugf("[UTXOPool][logger][Get] utxo %s err %v : %s", u, err, caller())
	}

	return out, err
}

func (s *Store) Add(u model.UTXO, out model.Output) error {
	err := s.pool.Add(u, out)
	s.logger.Debugf("[UTXOPool][logger][Add] utxo %s value %d pubkey %x err %v : %s", u, out.Value, out.PublicKey, err, caller())

	return err
}

func (s *Store) Remove(u model.UTXO) error {
	err := s.pool.Remove(u)
	s.logger.Debugf("[UTXOPool][logger][Remove] utxo %s err %v : %s", u, err, caller())

	return err
}

func (s *Store) All() []model.UTXO {
	return s.pool.All()
}

func (s *Store) Len() int {
	return s.pool.Len()
}

// Clone keeps the logging decorator around the copy.
func (s *Store) Clone() utxo.Pool {
	s.logger.Debugf("[UTXOPool][logger][Clone] %d utxos : %s", s.pool.Len(), caller())

	return New(s.logger, s.pool.Clone())
}
