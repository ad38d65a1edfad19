package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
)

// PilotFileStore keeps the pilot state as a single JSON document.
type PilotFileStore struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

func NewPilotFileStore(path string, log *logging.Logger) *PilotFileStore {
	return &PilotFileStore{path: path, log: logging.OrNop(log).With("store", "pilot")}
}

func (s *PilotFileStore) load() (*domain.PilotState, error) {
	st := domain.NewPilotState()
	if _, err := readJSON(s.path, st); err != nil {
		if errors.Is(err, ErrCorrupt) {
			s.log.Warn("pilot file unreadable, starting empty", "path", s.path, "error", err)
			return domain.NewPilotState(), nil
		}
		return nil, err
	}
	return st, nil
}

func (s *PilotFileStore) Update(ctx context.Context, fn func(pilot.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	tx := pilot.NewStateTx(st)
	if err := fn(tx); err != nil {
		return err
	}
	return writeJSONAtomic(s.path, tx.State)
}

func (s *PilotFileStore) View(ctx context.Context, fn func(pilot.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	return fn(pilot.NewStateTx(st))
}
