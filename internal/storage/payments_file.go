package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
)

// ErrCorrupt marks a JSON document that could not be decoded.
var ErrCorrupt = errors.New("corrupt document")

// PaymentFileStore keeps every payment record in one JSON object keyed by token.
type PaymentFileStore struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

func NewPaymentFileStore(path string, log *logging.Logger) *PaymentFileStore {
	return &PaymentFileStore{path: path, log: logging.OrNop(log).With("store", "payments")}
}

func (s *PaymentFileStore) load() (map[string]domain.PaymentRecord, error) {
	recs := map[string]domain.PaymentRecord{}
	if _, err := readJSON(s.path, &recs); err != nil {
		if errors.Is(err, ErrCorrupt) {
			s.log.Warn("payments file unreadable, starting empty", "path", s.path, "error", err)
			return map[string]domain.PaymentRecord{}, nil
		}
		return nil, err
	}
	if recs == nil {
		recs = map[string]domain.PaymentRecord{}
	}
	return recs, nil
}

func (s *PaymentFileStore) GetPayment(_ context.Context, token string) (domain.PaymentRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return domain.PaymentRecord{}, false, err
	}
	rec, ok := recs[token]
	return rec, ok, nil
}

func (s *PaymentFileStore) RegisterPending(_ context.Context, token string, data map[string]string) (domain.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	rec := mergePending(recs[token], data)
	recs[token] = rec
	if err := writeJSONAtomic(s.path, recs); err != nil {
		return domain.PaymentRecord{}, err
	}
	return rec, nil
}

func (s *PaymentFileStore) MarkPaid(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return false, err
	}
	rec, ok := recs[token]
	if !ok {
		return false, nil
	}
	if rec.Status == domain.PaymentPaid {
		return true, nil
	}
	rec.Status = domain.PaymentPaid
	recs[token] = rec
	return true, writeJSONAtomic(s.path, recs)
}

// mergePending overlays data on cur. A paid record stays paid.
func mergePending(cur domain.PaymentRecord, data map[string]string) domain.PaymentRecord {
	out := domain.PaymentRecord{Status: domain.PaymentPending, Data: make(map[string]string, len(cur.Data)+len(data))}
	if cur.Status == domain.PaymentPaid {
		out.Status = domain.PaymentPaid
	}
	for k, v := range cur.Data {
		out.Data[k] = v
	}
	for k, v := range data {
		out.Data[k] = v
	}
	return out
}
