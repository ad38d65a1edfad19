// Package payment tracks the purchase token lifecycle: inexistente -> pendente -> pago.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
)

// Store persists payment records. Implementations serialize writers per record.
type Store interface {
	GetPayment(ctx context.Context, token string) (domain.PaymentRecord, bool, error)
	// RegisterPending creates the record or merges data into it, never downgrading pago.
	RegisterPending(ctx context.Context, token string, data map[string]string) (domain.PaymentRecord, error)
	// MarkPaid flips an existing record to pago. It reports false for unknown tokens.
	MarkPaid(ctx context.Context, token string) (bool, error)
}

type Service struct {
	store       Store
	log         *logging.Logger
	checkoutURL string
}

func NewService(store Store, checkoutURL string, log *logging.Logger) *Service {
	return &Service{
		store:       store,
		log:         logging.OrNop(log).With("component", "payment"),
		checkoutURL: checkoutURL,
	}
}

// NewToken returns a random 32-char hex token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create registers a pending payment (minting a token when empty) and returns the checkout URL.
func (s *Service) Create(ctx context.Context, amountCents int, token string, data map[string]string) (string, string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		token = NewToken()
	}
	if len(data) == 0 {
		data = map[string]string{"valor_centavos": fmt.Sprint(amountCents)}
	}
	if _, err := s.store.RegisterPending(ctx, token, data); err != nil {
		return "", "", fmt.Errorf("register pending payment: %w", err)
	}
	s.log.Info("payment created", "token", token, "amount_cents", amountCents)
	return s.CheckoutURL(token), token, nil
}

func (s *Service) CheckoutURL(token string) string {
	return s.checkoutURL + "?ref=" + url.QueryEscape(token)
}

func (s *Service) RegisterPending(ctx context.Context, token string, data map[string]string) error {
	if _, err := s.store.RegisterPending(ctx, token, data); err != nil {
		return fmt.Errorf("register pending payment: %w", err)
	}
	return nil
}

// Confirm marks token as paid. Confirming an already paid token is a no-op.
func (s *Service) Confirm(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	ok, err := s.store.MarkPaid(ctx, token)
	if err != nil {
		return false, fmt.Errorf("confirm payment: %w", err)
	}
	if ok {
		s.log.Info("payment confirmed", "token", token)
	}
	return ok, nil
}

func (s *Service) Status(ctx context.Context, token string) (domain.PaymentStatus, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.PaymentMissing, nil
	}
	rec, ok, err := s.store.GetPayment(ctx, token)
	if err != nil {
		return domain.PaymentMissing, fmt.Errorf("payment status: %w", err)
	}
	if !ok || rec.Status == "" {
		return domain.PaymentMissing, nil
	}
	return rec.Status, nil
}

// Data returns the stored report form fields for token, or nil.
func (s *Service) Data(ctx context.Context, token string) (map[string]string, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	rec, ok, err := s.store.GetPayment(ctx, token)
	if err != nil || !ok {
		return nil, err
	}
	return rec.Data, nil
}

func (s *Service) Exists(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	_, ok, err := s.store.GetPayment(ctx, token)
	return ok, err
}
