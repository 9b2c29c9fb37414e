package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/repo"
)

type store interface {
	List(ctx context.Context, activeOnly bool) ([]repo.PaymentMethod, error)
	Get(ctx context.Context, id int64) (repo.PaymentMethod, error)
	Create(ctx context.Context, m repo.PaymentMethod) (repo.PaymentMethod, error)
	Update(ctx context.Context, m repo.PaymentMethod) (repo.PaymentMethod, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages payment methods. Terms are normalized before any
// write, so a stored method can never carry installments its kind
// forbids.
type Service struct {
	store store
}

// NewService constructs a Service.
func NewService(s store) *Service {
	return &Service{store: s}
}

// Input is a payment method submission. Fee and interest are basis
// points, the minimum installment amount is minor units.
type Input struct {
	Name                   string `json:"name" validate:"required,max=120"`
	Kind                   string `json:"kind" validate:"required"`
	InternalFeeBps         int32  `json:"internal_fee_bps"`
	MinInstallmentAmount   int64  `json:"min_installment_amount"`
	MaxInstallments        int32  `json:"max_installments"`
	NoInterestInstallments int32  `json:"no_interest_installments"`
	InterestRateBps        int32  `json:"interest_rate_bps"`
	Active                 bool   `json:"active"`
}

func (in Input) terms() pricing.Terms {
	return pricing.Terms{
		Kind:                   pricing.MethodKind(in.Kind),
		InternalFeeBps:         in.InternalFeeBps,
		MinInstallmentAmount:   in.MinInstallmentAmount,
		MaxInstallments:        in.MaxInstallments,
		NoInterestInstallments: in.NoInterestInstallments,
		InterestRateBps:        in.InterestRateBps,
	}
}

// List returns methods, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]repo.PaymentMethod, error) {
	return s.store.List(ctx, activeOnly)
}

// Get returns one method.
func (s *Service) Get(ctx context.Context, id int64) (repo.PaymentMethod, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return repo.PaymentMethod{}, mapErr(err, id)
	}
	return m, nil
}

// Create validates, normalizes and persists a new method.
func (s *Service) Create(ctx context.Context, in Input) (repo.PaymentMethod, error) {
	terms := in.terms()
	if err := pricing.ValidateTerms(&terms); err != nil {
		return repo.PaymentMethod{}, common.Validation(err.Error(), err)
	}
	m, err := s.store.Create(ctx, repo.PaymentMethod{Name: in.Name, Terms: terms, Active: in.Active})
	if err != nil {
		return repo.PaymentMethod{}, mapErr(err, 0)
	}
	return m, nil
}

// Update validates, normalizes and rewrites a method.
func (s *Service) Update(ctx context.Context, id int64, in Input) (repo.PaymentMethod, error) {
	terms := in.terms()
	if err := pricing.ValidateTerms(&terms); err != nil {
		return repo.PaymentMethod{}, common.Validation(err.Error(), err)
	}
	m, err := s.store.Update(ctx, repo.PaymentMethod{ID: id, Name: in.Name, Terms: terms, Active: in.Active})
	if err != nil {
		return repo.PaymentMethod{}, mapErr(err, id)
	}
	return m, nil
}

// Delete removes a method. Methods referenced by sales are protected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(err, id)
	}
	return nil
}

// Quote is an installment plan priced against a method's terms.
type Quote struct {
	MethodID     int64         `json:"payment_method_id"`
	Amount       pricing.Money `json:"amount"`
	Installments int           `json:"installments"`
	Total        pricing.Money `json:"total"`
	PerPayment   pricing.Money `json:"per_payment"`
	Interest     pricing.Money `json:"interest"`
}

// QuoteInstallments prices an amount split into installments under a
// method's terms. Every installment is the same ceiling-rounded value,
// so PerPayment*installments can exceed Total by at most installments-1
// cents.
func (s *Service) QuoteInstallments(ctx context.Context, id int64, amount pricing.Money, installments int) (Quote, error) {
	if amount <= 0 {
		return Quote{}, common.Validation("amount must be positive", nil)
	}
	if installments <= 0 {
		installments = 1
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if !m.Active {
		return Quote{}, common.Validation(fmt.Sprintf("payment method %q is inactive", m.Name), nil)
	}
	if int32(installments) > m.Terms.MaxInstallments {
		return Quote{}, common.Validation(
			fmt.Sprintf("%q allows at most %d installments", m.Name, m.Terms.MaxInstallments), nil)
	}
	total := m.Terms.TotalWithInterest(amount, installments)
	per := (total + pricing.Money(installments) - 1) / pricing.Money(installments)
	if installments > 1 && m.Terms.MinInstallmentAmount > 0 && per < m.Terms.MinInstallmentAmount {
		return Quote{}, common.Validation(
			fmt.Sprintf("installments of %d are below the %d minimum for %q", per, m.Terms.MinInstallmentAmount, m.Name), nil)
	}
	return Quote{
		MethodID:     m.ID,
		Amount:       amount,
		Installments: installments,
		Total:        total,
		PerPayment:   per,
		Interest:     total - amount,
	}, nil
}

func mapErr(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFound("payment method", id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return common.Conflict("payment method is referenced by sales")
		case "23505":
			return common.Conflict("a payment method with that name already exists")
		}
	}
	return err
}
