package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

type store interface {
	List(ctx context.Context, limit, offset int32) ([]repo.Customer, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (repo.Customer, error)
	Create(ctx context.Context, c repo.Customer) (repo.Customer, error)
	Update(ctx context.Context, c repo.Customer) (repo.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages the customer book. The walk-in row is load-bearing
// for sales with no named buyer and can never be removed.
type Service struct {
	store    store
	walkInID int64
}

// NewService constructs a Service.
func NewService(s store) *Service {
	return &Service{store: s, walkInID: repo.WalkInCustomerID}
}

// Input is a customer submission.
type Input struct {
	Name      string  `json:"name" validate:"required,max=200"`
	TradeName *string `json:"trade_name"`
	TaxID     *string `json:"tax_id"`
	Phone     string  `json:"phone" validate:"max=40"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Address   *string `json:"address"`
}

// List returns one page of customers plus the total count.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]repo.Customer, int64, error) {
	rows, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (repo.Customer, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return repo.Customer{}, mapErr(err, id)
	}
	return c, nil
}

// Create persists a new customer.
func (s *Service) Create(ctx context.Context, in Input) (repo.Customer, error) {
	c, err := s.store.Create(ctx, fromInput(in))
	if err != nil {
		return repo.Customer{}, mapErr(err, 0)
	}
	return c, nil
}

// Update rewrites a customer's fields.
func (s *Service) Update(ctx context.Context, id int64, in Input) (repo.Customer, error) {
	cust := fromInput(in)
	cust.ID = id
	c, err := s.store.Update(ctx, cust)
	if err != nil {
		return repo.Customer{}, mapErr(err, id)
	}
	return c, nil
}

// Delete removes a customer. The walk-in row and customers with sale
// history are protected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id == s.walkInID {
		return common.Conflict("the walk-in customer cannot be deleted")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(err, id)
	}
	return nil
}

func fromInput(in Input) repo.Customer {
	return repo.Customer{
		Name:      in.Name,
		TradeName: in.TradeName,
		TaxID:     in.TaxID,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
	}
}

func mapErr(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFound("customer", id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return common.Conflict("customer has sale history")
		case "23505":
			return common.Conflict(fmt.Sprintf("customer conflicts with an existing record: %s", pgErr.ConstraintName))
		}
	}
	return err
}
