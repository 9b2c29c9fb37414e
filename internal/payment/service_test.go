package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

type fakeStore struct {
	rows   map[int64]repo.PaymentMethod
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[int64]repo.PaymentMethod{}}
}

func (f *fakeStore) List(_ context.Context, activeOnly bool) ([]repo.PaymentMethod, error) {
	out := make([]repo.PaymentMethod, 0, len(f.rows))
	for _, m := range f.rows {
		if !activeOnly || m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (repo.PaymentMethod, error) {
	m, ok := f.rows[id]
	if !ok {
		return repo.PaymentMethod{}, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeStore) Create(_ context.Context, m repo.PaymentMethod) (repo.PaymentMethod, error) {
	f.nextID++
	m.ID = f.nextID
	f.rows[m.ID] = m
	return m, nil
}

func (f *fakeStore) Update(_ context.Context, m repo.PaymentMethod) (repo.PaymentMethod, error) {
	if _, ok := f.rows[m.ID]; !ok {
		return repo.PaymentMethod{}, pgx.ErrNoRows
	}
	f.rows[m.ID] = m
	return m, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

func TestCreateRejectsCashWithInstallments(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Create(context.Background(), Input{
		Name: "Cash", Kind: "cash", MaxInstallments: 3, Active: true,
	})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}

	// After correcting to a single installment the save succeeds and the
	// interest fields are forced to their cash defaults.
	m, err := svc.Create(context.Background(), Input{
		Name: "Cash", Kind: "cash", MaxInstallments: 1, InterestRateBps: 0, Active: true,
	})
	if err != nil {
		t.Fatalf("corrected create: %v", err)
	}
	if m.Terms.InterestRateBps != 0 || m.Terms.MaxInstallments != 1 || m.Terms.NoInterestInstallments != 1 {
		t.Errorf("terms not normalized: %+v", m.Terms)
	}
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	svc := NewService(newFakeStore())
	if _, err := svc.Create(context.Background(), Input{Name: "Mystery", Kind: "barter"}); err == nil {
		t.Fatal("unknown kind accepted")
	}
}

func TestQuoteInstallments(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	m, err := svc.Create(context.Background(), Input{
		Name: "Credit", Kind: "credit",
		MaxInstallments: 6, NoInterestInstallments: 3, InterestRateBps: 200,
		MinInstallmentAmount: 500, Active: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Within the interest-free window the total is unchanged.
	q, err := svc.QuoteInstallments(context.Background(), m.ID, 10000, 3)
	if err != nil {
		t.Fatalf("quote 3x: %v", err)
	}
	if q.Total != 10000 || q.Interest != 0 {
		t.Errorf("3x quote = %+v, want total 10000 interest 0", q)
	}

	// One installment past the window compounds once: 100.00 -> 102.00.
	q, err = svc.QuoteInstallments(context.Background(), m.ID, 10000, 4)
	if err != nil {
		t.Fatalf("quote 4x: %v", err)
	}
	if q.Total != 10200 {
		t.Errorf("4x total = %d, want 10200", q.Total)
	}
	if q.Interest != 200 {
		t.Errorf("4x interest = %d, want 200", q.Interest)
	}
	if q.PerPayment != 2550 {
		t.Errorf("4x per payment = %d, want 2550", q.PerPayment)
	}

	// A total that does not divide evenly rounds every installment up
	// to the same ceiling value.
	q, err = svc.QuoteInstallments(context.Background(), m.ID, 10001, 3)
	if err != nil {
		t.Fatalf("quote uneven 3x: %v", err)
	}
	if q.PerPayment != 3334 {
		t.Errorf("uneven per payment = %d, want ceiling 3334", q.PerPayment)
	}
	if overshoot := q.PerPayment*3 - q.Total; overshoot < 0 || overshoot >= 3 {
		t.Errorf("overshoot = %d, want within [0, 2]", overshoot)
	}

	if _, err := svc.QuoteInstallments(context.Background(), m.ID, 10000, 7); err == nil {
		t.Error("quote beyond max installments accepted")
	}
	if _, err := svc.QuoteInstallments(context.Background(), m.ID, 1200, 6); err == nil {
		t.Error("quote below minimum installment amount accepted")
	}
	if _, err := svc.QuoteInstallments(context.Background(), m.ID, 0, 1); err == nil {
		t.Error("zero amount accepted")
	}
}

func TestQuoteInactiveMethod(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	m, err := svc.Create(context.Background(), Input{Name: "Boleto", Kind: "boleto", MaxInstallments: 2, Active: false})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.QuoteInstallments(context.Background(), m.ID, 1000, 1); err == nil {
		t.Error("inactive method quoted")
	}
}
