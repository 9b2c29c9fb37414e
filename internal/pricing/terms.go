package pricing

import (
	"errors"
	"fmt"
	"math"
)

// MethodKind enumerates the supported payment method kinds.
type MethodKind string

const (
	KindCash   MethodKind = "cash"
	KindPix    MethodKind = "pix"
	KindDebit  MethodKind = "debit"
	KindCredit MethodKind = "credit"
	KindBoleto MethodKind = "boleto"
	KindOther  MethodKind = "other"
)

// ErrUnknownKind is returned when a method kind is not recognised.
var ErrUnknownKind = errors.New("unknown payment method kind")

// ErrInstallmentsNotAllowed is returned when a cash-like method is
// configured with installments or customer interest.
var ErrInstallmentsNotAllowed = errors.New("method kind does not allow installments or interest")

// ValidKind reports whether the kind is one of the supported values.
func ValidKind(k MethodKind) bool {
	switch k {
	case KindCash, KindPix, KindDebit, KindCredit, KindBoleto, KindOther:
		return true
	}
	return false
}

// Terms holds the fee and installment configuration of a payment method.
// Fee and interest rate are carried in basis points (2.5% == 250).
type Terms struct {
	Kind                   MethodKind
	InternalFeeBps         int32
	MinInstallmentAmount   Money
	MaxInstallments        int32
	NoInterestInstallments int32
	InterestRateBps        int32
}

// CashLike reports whether the kind settles in a single payment.
func (t Terms) CashLike() bool {
	switch t.Kind {
	case KindCash, KindPix, KindDebit:
		return true
	}
	return false
}

// interestFree returns the configured interest-free installment count,
// defaulting to 1 when unset.
func (t Terms) interestFree() int32 {
	if t.NoInterestInstallments <= 0 {
		return 1
	}
	return t.NoInterestInstallments
}

// TotalWithInterest returns the total payable for the given amount split
// into installments. Kinds other than credit/boleto, a zero rate, or an
// installment count within the interest-free window leave the amount
// unchanged. Otherwise compound monthly interest applies over the
// installments beyond the interest-free count, rounded to the cent.
func (t Terms) TotalWithInterest(amount Money, installments int) Money {
	if t.Kind != KindCredit && t.Kind != KindBoleto {
		return amount
	}
	free := int(t.interestFree())
	if t.InterestRateBps <= 0 || installments <= free {
		return amount
	}
	rate := float64(t.InterestRateBps) / 10000
	total := float64(amount) * math.Pow(1+rate, float64(installments-free))
	return Money(math.Round(total))
}

// ValidateTerms checks the configuration and normalizes it in place, so
// a stored method can never carry an installment setup its kind forbids.
// Cash-like kinds configured with more than one installment or a
// customer interest rate fail with ErrInstallmentsNotAllowed; valid
// cash-like terms are reset to their single-payment defaults.
func ValidateTerms(t *Terms) error {
	if !ValidKind(t.Kind) {
		return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
	if t.InternalFeeBps < 0 || t.InterestRateBps < 0 || t.MinInstallmentAmount < 0 {
		return errors.New("fees, rates and minimum amounts cannot be negative")
	}
	if t.CashLike() {
		if t.MaxInstallments > 1 || t.InterestRateBps > 0 {
			return fmt.Errorf("%w: %s", ErrInstallmentsNotAllowed, t.Kind)
		}
		t.MaxInstallments = 1
		t.NoInterestInstallments = 1
		t.InterestRateBps = 0
		t.MinInstallmentAmount = 0
		return nil
	}
	if t.MaxInstallments <= 0 {
		t.MaxInstallments = 1
	}
	if t.NoInterestInstallments <= 0 {
		t.NoInterestInstallments = 1
	}
	return nil
}
