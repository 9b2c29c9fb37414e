package pricing

import (
	"errors"
	"testing"
)

func TestTotalWithInterestFreeWindow(t *testing.T) {
	terms := Terms{
		Kind:                   KindCredit,
		InterestRateBps:        200,
		NoInterestInstallments: 3,
	}
	if got := terms.TotalWithInterest(10000, 3); got != 10000 {
		t.Fatalf("3 installments inside free window: expected 10000, got %d", got)
	}
	if got := terms.TotalWithInterest(10000, 4); got != 10200 {
		t.Fatalf("4 installments: expected 10200, got %d", got)
	}
}

func TestTotalWithInterestCompounds(t *testing.T) {
	terms := Terms{
		Kind:                   KindBoleto,
		InterestRateBps:        100,
		NoInterestInstallments: 1,
	}
	// 100.00 over 3 installments: 100 * 1.01^2 = 102.01
	if got := terms.TotalWithInterest(10000, 3); got != 10201 {
		t.Fatalf("expected 10201, got %d", got)
	}
}

func TestTotalWithInterestNoOpForCashKinds(t *testing.T) {
	for _, kind := range []MethodKind{KindCash, KindPix, KindDebit, KindOther} {
		terms := Terms{Kind: kind, InterestRateBps: 500}
		if got := terms.TotalWithInterest(10000, 12); got != 10000 {
			t.Fatalf("kind %s: expected amount unchanged, got %d", kind, got)
		}
	}
}

func TestTotalWithInterestDefaultsFreeCount(t *testing.T) {
	terms := Terms{Kind: KindCredit, InterestRateBps: 200}
	if got := terms.TotalWithInterest(10000, 1); got != 10000 {
		t.Fatalf("single installment must be interest free, got %d", got)
	}
	if got := terms.TotalWithInterest(10000, 2); got != 10200 {
		t.Fatalf("expected 10200, got %d", got)
	}
}

func TestValidateTermsRejectsCashInstallments(t *testing.T) {
	terms := Terms{Kind: KindCash, MaxInstallments: 3}
	if err := ValidateTerms(&terms); !errors.Is(err, ErrInstallmentsNotAllowed) {
		t.Fatalf("expected ErrInstallmentsNotAllowed, got %v", err)
	}

	terms = Terms{Kind: KindPix, InterestRateBps: 100}
	if err := ValidateTerms(&terms); !errors.Is(err, ErrInstallmentsNotAllowed) {
		t.Fatalf("expected ErrInstallmentsNotAllowed, got %v", err)
	}
}

func TestValidateTermsNormalizesCashLike(t *testing.T) {
	terms := Terms{
		Kind:                 KindDebit,
		InternalFeeBps:       150,
		MaxInstallments:      1,
		MinInstallmentAmount: 5000,
	}
	if err := ValidateTerms(&terms); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if terms.MaxInstallments != 1 || terms.NoInterestInstallments != 1 {
		t.Fatalf("installment fields not normalized: %+v", terms)
	}
	if terms.InterestRateBps != 0 || terms.MinInstallmentAmount != 0 {
		t.Fatalf("rate fields not normalized: %+v", terms)
	}
	if terms.InternalFeeBps != 150 {
		t.Fatalf("internal fee must be preserved, got %d", terms.InternalFeeBps)
	}
}

func TestValidateTermsCreditDefaults(t *testing.T) {
	terms := Terms{Kind: KindCredit, InterestRateBps: 250}
	if err := ValidateTerms(&terms); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if terms.MaxInstallments != 1 || terms.NoInterestInstallments != 1 {
		t.Fatalf("expected defaults applied, got %+v", terms)
	}
}

func TestValidateTermsUnknownKind(t *testing.T) {
	terms := Terms{Kind: "voucher"}
	if err := ValidateTerms(&terms); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
