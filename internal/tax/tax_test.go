package tax

import (
	"testing"

	"github.com/shopspring/decimal"

	"seikyu/backend/internal/domain"
)

func TestComputeInclusiveSplitsKnownAmounts(t *testing.T) {
	cases := []struct {
		amount    int64
		rate      int
		exclusive int64
		tax       int64
	}{
		{440000, 10, 400000, 40000},
		{110, 10, 100, 10},
		{108, 8, 100, 8},
		{1000, 0, 1000, 0},
		// 100/1.1 = 90.909..., floored; tax is the remainder.
		{100, 10, 90, 10},
	}

	for _, tc := range cases {
		exclusive, tax := Compute(decimal.NewFromInt(tc.amount), tc.rate, domain.AmountInclusive)
		if exclusive != tc.exclusive || tax != tc.tax {
			t.Fatalf("Compute(%d, %d%%, inclusive) = (%d, %d), want (%d, %d)",
				tc.amount, tc.rate, exclusive, tax, tc.exclusive, tc.tax)
		}
	}
}

func TestComputeExclusiveSplitsKnownAmounts(t *testing.T) {
	cases := []struct {
		amount    int64
		rate      int
		exclusive int64
		tax       int64
	}{
		{1000, 8, 1000, 80},
		{1000, 10, 1000, 100},
		{999, 8, 999, 79},
		{1000, 0, 1000, 0},
	}

	for _, tc := range cases {
		exclusive, tax := Compute(decimal.NewFromInt(tc.amount), tc.rate, domain.AmountExclusive)
		if exclusive != tc.exclusive || tax != tc.tax {
			t.Fatalf("Compute(%d, %d%%, exclusive) = (%d, %d), want (%d, %d)",
				tc.amount, tc.rate, exclusive, tax, tc.exclusive, tc.tax)
		}
	}
}

func TestComputeInclusiveRoundTrips(t *testing.T) {
	// The two parts must reconstruct the entered amount exactly for every
	// integral input, whatever the rate.
	for _, rate := range domain.ValidTaxRates {
		for amount := int64(1); amount <= 5000; amount++ {
			exclusive, tax := Compute(decimal.NewFromInt(amount), rate, domain.AmountInclusive)
			if exclusive+tax != amount {
				t.Fatalf("rate %d%%: %d split into %d + %d, does not round-trip", rate, amount, exclusive, tax)
			}
			if exclusive < 0 || tax < 0 {
				t.Fatalf("rate %d%%: %d produced a negative part (%d, %d)", rate, amount, exclusive, tax)
			}
		}
	}
}

func TestComputeExclusiveMatchesFloorFormula(t *testing.T) {
	for _, rate := range domain.ValidTaxRates {
		for amount := int64(1); amount <= 5000; amount++ {
			exclusive, tax := Compute(decimal.NewFromInt(amount), rate, domain.AmountExclusive)
			want := amount + amount*int64(rate)/100
			if exclusive+tax != want {
				t.Fatalf("rate %d%%: %d gave total %d, want %d", rate, amount, exclusive+tax, want)
			}
		}
	}
}

func TestComputeFractionalAmountIsFloored(t *testing.T) {
	amount := decimal.RequireFromString("1000.75")
	exclusive, tax := Compute(amount, 10, domain.AmountExclusive)
	if exclusive != 1000 || tax != 100 {
		t.Fatalf("expected (1000, 100), got (%d, %d)", exclusive, tax)
	}
}

func TestAssembleSumsItems(t *testing.T) {
	items := []domain.LineItem{
		{ExclusiveYen: 400000, TaxYen: 40000},
		{ExclusiveYen: 1000, TaxYen: 80},
		{ExclusiveYen: 500, TaxYen: 0},
	}

	totals := Assemble(items)
	if totals.SubtotalYen != 401500 {
		t.Fatalf("subtotal = %d, want 401500", totals.SubtotalYen)
	}
	if totals.TaxTotalYen != 40080 {
		t.Fatalf("tax total = %d, want 40080", totals.TaxTotalYen)
	}
	if totals.TotalYen != 441580 {
		t.Fatalf("total = %d, want 441580", totals.TotalYen)
	}
}

func TestValidRate(t *testing.T) {
	for _, rate := range []int{0, 8, 10} {
		if !ValidRate(rate) {
			t.Fatalf("rate %d should be valid", rate)
		}
	}
	for _, rate := range []int{-1, 5, 11, 100} {
		if ValidRate(rate) {
			t.Fatalf("rate %d should be invalid", rate)
		}
	}
}
