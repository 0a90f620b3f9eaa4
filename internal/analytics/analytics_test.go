package analytics

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/pfalabs/finance-assistant/internal/infra/bigquery"
)

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestZeroFillDaily(t *testing.T) {
	rows := []*bigquery.DateSum{
		{Day: day(2026, 3, 1), Total: big.NewRat(100, 1)},
		{Day: day(2026, 3, 3), Total: big.NewRat(505, 10)},
	}
	start := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	got := ZeroFillDaily(rows, start, end)

	if len(got) != 4 {
		t.Fatalf("got %d buckets, want 4: %+v", len(got), got)
	}
	want := []DailyTotal{
		{Date: "2026-03-01", Total: 100},
		{Date: "2026-03-02", Total: 0},
		{Date: "2026-03-03", Total: 50.5},
		{Date: "2026-03-04", Total: 0},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestZeroFillDailySingleDay(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := ZeroFillDaily(nil, start, start)

	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got))
	}
	if got[0].Date != "2026-03-01" || got[0].Total != 0 {
		t.Errorf("bucket = %+v", got[0])
	}
}

func TestMonthlyTotalsComputesNet(t *testing.T) {
	rows := []*bigquery.MonthlySum{
		{Month: "2026-01", Income: big.NewRat(50000, 1), Expense: big.NewRat(320005, 10)},
		{Month: "2026-02", Income: nil, Expense: big.NewRat(100, 1)},
	}

	got := MonthlyTotals(rows)

	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Net != 50000-32000.5 {
		t.Errorf("net = %v, want %v", got[0].Net, 50000-32000.5)
	}
	if got[1].Income != 0 || got[1].Net != -100 {
		t.Errorf("nil income row = %+v", got[1])
	}
}

func TestCategoryTotalsPreservesOrder(t *testing.T) {
	rows := []*bigquery.CategorySum{
		{Category: "Groceries", Total: big.NewRat(900, 1)},
		{Category: "Food & Dining", Total: big.NewRat(450, 1)},
		{Category: "Transportation", Total: nil},
	}

	got := CategoryTotals(rows)

	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0].Category != "Groceries" || got[0].Total != 900 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[2].Total != 0 {
		t.Errorf("nil total should read as 0, got %v", got[2].Total)
	}
}
