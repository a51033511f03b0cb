package report

import (
	"bytes"
	"testing"
	"time"

	"tally/internal/core"
)

func sample() []core.Transaction {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	return []core.Transaction{
		{ID: "c", Caption: "Consulting", Amount: 1200, Type: core.Income, CreatedAt: core.NewTimestamp(base.Add(2 * time.Hour))},
		{ID: "b", Caption: "Rent", Amount: 800, Type: core.Expense, CreatedAt: core.NewTimestamp(base.Add(time.Hour))},
		{ID: "a", Caption: "Salary", Amount: 5000, Type: core.Income, CreatedAt: core.NewTimestamp(base)},
	}
}

func TestGenerateProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sample(), time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestGenerateEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, nil, time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("generate empty: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty document")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	var a, b bytes.Buffer
	if err := Generate(&a, sample(), now); err != nil {
		t.Fatalf("generate a: %v", err)
	}
	if err := Generate(&b, sample(), now); err != nil {
		t.Fatalf("generate b: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("same snapshot and clock must produce identical bytes")
	}
}

func TestGenerateManyRowsPaginates(t *testing.T) {
	txs := make([]core.Transaction, 200)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := range txs {
		txs[i] = core.Transaction{
			ID:        "id",
			Caption:   "Entry",
			Amount:    10,
			Type:      core.Expense,
			CreatedAt: core.NewTimestamp(base.Add(time.Duration(i) * time.Minute)),
		}
	}
	var buf bytes.Buffer
	if err := Generate(&buf, txs, base); err != nil {
		t.Fatalf("generate long report: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty document")
	}
}

func TestFormatRow(t *testing.T) {
	tx := core.Transaction{
		Caption:   "Salary",
		Amount:    5000,
		Type:      core.Income,
		CreatedAt: core.NewTimestamp(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
	}
	got := formatRow(tx)
	want := [4]string{"2026-03-14", "Salary", "INCOME", "+5000.00"}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFormatRowPendingTimestamp(t *testing.T) {
	tx := core.Transaction{Caption: "Coffee", Amount: 3.5, Type: core.Expense}
	got := formatRow(tx)
	want := [4]string{"Pending", "Coffee", "EXPENSE", "-3.50"}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFormatProfit(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{4200, "+4200.00"},
		{0, "+0.00"},
		{-130.5, "-130.50"},
	}
	for _, tc := range cases {
		if got := FormatProfit(tc.in); got != tc.out {
			t.Fatalf("%v expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
