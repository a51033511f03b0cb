package core

import (
	"strings"
	"testing"
	"time"
)

func TestTypeValid(t *testing.T) {
	if !Income.Valid() || !Expense.Valid() {
		t.Fatalf("expected income and expense to be valid")
	}
	if Type("transfer").Valid() {
		t.Fatalf("expected unknown type to be invalid")
	}
	if Type("").Valid() {
		t.Fatalf("expected empty type to be invalid")
	}
}

func TestTypeSign(t *testing.T) {
	if got := Income.Sign(); got != "+" {
		t.Fatalf("income sign: expected +, got %q", got)
	}
	if got := Expense.Sign(); got != "-" {
		t.Fatalf("expense sign: expected -, got %q", got)
	}
}

func TestTimestampPending(t *testing.T) {
	var pending Timestamp
	if !pending.Pending() {
		t.Fatalf("zero timestamp should be pending")
	}
	if got := pending.Label(); got != "Pending" {
		t.Fatalf("pending label: expected Pending, got %q", got)
	}

	resolved := NewTimestamp(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	if resolved.Pending() {
		t.Fatalf("resolved timestamp should not be pending")
	}
	if got := resolved.Label(); got != "2026-03-14" {
		t.Fatalf("resolved label: expected 2026-03-14, got %q", got)
	}
}

func TestDraftValidate(t *testing.T) {
	good := Draft{Caption: "Salary", Amount: 5000, Type: Income}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Draft{
		{Caption: "", Amount: 10, Type: Expense},
		{Caption: "   ", Amount: 10, Type: Expense},
		{Caption: strings.Repeat("x", 201), Amount: 10, Type: Expense},
		{Caption: "ok", Amount: -1, Type: Expense},
		{Caption: "ok", Amount: 10, Type: Type("transfer")},
		{Caption: "ok", Amount: 10, Type: Type("")},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPatchValidate(t *testing.T) {
	if err := (Patch{Caption: "Rent", Amount: 800}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Patch{Caption: "", Amount: 800}).Validate(); err == nil {
		t.Fatalf("expected error for empty caption")
	}
	if err := (Patch{Caption: "Rent", Amount: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
