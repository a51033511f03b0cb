package http

import (
	"bytes"
	"fmt"

	"tally/internal/core"
)

// rowView is the template model for one transaction row.
type rowView struct {
	ID        string
	Caption   string
	DateLabel string
	Amount    string
	Income    bool
}

// editView is the template model for a row in the editing state,
// seeded with the row's current caption and amount.
type editView struct {
	ID      string
	Caption string
	Amount  string
}

// listView is the template model for the live list fragment: the rows
// plus the totals recomputed from the same snapshot.
type listView struct {
	Rows           []rowView
	Empty          bool
	SyncLost       bool
	TotalIncome    string
	TotalExpense   string
	Profit         string
	ProfitPositive bool
}

func toRowView(tx core.Transaction) rowView {
	return rowView{
		ID:        tx.ID,
		Caption:   tx.Caption,
		DateLabel: tx.CreatedAt.Label(),
		Amount:    tx.Type.Sign() + "$" + core.FormatAmount(tx.Amount),
		Income:    tx.Type == core.Income,
	}
}

func toListView(txs []core.Transaction, syncLost bool) listView {
	totals := core.Summarize(txs)
	v := listView{
		Empty:          len(txs) == 0,
		SyncLost:       syncLost,
		TotalIncome:    "+$" + core.FormatAmount(totals.Income),
		TotalExpense:   "-$" + core.FormatAmount(totals.Expense),
		Profit:         profitLabel(totals.Profit),
		ProfitPositive: totals.Profit >= 0,
	}
	for _, tx := range txs {
		v.Rows = append(v.Rows, toRowView(tx))
	}
	return v
}

func profitLabel(profit float64) string {
	if profit >= 0 {
		return "+$" + core.FormatAmount(profit)
	}
	return "-$" + core.FormatAmount(-profit)
}

func (s *Server) renderList(txs []core.Transaction, syncLost bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "list.html", toListView(txs, syncLost)); err != nil {
		return nil, fmt.Errorf("render list: %w", err)
	}
	return buf.Bytes(), nil
}
