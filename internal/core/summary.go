package core

// Totals is the aggregate view over a transaction snapshot.
type Totals struct {
	Income  float64
	Expense float64
	Profit  float64
}

// Summarize recomputes the aggregate totals from scratch. It is a pure
// function of the snapshot; no incremental state is kept, so every
// snapshot delivery pays a full scan. Acceptable at this scale.
func Summarize(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income += tx.Amount
		case Expense:
			t.Expense += tx.Amount
		}
	}
	t.Profit = t.Income - t.Expense
	return t
}
